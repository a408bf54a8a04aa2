package metadata

import (
	"sort"
	"strings"

	"github.com/avearchive/avocado/internal/jsontree"
)

const (
	maxContributors = 5
	maxSubjects     = 5

	// Upper bound for the title-split publisher heuristic. Anything longer
	// is assumed to be a subtitle, not a publisher statement.
	maxHeuristicPublisherLen = 100

	multiValueSeparator  = " ; "
	identifierSeparator  = "; "
	responsibilitySplit  = " / "
	publisherTitleSuffix = " : "
)

// Extract maps a raw bib document onto the fixed export schema. It never
// fails: each field degrades to the empty string independently, and a nil
// or empty document short-circuits to the basic fallback record.
func Extract(doc map[string]any, oclcNumber string, fallback Input) Record {
	if len(doc) == 0 {
		return BasicRecord(fallback, oclcNumber)
	}

	root := jsontree.From(doc)
	return Record{
		OCLCNumber:  oclcNumber,
		Title:       extractTitle(root),
		Creator:     extractCreator(root),
		Contributor: extractContributors(root),
		Publisher:   extractPublisher(root),
		Date:        extractDate(root),
		Language:    extractLanguage(root),
		Subjects:    extractSubjects(root),
		Type:        extractType(root),
		Format:      extractFormat(root),
		ISBN:        extractIdentifierValues(root, "isbns", "isbn"),
		ISSN:        extractIdentifierValues(root, "issns", "issn"),
		Edition:     extractEdition(root),
		URL:         RecordURLBase + oclcNumber,
	}
}

// extractTitle takes the first main title and drops the statement of
// responsibility after " / ".
func extractTitle(root jsontree.Node) string {
	text := root.Key("title").Key("mainTitles").Index(0).Key("text").Str()
	if text == "" {
		return ""
	}
	title, _, _ := strings.Cut(text, responsibilitySplit)
	return CleanText(title)
}

func extractCreator(root jsontree.Node) string {
	creator := root.Key("contributor").Key("creators").Index(0)
	first := creator.Key("firstName").Key("text").Str()
	last := creator.Key("secondName").Key("text").Str()
	return CleanText(strings.TrimSpace(first + " " + last))
}

func extractContributors(root jsontree.Node) string {
	var names []string
	for _, c := range root.Key("contributor").Key("contributors").Items() {
		if len(names) == maxContributors {
			break
		}
		if name := c.Key("name").Key("text").Str(); name != "" {
			names = append(names, CleanText(name))
		}
	}
	return strings.Join(names, multiValueSeparator)
}

// extractPublisher walks an ordered chain of sources; the first non-empty
// hit wins.
func extractPublisher(root jsontree.Node) string {
	attempts := []func() string{
		func() string {
			return root.Key("publishers").Index(0).Key("publisherName").Key("text").Str()
		},
		func() string {
			return root.Key("publication").Index(0).Key("publisher").Str()
		},
		func() string {
			pub := root.Key("publisher")
			if pub.IsString() {
				return pub.Str()
			}
			return pub.Index(0).Str()
		},
		func() string {
			return root.Key("placeOfPublication").Index(0).Key("publisher").Str()
		},
		func() string {
			// Last resort: the trailing " : " segment of the full title is
			// often a publisher statement.
			full := root.Key("title").Key("mainTitles").Index(0).Key("text").Str()
			if !strings.Contains(full, publisherTitleSuffix) {
				return ""
			}
			parts := strings.Split(full, publisherTitleSuffix)
			candidate := strings.TrimSpace(parts[len(parts)-1])
			if len(candidate) >= maxHeuristicPublisherLen {
				return ""
			}
			return candidate
		},
	}

	for _, attempt := range attempts {
		if publisher := attempt(); publisher != "" {
			return CleanText(publisher)
		}
	}
	return ""
}

func extractDate(root jsontree.Node) string {
	return root.Key("date").Key("publicationDate").Str()
}

func extractLanguage(root jsontree.Node) string {
	lang := root.Key("language").Index(0)
	if lang.IsString() {
		return lang.Str()
	}
	return lang.Key("languageCode").Str()
}

func extractSubjects(root jsontree.Node) string {
	var subjects []string
	for _, subj := range root.Key("subject").Items() {
		if len(subjects) == maxSubjects {
			break
		}
		text := subj.Key("subjectName").Key("text").Str()
		if text == "" && subj.IsString() {
			text = subj.Str()
		}
		if text != "" {
			subjects = append(subjects, CleanText(text))
		}
	}
	return strings.Join(subjects, multiValueSeparator)
}

func extractType(root jsontree.Node) string {
	return root.Key("itemType").Key("text").Str()
}

func extractFormat(root jsontree.Node) string {
	return root.Key("format").Index(0).Text()
}

// extractIdentifierValues unions a direct list field with matching entries
// of the identifier items array, then dedupes and sorts.
func extractIdentifierValues(root jsontree.Node, listKey, itemType string) string {
	identifier := root.Key("identifier")

	var values []string
	for _, v := range identifier.Key(listKey).Items() {
		if s := v.Str(); s != "" {
			values = append(values, s)
		}
	}
	for _, item := range identifier.Key("items").Items() {
		if !strings.EqualFold(item.Key("type").Str(), itemType) {
			continue
		}
		if v := item.Key("value").Str(); v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(values))
	unique := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)
	return strings.Join(unique, identifierSeparator)
}

// extractEdition accepts a scalar, a list, or a nested text object.
func extractEdition(root jsontree.Node) string {
	edition := root.Key("edition")
	if edition.Len() > 0 {
		edition = edition.Index(0)
	}
	return CleanText(edition.Text())
}
