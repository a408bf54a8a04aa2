package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestExtractFullDocument(t *testing.T) {
	doc := decodeDoc(t, `{
		"title": {"mainTitles": [{"text": "Rayuela / Julio Cortázar"}]},
		"contributor": {
			"creators": [{"firstName": {"text": "Julio"}, "secondName": {"text": "Cortázar"}}],
			"contributors": [
				{"name": {"text": "Ana Pérez"}},
				{"name": {"text": "Luis Soto"}}
			]
		},
		"publishers": [{"publisherName": {"text": "Editorial Sudamericana"}}],
		"date": {"publicationDate": "1963"},
		"language": [{"languageCode": "spa"}],
		"subject": [
			{"subjectName": {"text": "Novela argentina"}},
			"Experimental fiction"
		],
		"itemType": {"text": "Book"},
		"format": [{"text": "Print"}],
		"identifier": {
			"isbns": ["9788437604572", "8437604575"],
			"items": [
				{"type": "ISBN", "value": "9788437604572"},
				{"type": "issn", "value": "0001-0001"}
			]
		},
		"edition": "2a ed."
	}`)

	rec := Extract(doc, "123", Input{})

	require.Equal(t, "123", rec.OCLCNumber)
	require.Equal(t, "Rayuela", rec.Title)
	require.Equal(t, "Julio Cortázar", rec.Creator)
	require.Equal(t, "Ana Pérez ; Luis Soto", rec.Contributor)
	require.Equal(t, "Editorial Sudamericana", rec.Publisher)
	require.Equal(t, "1963", rec.Date)
	require.Equal(t, "spa", rec.Language)
	require.Equal(t, "Novela argentina ; Experimental fiction", rec.Subjects)
	require.Equal(t, "Book", rec.Type)
	require.Equal(t, "Print", rec.Format)
	require.Equal(t, "8437604575; 9788437604572", rec.ISBN)
	require.Equal(t, "0001-0001", rec.ISSN)
	require.Equal(t, "2a ed.", rec.Edition)
	require.Equal(t, "https://www.worldcat.org/oclc/123", rec.URL)
}

func TestExtractEmptyDocumentFallsBack(t *testing.T) {
	fallback := Input{Title: "Doña Bárbara", Author: "Rómulo Gallegos"}

	rec := Extract(nil, "55", fallback)

	require.Equal(t, "55", rec.OCLCNumber)
	require.Equal(t, "Doña Bárbara", rec.Title)
	require.Equal(t, "Rómulo Gallegos", rec.Creator)
	require.Equal(t, "https://www.worldcat.org/oclc/55", rec.URL)
	require.Empty(t, rec.Publisher)
	require.Empty(t, rec.Subjects)
}

func TestExtractIsTotalOnMalformedShapes(t *testing.T) {
	// Every field carries an unexpected type; extraction must still return
	// a complete record with empty strings.
	doc := decodeDoc(t, `{
		"title": "not an object",
		"contributor": [1, 2],
		"publishers": {"not": "a list"},
		"publication": "scalar",
		"publisher": 17,
		"date": ["x"],
		"language": {"languageCode": "spa"},
		"subject": {"subjectName": "x"},
		"itemType": "Book",
		"format": {"text": "Print"},
		"identifier": "none",
		"edition": {"no_text": true}
	}`)

	rec := Extract(doc, "9", Input{Title: "ignored", Author: "ignored"})

	require.Equal(t, "9", rec.OCLCNumber)
	require.Empty(t, rec.Title)
	require.Empty(t, rec.Creator)
	require.Empty(t, rec.Contributor)
	require.Empty(t, rec.Publisher)
	require.Empty(t, rec.Date)
	require.Empty(t, rec.Language)
	require.Empty(t, rec.Subjects)
	require.Empty(t, rec.Type)
	require.Empty(t, rec.Format)
	require.Empty(t, rec.ISBN)
	require.Empty(t, rec.ISSN)
	require.Empty(t, rec.Edition)
	require.Equal(t, "https://www.worldcat.org/oclc/9", rec.URL)
}

func TestExtractIsIdempotent(t *testing.T) {
	doc := decodeDoc(t, `{
		"title": {"mainTitles": [{"text": "  Ficciones   /  Borges"}]},
		"identifier": {"isbns": ["b", "a", "b"]}
	}`)

	first := Extract(doc, "77", Input{})
	second := Extract(doc, "77", Input{})

	require.Equal(t, first, second)
	require.Equal(t, "Ficciones", first.Title)
	require.Equal(t, "a; b", first.ISBN)
}

func TestExtractPublisherFallbackChain(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "publication array",
			doc:  `{"publication": [{"publisher": "Alfaguara"}]}`,
			want: "Alfaguara",
		},
		{
			name: "direct string",
			doc:  `{"publisher": "Seix Barral"}`,
			want: "Seix Barral",
		},
		{
			name: "direct list",
			doc:  `{"publisher": ["Monte Ávila", "ignored"]}`,
			want: "Monte Ávila",
		},
		{
			name: "place of publication",
			doc:  `{"placeOfPublication": [{"publisher": "Planeta"}]}`,
			want: "Planeta",
		},
		{
			name: "title heuristic",
			doc:  `{"title": {"mainTitles": [{"text": "Las lanzas coloradas : Losada"}]}}`,
			want: "Losada",
		},
		{
			name: "dedicated field wins over later methods",
			doc: `{"publishers": [{"publisherName": {"text": "First"}}],
				"publication": [{"publisher": "Second"}]}`,
			want: "First",
		},
		{
			name: "nothing available",
			doc:  `{}`,
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Extract(decodeDoc(t, tc.doc), "1", Input{})
			require.Equal(t, tc.want, rec.Publisher)
		})
	}
}

func TestExtractPublisherHeuristicLengthCap(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'x'
	}
	doc := decodeDoc(t, `{"title": {"mainTitles": [{"text": "Short : `+string(long)+`"}]}}`)

	rec := Extract(doc, "1", Input{})
	require.Empty(t, rec.Publisher)
}

func TestExtractCapsContributorsAndSubjects(t *testing.T) {
	doc := decodeDoc(t, `{
		"contributor": {"contributors": [
			{"name": {"text": "C1"}}, {"name": {"text": "C2"}}, {"name": {"text": "C3"}},
			{"name": {"text": "C4"}}, {"name": {"text": "C5"}}, {"name": {"text": "C6"}}
		]},
		"subject": ["S1", "S2", "S3", "S4", "S5", "S6"]
	}`)

	rec := Extract(doc, "1", Input{})
	require.Equal(t, "C1 ; C2 ; C3 ; C4 ; C5", rec.Contributor)
	require.Equal(t, "S1 ; S2 ; S3 ; S4 ; S5", rec.Subjects)
}

func TestExtractEditionShapes(t *testing.T) {
	cases := []struct {
		doc  string
		want string
	}{
		{`{"edition": "3rd ed."}`, "3rd ed."},
		{`{"edition": ["1st ed.", "other"]}`, "1st ed."},
		{`{"edition": {"text": "Rev. ed."}}`, "Rev. ed."},
		{`{"edition": [{"text": "Facsimile"}]}`, "Facsimile"},
	}
	for _, tc := range cases {
		rec := Extract(decodeDoc(t, tc.doc), "1", Input{})
		require.Equal(t, tc.want, rec.Edition)
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "", CleanText(""))
	require.Equal(t, "a b c", CleanText("  a \t b\n c "))
	// NFC composes a combining acute into the precomposed rune.
	require.Equal(t, "Cortázar", CleanText("Cortázar"))
}

func TestBasicRecordWithoutNumberHasNoURL(t *testing.T) {
	rec := BasicRecord(Input{Title: "T", Author: "A"}, "")
	require.Empty(t, rec.URL)
	require.Empty(t, rec.OCLCNumber)
	require.Equal(t, "T", rec.Title)
	require.Equal(t, "A", rec.Creator)
}
