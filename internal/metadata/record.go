// Package metadata defines the fixed export schema for enriched
// bibliographic records and the extraction logic that fills it from raw
// WorldCat bib documents.
package metadata

// RecordURLBase is the public WorldCat page prefix used to derive the URL
// column from an OCLC number.
const RecordURLBase = "https://www.worldcat.org/oclc/"

// Input is one row of the source CSV. All fields may be empty; a row needs
// either an OCLC number or both title and author to be processable.
type Input struct {
	OCLCNumber string
	Author     string
	Title      string
}

// Usable reports whether the row carries any data at all. Fully blank rows
// are dropped at load time.
func (in Input) Usable() bool {
	return in.OCLCNumber != "" || in.Author != "" || in.Title != ""
}

// Searchable reports whether the row has enough data for an identifier
// search.
func (in Input) Searchable() bool {
	return in.Title != "" && in.Author != ""
}

// Record is the 14-column export schema. Absent data is always the empty
// string so the output stays column-stable.
type Record struct {
	OCLCNumber  string `json:"OCLC #"`
	Title       string `json:"Title"`
	Creator     string `json:"Creator"`
	Contributor string `json:"Contributor"`
	Publisher   string `json:"Publisher"`
	Date        string `json:"Date"`
	Language    string `json:"Language"`
	Subjects    string `json:"Subjects"`
	Type        string `json:"Type"`
	Format      string `json:"Format"`
	ISBN        string `json:"ISBN"`
	ISSN        string `json:"ISSN"`
	Edition     string `json:"Edition"`
	URL         string `json:"URL"`
}

// FieldNames returns the export header in column order.
func FieldNames() []string {
	return []string{
		"OCLC #", "Title", "Creator", "Contributor", "Publisher",
		"Date", "Language", "Subjects", "Type", "Format",
		"ISBN", "ISSN", "Edition", "URL",
	}
}

// Row returns the record's values in the FieldNames column order.
func (r Record) Row() []string {
	return []string{
		r.OCLCNumber, r.Title, r.Creator, r.Contributor, r.Publisher,
		r.Date, r.Language, r.Subjects, r.Type, r.Format,
		r.ISBN, r.ISSN, r.Edition, r.URL,
	}
}

// Complete reports whether the record counts as "metadata complete": both
// title and publisher populated.
func (r Record) Complete() bool {
	return r.Title != "" && r.Publisher != ""
}

// BasicRecord builds the minimal fallback record from the source row alone.
// Used when no metadata document is available for an identifier.
func BasicRecord(in Input, oclcNumber string) Record {
	rec := Record{
		OCLCNumber: oclcNumber,
		Title:      in.Title,
		Creator:    in.Author,
	}
	if oclcNumber != "" {
		rec.URL = RecordURLBase + oclcNumber
	}
	return rec
}

// Convert Record to map[string]any for database insertion.
func RecordToMap(r Record) map[string]any {
	return map[string]any{
		"oclc_number": r.OCLCNumber,
		"title":       r.Title,
		"creator":     r.Creator,
		"contributor": r.Contributor,
		"publisher":   r.Publisher,
		"date":        r.Date,
		"language":    r.Language,
		"subjects":    r.Subjects,
		"type":        r.Type,
		"format":      r.Format,
		"isbn":        r.ISBN,
		"issn":        r.ISSN,
		"edition":     r.Edition,
		"url":         r.URL,
	}
}
