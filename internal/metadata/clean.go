package metadata

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes free text coming out of bib documents: Unicode NFC
// composition, whitespace collapse, trim. Safe on empty input.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}
