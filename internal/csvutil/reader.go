// Package csvutil reads the book-list input CSV and writes the basic and
// professional exports. Files are read and written UTF-8 with a BOM so
// accented Latin characters survive spreadsheet round-trips.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/avearchive/avocado/internal/metadata"
)

// Input CSV column names. All three must be present in the header.
const (
	ColumnOCLC   = "OCLC #"
	ColumnAuthor = "Author"
	ColumnTitle  = "Title"
)

// ReadBookList loads the input rows keyed by header name. Rows blank in
// all three columns are dropped; everything else is kept, even when it
// lacks the data needed for a search.
func ReadBookList(path string) ([]metadata.Input, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var books []metadata.Input
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Error reading record", "error", err)
			continue
		}

		book := metadata.Input{
			OCLCNumber: cell(record, columns[ColumnOCLC]),
			Author:     cell(record, columns[ColumnAuthor]),
			Title:      cell(record, columns[ColumnTitle]),
		}
		if !book.Usable() {
			continue
		}
		books = append(books, book)
	}

	return books, nil
}

// ReadOCLCNumbers loads only the digit-valued OCLC numbers from a CSV, for
// the direct metadata lookup flow.
func ReadOCLCNumbers(path string) ([]string, error) {
	books, err := ReadBookList(path)
	if err != nil {
		return nil, err
	}

	var numbers []string
	for _, book := range books {
		if book.OCLCNumber != "" && isDigits(book.OCLCNumber) {
			numbers = append(numbers, book.OCLCNumber)
		}
	}
	return numbers, nil
}

func columnIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			// Tolerate a UTF-8 BOM on the first header cell.
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range []string{ColumnOCLC, ColumnAuthor, ColumnTitle} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV must contain columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
