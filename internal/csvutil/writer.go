package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/avearchive/avocado/internal/metadata"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteProfessional writes the full 14-column enriched export.
func WriteProfessional(path string, records []metadata.Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	return writeCSV(path, metadata.FieldNames(), rows)
}

// WriteBasic writes the source columns plus whatever OCLC numbers were
// resolved, with no fetched metadata.
func WriteBasic(path string, books []metadata.Input) error {
	rows := make([][]string, 0, len(books))
	for _, book := range books {
		rows = append(rows, []string{book.OCLCNumber, book.Author, book.Title})
	}
	return writeCSV(path, []string{ColumnOCLC, ColumnAuthor, ColumnTitle}, rows)
}

// WriteTemplate writes the starter book list with sample titles.
func WriteTemplate(path string) error {
	rows := make([][]string, 0, len(templateBooks))
	for _, book := range templateBooks {
		rows = append(rows, []string{"", book.Author, book.Title})
	}
	return writeCSV(path, []string{ColumnOCLC, ColumnAuthor, ColumnTitle}, rows)
}

var templateBooks = []metadata.Input{
	{Author: "García Márquez, Gabriel", Title: "Cien años de soledad"},
	{Author: "Allende, Isabel", Title: "La casa de los espíritus"},
	{Author: "Vargas Llosa, Mario", Title: "Conversación en la catedral"},
	{Author: "Borges, Jorge Luis", Title: "Ficciones"},
	{Author: "Cortázar, Julio", Title: "Rayuela"},
	{Author: "Carpentier, Alejo", Title: "El reino de este mundo"},
	{Author: "Fuentes, Carlos", Title: "La muerte de Artemio Cruz"},
	{Author: "Uslar Pietri, Arturo", Title: "Las lanzas coloradas"},
	{Author: "Gallegos, Rómulo", Title: "Doña Bárbara"},
	{Author: "Díaz Rodríguez, Manuel", Title: "Ídolos rotos"},
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
