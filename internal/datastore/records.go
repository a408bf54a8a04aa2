package datastore

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/avearchive/avocado/internal/metadata"
)

const recordsTable = "enriched_records"

const recordsSchema = `CREATE TABLE IF NOT EXISTS enriched_records (
		oclc_number TEXT,
		title TEXT,
		creator TEXT,
		contributor TEXT,
		publisher TEXT,
		date TEXT,
		language TEXT,
		subjects TEXT,
		type TEXT,
		format TEXT,
		isbn TEXT,
		issn TEXT,
		edition TEXT,
		url TEXT
	)`

// WriteRecords stores enriched records in a local SQLite database so they
// can be queried (or served with Datasette) after the run.
func WriteRecords(dbPath string, records []metadata.Record) error {
	if len(records) == 0 {
		return nil
	}

	store := NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}()

	if err := store.CreateTable(recordsSchema); err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, metadata.RecordToMap(rec))
	}

	if err := store.BatchInsert(recordsTable, rows); err != nil {
		return errors.Join(errors.New("failed to store enriched records"), err)
	}

	slog.Info("Stored records in database", "count", len(rows), "db", dbPath)
	return nil
}
