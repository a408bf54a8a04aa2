package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avearchive/avocado/internal/config"
	"github.com/avearchive/avocado/internal/csvutil"
	"github.com/avearchive/avocado/internal/fileutil"
	"github.com/avearchive/avocado/internal/metadata"
	"github.com/avearchive/avocado/internal/pipeline"
	"github.com/avearchive/avocado/internal/worldcat"
)

// LookupWithParams fetches metadata for every OCLC number in the input
// CSV, skipping the identifier search entirely. Rows without a numeric
// OCLC value are ignored.
func LookupWithParams(ctx context.Context, opts Options) error {
	if !config.HasCredentials() {
		return fmt.Errorf("OCLC credentials not configured (set OCLC_WSKEY and OCLC_WSSECRET)")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.OutputDir
	}

	numbers, err := csvutil.ReadOCLCNumbers(opts.Input)
	if err != nil {
		return err
	}
	if len(numbers) == 0 {
		return fmt.Errorf("no OCLC numbers found in CSV")
	}
	slog.Info("Found OCLC numbers to look up", "count", len(numbers))

	client := newClient()
	if err := client.Authenticate(ctx, worldcat.Credentials{
		Key:    config.WSKey,
		Secret: config.WSSecret,
	}); err != nil {
		return err
	}

	records := make([]metadata.Record, 0, len(numbers))
	complete := 0
	for i, number := range numbers {
		slog.Info("Downloading metadata", "record", fmt.Sprintf("%d/%d", i+1, len(numbers)), "oclc", number)

		var record metadata.Record
		doc, err := client.FetchBib(ctx, number)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Error in metadata", "oclc", number, "error", err)
			record = metadata.BasicRecord(metadata.Input{OCLCNumber: number}, number)
		} else {
			record = metadata.Extract(doc, number, metadata.Input{OCLCNumber: number})
		}
		if record.Complete() {
			complete++
		}
		records = append(records, record)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	outputFile := fileutil.ExportPath(opts.OutputDir, opts.Input, fileutil.ExportProfessional, time.Now())
	if err := csvutil.WriteProfessional(outputFile, records); err != nil {
		return fmt.Errorf("error saving results: %w", err)
	}

	slog.Info("Export saved",
		"file", outputFile,
		"total", len(records),
		"metadataComplete", complete)

	result := &pipeline.Result{
		OutputFile:       outputFile,
		Total:            len(records),
		IdentifiersFound: len(records),
		MetadataComplete: complete,
		Records:          records,
	}
	return writeSecondaryOutputs(opts, result)
}
