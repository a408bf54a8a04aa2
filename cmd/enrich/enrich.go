// Package enrich implements the WorldCat workflows behind the CLI: the
// full enrichment run, direct lookups by OCLC number, and the
// connectivity check.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/avearchive/avocado/internal/config"
	"github.com/avearchive/avocado/internal/datastore"
	"github.com/avearchive/avocado/internal/fileutil"
	"github.com/avearchive/avocado/internal/pipeline"
	"github.com/avearchive/avocado/internal/tui"
	"github.com/avearchive/avocado/internal/worldcat"
)

// Overridable for testing
var (
	newClient   = func() pipeline.API { return worldcat.NewClient() }
	runProgress = tui.RunProgress
)

// Options for one enrichment run.
type Options struct {
	Input       string
	OutputDir   string
	JSON        bool
	JSONOutput  string
	Datasette   bool
	DatasetteDB string
	Interactive bool
}

// EnrichWithParams runs the complete workflow: authenticate, resolve
// missing OCLC numbers, download metadata, and write the export.
func EnrichWithParams(opts Options) error {
	if !config.HasCredentials() {
		return fmt.Errorf("OCLC credentials not configured (set OCLC_WSKEY and OCLC_WSSECRET)")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.OutputDir
	}

	p := pipeline.New(newClient(), pipeline.Options{
		InputPath: opts.Input,
		OutputDir: opts.OutputDir,
		Credentials: worldcat.Credentials{
			Key:    config.WSKey,
			Secret: config.WSSecret,
		},
	})

	events := p.Start(context.Background())

	var outcome tui.Outcome
	if opts.Interactive {
		var err error
		outcome, err = runProgress(events, p.Stop)
		if err != nil {
			return fmt.Errorf("progress UI failed: %w", err)
		}
	} else {
		outcome = drainEvents(events, p.Stop)
	}

	if outcome.Err != nil {
		return outcome.Err
	}
	if outcome.Cancelled {
		slog.Warn("Processing stopped by user")
		if outcome.Result != nil {
			slog.Info("Partial export saved", "file", outcome.Result.OutputFile)
		}
		return nil
	}

	result := outcome.Result
	if result == nil {
		return fmt.Errorf("run finished without a result")
	}

	slog.Info("Export saved",
		"file", result.OutputFile,
		"total", result.Total,
		"oclcFound", result.IdentifiersFound,
		"metadataComplete", result.MetadataComplete)

	return writeSecondaryOutputs(opts, result)
}

// writeSecondaryOutputs handles the optional JSON and SQLite sinks. Both
// only apply to professional exports; a basic export has no metadata
// worth mirroring.
func writeSecondaryOutputs(opts Options, result *pipeline.Result) error {
	if result.Basic || len(result.Records) == 0 {
		return nil
	}

	if opts.JSON {
		jsonPath := opts.JSONOutput
		if jsonPath == "" {
			jsonPath = result.OutputFile + ".json"
		}
		written, err := fileutil.WriteJSONFile(result.Records, jsonPath, config.OverwriteFiles)
		if err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		if written {
			slog.Info("JSON export saved", "file", jsonPath)
		}
	}

	if opts.Datasette {
		if err := datastore.WriteRecords(opts.DatasetteDB, result.Records); err != nil {
			return fmt.Errorf("error writing records database: %w", err)
		}
		slog.Info("Records database updated", "file", opts.DatasetteDB)
	}

	return nil
}

// drainEvents consumes the run's event stream without a TUI, logging
// status lines as they arrive. An interrupt signal requests a cooperative
// stop; the run still finishes with its own terminal event.
func drainEvents(events <-chan pipeline.Event, stop func()) tui.Outcome {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	var outcome tui.Outcome
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return outcome
			}
			switch ev.Kind {
			case pipeline.EventStatus:
				slog.Info(ev.Message)
			case pipeline.EventProgress:
				slog.Debug("Progress", "percent", ev.Percent)
			case pipeline.EventCompleted:
				outcome = tui.Outcome{Result: ev.Result}
			case pipeline.EventCancelled:
				outcome = tui.Outcome{Result: ev.Result, Cancelled: true}
			case pipeline.EventFailed:
				outcome = tui.Outcome{Err: ev.Err}
			}
		case <-sig:
			slog.Warn("Interrupt received, stopping after current record")
			stop()
		}
	}
}

// Ping verifies connectivity and credentials with a single token request.
func Ping(ctx context.Context) error {
	if !config.HasCredentials() {
		return fmt.Errorf("OCLC credentials not configured (set OCLC_WSKEY and OCLC_WSSECRET)")
	}
	client := newClient()
	if err := client.Authenticate(ctx, worldcat.Credentials{
		Key:    config.WSKey,
		Secret: config.WSSecret,
	}); err != nil {
		return err
	}
	slog.Info("OCLC authentication successful")
	return nil
}
