// Package pipeline orchestrates one enrichment run: authenticate, read the
// book list, resolve missing OCLC numbers, download metadata, and write the
// export. The run executes on its own goroutine and reports through an
// event channel; cancellation is a cooperative flag polled between records,
// never mid-call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/avearchive/avocado/internal/csvutil"
	"github.com/avearchive/avocado/internal/fileutil"
	"github.com/avearchive/avocado/internal/metadata"
	"github.com/avearchive/avocado/internal/worldcat"
)

// Progress percentages are partitioned by phase: identifier search spans
// 15-50, metadata download 50-90.
const (
	percentAuthStart    = 5
	percentAuthDone     = 10
	percentInputRead    = 15
	percentSearchSpan   = 35
	percentFetchStart   = 50
	percentFetchSpan    = 40
	percentSaving       = 90
	percentDone         = 100
	defaultRecordDelay  = 300 * time.Millisecond
	statusTitleWidth    = 40
	completeTitleWidth  = 30
	eventChannelBacklog = 16
)

// API is the slice of the WorldCat client the pipeline depends on.
type API interface {
	Authenticate(ctx context.Context, creds worldcat.Credentials) error
	ResolveNumber(ctx context.Context, title, author string) (string, error)
	FetchBib(ctx context.Context, oclcNumber string) (map[string]any, error)
}

// Options configures one run.
type Options struct {
	InputPath   string
	OutputDir   string
	Credentials worldcat.Credentials

	// RecordDelay is the pause after each remote resolution call. Zero
	// means the default; negative disables it (tests).
	RecordDelay time.Duration

	// Now stamps the export filename; defaults to time.Now.
	Now func() time.Time
}

// Pipeline executes one enrichment run. Create a fresh Pipeline per run.
type Pipeline struct {
	client    API
	opts      Options
	state     State
	percent   int
	cancelled atomic.Bool
}

// New creates a pipeline for one run.
func New(client API, opts Options) *Pipeline {
	if opts.RecordDelay == 0 {
		opts.RecordDelay = defaultRecordDelay
	} else if opts.RecordDelay < 0 {
		opts.RecordDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{client: client, opts: opts, state: StateIdle}
}

// Start launches the run on its own goroutine and returns the event
// stream. The channel is closed after the terminal event, so callers can
// simply range over it.
func (p *Pipeline) Start(ctx context.Context) <-chan Event {
	events := make(chan Event, eventChannelBacklog)
	go func() {
		defer close(events)
		p.run(ctx, func(ev Event) { events <- ev })
	}()
	return events
}

// Stop requests cooperative cancellation. The flag is honored before the
// next record; an in-flight network call completes first.
func (p *Pipeline) Stop() {
	p.cancelled.Store(true)
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) run(ctx context.Context, emit func(Event)) {
	status := func(format string, args ...any) {
		emit(Event{Kind: EventStatus, Message: fmt.Sprintf(format, args...)})
	}
	fail := func(err error) {
		p.state = StateErrored
		emit(Event{Kind: EventFailed, Err: err, Message: err.Error()})
	}

	status("AVOCADO Professional - Complete Workflow Started")

	// Phase 1: authentication. One attempt; failure aborts before any
	// record is touched.
	p.state = StateAuthenticating
	status("Phase 1: Authenticating with OCLC...")
	p.progress(emit, percentAuthStart)

	if err := p.client.Authenticate(ctx, p.opts.Credentials); err != nil {
		fail(fmt.Errorf("failed to authenticate with OCLC API: %w", err))
		return
	}
	status("OCLC authentication successful")
	p.progress(emit, percentAuthDone)

	if p.stopRequested(ctx, emit, nil, 0) {
		return
	}

	// Phase 2: read the book list.
	p.state = StateReadingInput
	status("Phase 2: Processing CSV file...")

	books, err := csvutil.ReadBookList(p.opts.InputPath)
	if err != nil {
		fail(fmt.Errorf("error reading CSV: %w", err))
		return
	}
	if len(books) == 0 {
		fail(errors.New("no valid books found in CSV"))
		return
	}

	total := len(books)
	status("Found %d books to process", total)
	p.progress(emit, percentInputRead)

	// Phase 3: resolve missing OCLC numbers.
	p.state = StateResolvingIdentifiers
	status("Phase 3: Searching for OCLC numbers...")

	found := 0
	for i := range books {
		if p.stopRequested(ctx, emit, books[:i], found) {
			return
		}
		book := &books[i]

		status("Processing %d/%d: %s", i+1, total, truncate(book.Title, statusTitleWidth))

		switch {
		case book.OCLCNumber != "":
			status("OCLC already present: %s", book.OCLCNumber)
			found++
		case book.Searchable():
			number, err := p.client.ResolveNumber(ctx, book.Title, book.Author)
			if err != nil {
				if p.stopRequested(ctx, emit, books[:i], found) {
					return
				}
				fail(err)
				return
			}
			book.OCLCNumber = number
			if number != "" {
				status("OCLC found: %s", number)
				found++
			} else {
				status("No OCLC found")
			}
			// Fixed pause after every remote resolution, hit or miss.
			if err := sleepCtx(ctx, p.opts.RecordDelay); err != nil {
				if p.stopRequested(ctx, emit, books[:i+1], found) {
					return
				}
				fail(err)
				return
			}
		default:
			status("Insufficient data for search")
		}

		p.progress(emit, percentInputRead+scale(i+1, total, percentSearchSpan))
	}

	status("Phase 3 complete: %d/%d OCLC numbers found", found, total)

	if p.stopRequested(ctx, emit, books, found) {
		return
	}

	// Phase 4: download metadata for every record with a number. When
	// nothing resolved, short-circuit to the basic export.
	p.state = StateFetchingMetadata

	var withNumber []metadata.Input
	for _, book := range books {
		if book.OCLCNumber != "" {
			withNumber = append(withNumber, book)
		}
	}

	if len(withNumber) == 0 {
		status("No OCLC numbers to download metadata")
		p.saveBasic(emit, books, total)
		return
	}

	status("Phase 4: Downloading complete metadata...")
	p.progress(emit, percentFetchStart)

	records := make([]metadata.Record, 0, len(withNumber))
	complete := 0
	for i, book := range withNumber {
		if p.stopRequested(ctx, emit, nil, found) {
			return
		}

		status("Downloading metadata %d/%d: OCLC %s", i+1, len(withNumber), book.OCLCNumber)

		var record metadata.Record
		doc, err := p.client.FetchBib(ctx, book.OCLCNumber)
		if err != nil {
			if ctx.Err() != nil {
				if p.stopRequested(ctx, emit, nil, found) {
					return
				}
				fail(ctx.Err())
				return
			}
			// Recoverable: degrade to the minimal record and move on.
			status("Error in metadata: %v", err)
			record = metadata.BasicRecord(book, book.OCLCNumber)
		} else {
			record = metadata.Extract(doc, book.OCLCNumber, book)
		}
		records = append(records, record)

		if record.Complete() {
			status("Complete: %s", truncate(record.Title, completeTitleWidth))
			complete++
		} else {
			status("Partial metadata")
		}

		p.progress(emit, percentFetchStart+scale(i+1, len(withNumber), percentFetchSpan))
	}

	// Phase 5: save.
	p.state = StateSaving
	status("Phase 5: Saving final file...")
	p.progress(emit, percentSaving)

	outputFile := fileutil.ExportPath(p.opts.OutputDir, p.opts.InputPath, fileutil.ExportProfessional, p.opts.Now())
	if err := p.writeExport(outputFile, func(path string) error {
		return csvutil.WriteProfessional(path, records)
	}); err != nil {
		fail(err)
		return
	}

	p.progress(emit, percentDone)
	status("COMPLETE WORKFLOW FINISHED!")
	status("Total: %d | OCLC: %d | Metadata: %d", len(records), found, complete)

	p.state = StateCompleted
	emit(Event{Kind: EventCompleted, Result: &Result{
		OutputFile:       outputFile,
		Total:            len(records),
		IdentifiersFound: found,
		MetadataComplete: complete,
		Records:          records,
	}})
}

// saveBasic writes the no-metadata export and completes the run.
func (p *Pipeline) saveBasic(emit func(Event), books []metadata.Input, total int) {
	p.state = StateSaving
	outputFile := fileutil.ExportPath(p.opts.OutputDir, p.opts.InputPath, fileutil.ExportBasic, p.opts.Now())
	if err := p.writeExport(outputFile, func(path string) error {
		return csvutil.WriteBasic(path, books)
	}); err != nil {
		p.state = StateErrored
		emit(Event{Kind: EventFailed, Err: err, Message: err.Error()})
		return
	}

	p.progress(emit, percentDone)
	p.state = StateCompleted
	emit(Event{Kind: EventCompleted, Result: &Result{
		OutputFile: outputFile,
		Basic:      true,
		Total:      total,
	}})
}

// stopRequested polls the cancellation flag and the context. On
// cancellation the run halts immediately; partial results are discarded
// unless no identifier was resolved yet, in which case the rows processed
// so far are still written as a basic export.
func (p *Pipeline) stopRequested(ctx context.Context, emit func(Event), processed []metadata.Input, found int) bool {
	if !p.cancelled.Load() && ctx.Err() == nil {
		return false
	}

	p.state = StateCancelled
	ev := Event{Kind: EventCancelled, Message: "Processing stopped by user"}

	if found == 0 && len(processed) > 0 {
		outputFile := fileutil.ExportPath(p.opts.OutputDir, p.opts.InputPath, fileutil.ExportBasic, p.opts.Now())
		if err := p.writeExport(outputFile, func(path string) error {
			return csvutil.WriteBasic(path, processed)
		}); err == nil {
			ev.Result = &Result{OutputFile: outputFile, Basic: true, Total: len(processed)}
		}
	}

	emit(ev)
	return true
}

func (p *Pipeline) writeExport(outputFile string, write func(path string) error) error {
	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	if err := write(outputFile); err != nil {
		return fmt.Errorf("error saving results: %w", err)
	}
	return nil
}

// progress emits a percentage, never letting it regress.
func (p *Pipeline) progress(emit func(Event), percent int) {
	if percent <= p.percent {
		return
	}
	if percent > percentDone {
		percent = percentDone
	}
	p.percent = percent
	emit(Event{Kind: EventProgress, Percent: percent})
}

func scale(done, total, span int) int {
	if total == 0 {
		return span
	}
	return done * span / total
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
