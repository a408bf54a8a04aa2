package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avearchive/avocado/internal/config"
	"github.com/avearchive/avocado/internal/pipeline"
	"github.com/avearchive/avocado/internal/worldcat"
)

type stubClient struct {
	authErr    error
	numbers    map[string]string
	docs       map[string]map[string]any
	fetchErr   error
	fetchCalls []string
}

func (s *stubClient) Authenticate(ctx context.Context, creds worldcat.Credentials) error {
	return s.authErr
}

func (s *stubClient) ResolveNumber(ctx context.Context, title, author string) (string, error) {
	return s.numbers[title], nil
}

func (s *stubClient) FetchBib(ctx context.Context, oclcNumber string) (map[string]any, error) {
	s.fetchCalls = append(s.fetchCalls, oclcNumber)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if doc, ok := s.docs[oclcNumber]; ok {
		return doc, nil
	}
	return map[string]any{}, nil
}

func withStubClient(t *testing.T, stub *stubClient) {
	t.Helper()
	origClient := newClient
	t.Cleanup(func() { newClient = origClient })
	newClient = func() pipeline.API { return stub }
}

func withCredentials(t *testing.T) {
	t.Helper()
	origKey, origSecret := config.WSKey, config.WSSecret
	t.Cleanup(func() { config.WSKey, config.WSSecret = origKey, origSecret })
	config.WSKey, config.WSSecret = "test-key", "test-secret"
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func exportNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnrichRequiresCredentials(t *testing.T) {
	origKey, origSecret := config.WSKey, config.WSSecret
	t.Cleanup(func() { config.WSKey, config.WSSecret = origKey, origSecret })
	config.WSKey, config.WSSecret = "", ""

	err := EnrichWithParams(Options{Input: "books.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials not configured")
}

func TestEnrichNonInteractiveRun(t *testing.T) {
	withCredentials(t)
	withStubClient(t, &stubClient{
		docs: map[string]map[string]any{
			"7": {
				"title": map[string]any{
					"mainTitles": []any{map[string]any{"text": "Ficciones"}},
				},
				"publishers": []any{map[string]any{
					"publisherName": map[string]any{"text": "Sur"},
				}},
			},
		},
	})

	dir := t.TempDir()
	input := writeCSV(t, dir, "books.csv", "OCLC #,Author,Title\n7,\"Borges, Jorge Luis\",Ficciones\n")
	outDir := filepath.Join(dir, "out")

	err := EnrichWithParams(Options{
		Input:       input,
		OutputDir:   outDir,
		Interactive: false,
	})
	require.NoError(t, err)

	names := exportNames(t, outDir)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "_avocado_professional_")

	data, err := os.ReadFile(filepath.Join(outDir, names[0]))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ficciones")
	assert.Contains(t, string(data), "Sur")
}

func TestEnrichWritesJSONOutput(t *testing.T) {
	withCredentials(t)
	withStubClient(t, &stubClient{
		docs: map[string]map[string]any{"7": {}},
	})

	dir := t.TempDir()
	input := writeCSV(t, dir, "books.csv", "OCLC #,Author,Title\n7,\"Borges, Jorge Luis\",Ficciones\n")
	outDir := filepath.Join(dir, "out")
	jsonPath := filepath.Join(dir, "records.json")

	err := EnrichWithParams(Options{
		Input:      input,
		OutputDir:  outDir,
		JSON:       true,
		JSONOutput: jsonPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ficciones")
}

func TestEnrichPropagatesAuthFailure(t *testing.T) {
	withCredentials(t)
	withStubClient(t, &stubClient{authErr: worldcat.ErrAuthFailed})

	dir := t.TempDir()
	input := writeCSV(t, dir, "books.csv", "OCLC #,Author,Title\n7,\"Borges, Jorge Luis\",Ficciones\n")

	err := EnrichWithParams(Options{
		Input:     input,
		OutputDir: filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, worldcat.ErrAuthFailed)
}

func TestLookupFetchesEveryNumber(t *testing.T) {
	withCredentials(t)
	stub := &stubClient{
		docs: map[string]map[string]any{
			"11": {
				"title": map[string]any{
					"mainTitles": []any{map[string]any{"text": "Rayuela"}},
				},
			},
		},
	}
	withStubClient(t, stub)

	dir := t.TempDir()
	input := writeCSV(t, dir, "numbers.csv",
		"OCLC #,Author,Title\n11,,\n22,,\nnot-a-number,,\n")
	outDir := filepath.Join(dir, "out")

	err := LookupWithParams(context.Background(), Options{
		Input:     input,
		OutputDir: outDir,
	})
	require.NoError(t, err)

	// The non-numeric value is skipped.
	assert.Equal(t, []string{"11", "22"}, stub.fetchCalls)

	names := exportNames(t, outDir)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "_avocado_professional_")
}

func TestLookupFailsWithoutNumbers(t *testing.T) {
	withCredentials(t)
	withStubClient(t, &stubClient{})

	dir := t.TempDir()
	input := writeCSV(t, dir, "numbers.csv", "OCLC #,Author,Title\n,no number,here\n")

	err := LookupWithParams(context.Background(), Options{
		Input:     input,
		OutputDir: filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no OCLC numbers found")
}

func TestDrainEventsMapsTerminalEvents(t *testing.T) {
	events := make(chan pipeline.Event, 4)
	events <- pipeline.Event{Kind: pipeline.EventStatus, Message: "working"}
	events <- pipeline.Event{Kind: pipeline.EventProgress, Percent: 42}
	events <- pipeline.Event{Kind: pipeline.EventCompleted, Result: &pipeline.Result{Total: 2}}
	close(events)

	outcome := drainEvents(events, func() {})
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 2, outcome.Result.Total)
	assert.False(t, outcome.Cancelled)
	assert.NoError(t, outcome.Err)
}

func TestDrainEventsMapsFailure(t *testing.T) {
	events := make(chan pipeline.Event, 2)
	events <- pipeline.Event{Kind: pipeline.EventFailed, Err: errors.New("boom")}
	close(events)

	outcome := drainEvents(events, func() {})
	require.Error(t, outcome.Err)
	assert.True(t, strings.Contains(outcome.Err.Error(), "boom"))
}
