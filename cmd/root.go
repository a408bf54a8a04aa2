package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/avearchive/avocado/cmd/enrich"
	"github.com/avearchive/avocado/internal/config"
	"github.com/avearchive/avocado/internal/csvutil"
	"github.com/avearchive/avocado/internal/fileutil"
)

var (
	runEnrich   = enrich.EnrichWithParams
	runLookup   = enrich.LookupWithParams
	runPing     = enrich.Ping
	runTemplate = csvutil.WriteTemplate
)

// CLI represents the complete command structure for the avocado application
type CLI struct {
	// Global flags
	Overwrite bool `help:"Overwrite existing output files"`

	// Datasette flags
	Datasette   bool   `help:"Mirror enriched records into a SQLite database"`
	DatasetteDB string `help:"Path to SQLite database file" default:"./avocado.db"`

	Enrich   EnrichCmd   `cmd:"" help:"Run the complete enrichment workflow on a book list CSV"`
	Lookup   LookupCmd   `cmd:"" help:"Fetch metadata directly for the OCLC numbers in a CSV"`
	Template TemplateCmd `cmd:"" help:"Write a template input CSV with sample records"`
	Ping     PingCmd     `cmd:"" help:"Verify OCLC API connectivity and credentials"`
}

// EnrichCmd represents the enrich command
type EnrichCmd struct {
	Input         string `short:"f" help:"Path to book list CSV file (columns: OCLC #, Author, Title)"`
	Output        string `short:"o" help:"Directory for export files (defaults to the configured output directory)"`
	JSON          bool   `help:"Also write enriched records as JSON"`
	JSONOutput    string `help:"Path to JSON output file (defaults next to the CSV export)"`
	NoInteractive bool   `help:"Disable the progress TUI and log plain status lines"`
}

// LookupCmd represents the lookup command
type LookupCmd struct {
	Input      string `short:"f" help:"Path to CSV file with OCLC numbers"`
	Output     string `short:"o" help:"Directory for export files (defaults to the configured output directory)"`
	JSON       bool   `help:"Also write enriched records as JSON"`
	JSONOutput string `help:"Path to JSON output file (defaults next to the CSV export)"`
}

// TemplateCmd represents the template command
type TemplateCmd struct {
	Output string `short:"o" help:"Path for the template CSV" default:"./avocado_template.csv"`
}

// PingCmd represents the ping command
type PingCmd struct{}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("avocado"),
		kong.Description("A tool to enrich book lists with bibliographic metadata from OCLC WorldCat."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run(&cli)
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("outputdir", config.DefaultOutputDir())
	viper.SetDefault("overwritefiles", false)

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind the OCLC credential environment variables to config keys
	if err := viper.BindEnv("wskey", "OCLC_WSKEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("wssecret", "OCLC_WSSECRET"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("outputdir", "OUTPUT_DIR"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetOverwriteFiles(cli.Overwrite)

	viper.Set("datasette.enabled", cli.Datasette)
	viper.Set("datasette.dbfile", cli.DatasetteDB)
}

// Run methods for each command

func (e *EnrichCmd) Run(cli *CLI) error {
	input := e.Input
	if input == "" {
		input = viper.GetString("enrich.csvfile")
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or enrich.csvfile in config)")
	}

	return runEnrich(enrich.Options{
		Input:       input,
		OutputDir:   e.Output,
		JSON:        e.JSON,
		JSONOutput:  e.JSONOutput,
		Datasette:   cli.Datasette,
		DatasetteDB: cli.DatasetteDB,
		Interactive: !e.NoInteractive, // Invert: default is interactive
	})
}

func (l *LookupCmd) Run(cli *CLI) error {
	input := l.Input
	if input == "" {
		input = viper.GetString("lookup.csvfile")
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or lookup.csvfile in config)")
	}

	return runLookup(context.Background(), enrich.Options{
		Input:       input,
		OutputDir:   l.Output,
		JSON:        l.JSON,
		JSONOutput:  l.JSONOutput,
		Datasette:   cli.Datasette,
		DatasetteDB: cli.DatasetteDB,
		Interactive: false,
	})
}

func (t *TemplateCmd) Run(_ *CLI) error {
	if fileutil.FileExists(t.Output) && !config.OverwriteFiles {
		return fmt.Errorf("file already exists: %s (use --overwrite to replace)", t.Output)
	}
	if err := runTemplate(t.Output); err != nil {
		return err
	}
	slog.Info("Template written", "file", t.Output)
	return nil
}

func (p *PingCmd) Run(_ *CLI) error {
	return runPing(context.Background())
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
