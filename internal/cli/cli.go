package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/ae-data/internal/config"
	"github.com/pfrederiksen/ae-data/internal/logger"
	"github.com/pfrederiksen/ae-data/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

type options struct {
	configFile   string
	baseURL      string
	startYear    int
	endYear      int
	years        []string
	noProbe      bool
	dataDir      string
	outputDir    string
	orgCodes     []string
	mode         string
	timeout      time.Duration
	rate         float64
	userAgent    string
	logLevel     string
	xlsx         bool
	useManifest  bool
	skipDownload bool
	format       string
	verbose      bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ae-data",
		Short: "Download and combine NHS England monthly A&E statistics",
		Long: `Scrapes the NHS England A&E attendances and emergency admissions pages
for monthly CSV files, downloads them into a local cache and combines them
into a national file and a North Central London file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "YAML config file")
	f.StringVar(&opts.baseURL, "base-url", "", "Statistics site base URL")
	f.IntVar(&opts.startYear, "start-year", 0, "First fiscal year to scrape (e.g. 2015 for 2015-16)")
	f.IntVar(&opts.endYear, "end-year", 0, "Last fiscal year to scrape (default: current year)")
	f.StringSliceVar(&opts.years, "years", nil, "Explicit fiscal year labels, e.g. 2022-23,2023-24")
	f.BoolVar(&opts.noProbe, "no-probe", false, "Fetch every yearly page without a HEAD check")
	f.StringVar(&opts.dataDir, "data-dir", "", "Directory for downloaded CSV files")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory for combined output files")
	f.StringSliceVar(&opts.orgCodes, "org-codes", nil, "Org codes kept in the NCL output")
	f.StringVar(&opts.mode, "mode", "", "Output mode: national or combined")
	f.DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout per request")
	f.Float64Var(&opts.rate, "rate", 0, "Maximum downloads per second (0 = unlimited)")
	f.StringVar(&opts.userAgent, "user-agent", "", "HTTP User-Agent header")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.BoolVar(&opts.xlsx, "xlsx", false, "Also write an Excel workbook of the outputs")
	f.BoolVar(&opts.useManifest, "manifest", false, "Combine only files recorded in the download manifest")
	f.BoolVar(&opts.skipDownload, "skip-download", false, "Combine the existing cache without network access")
	f.StringVar(&opts.format, "format", "text", "Summary format: text or json")
	f.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging and include metrics in the summary")

	return cmd
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if set("start-year") {
		cfg.StartYear = opts.startYear
	}
	if set("end-year") {
		cfg.EndYear = opts.endYear
	}
	if set("years") {
		cfg.Years = append([]string(nil), opts.years...)
	}
	if set("no-probe") {
		cfg.Probe = !opts.noProbe
	}
	if set("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if set("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if set("org-codes") {
		cfg.OrgCodes = append([]string(nil), opts.orgCodes...)
	}
	if set("mode") {
		cfg.Mode = opts.mode
	}
	if set("timeout") {
		cfg.Timeout = opts.timeout
	}
	if set("rate") {
		cfg.RequestsPerSecond = opts.rate
	}
	if set("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if set("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if set("xlsx") {
		cfg.XLSX = opts.xlsx
	}
	if set("manifest") {
		cfg.UseManifest = opts.useManifest
	}
	if set("skip-download") {
		cfg.SkipDownload = opts.skipDownload
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	cfg.Normalize()
}

// loadConfig resolves the configuration for a command invocation. Validation
// runs once, after flags have been applied.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	applyFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *options) error {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	logger.DefaultMetrics().Reset()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	p, err := pipeline.New(cfg, progressWriter(cmd, format))
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	result := &OutputResult{Summary: summary}
	if opts.verbose {
		result.Metrics = logger.GetMetricsSnapshot()
	}
	if err := WriteOutput(out, result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// progressWriter keeps stdout clean for JSON consumers by routing progress
// lines to stderr.
func progressWriter(cmd *cobra.Command, format OutputFormat) io.Writer {
	if format == FormatJSON {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
