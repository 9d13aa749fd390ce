package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitegauge/sitegauge/internal/config"
	"github.com/sitegauge/sitegauge/internal/health"
	"github.com/sitegauge/sitegauge/internal/history"
	"github.com/sitegauge/sitegauge/internal/metrics"
	"github.com/sitegauge/sitegauge/internal/monitor"
	"github.com/sitegauge/sitegauge/internal/probe"
	"github.com/sitegauge/sitegauge/internal/publish"
	"github.com/sitegauge/sitegauge/internal/render"
)

// opts collects every CLI flag. Flags that were explicitly set override
// the corresponding config-file values in buildConfig.
type opts struct {
	configPath string

	url           string
	timeoutSec    float64
	probeInterval int
	userAgent     string
	authorization string
	insecure      bool

	latencyThreshold   float64
	errorRateThreshold float64
	deviationThreshold float64

	dynamoTable string
	awsRegion   string
	sqlitePath  string

	jsonName        string
	htmlName        string
	s3Bucket        string
	tzOffset        float64
	tzCaption       string
	fontFile        string
	metricsTextfile string
	debug           bool

	// render subcommand
	renderInput  string
	renderOutput string

	// verify subcommand
	verifyHealthy int
}

var flags opts

var rootCmd = &cobra.Command{
	Use:           "sitegauge",
	Short:         "Continuous website health monitor",
	Long:          "sitegauge probes a target on a fixed cadence, keeps rolling latency and error statistics, and publishes JSON/HTML/PNG status artifacts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the monitoring loop",
	RunE:  runMonitor,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a history JSON file to a timeline PNG and exit",
	RunE:  runRender,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every persisted history row and exit",
	RunE:  runDump,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Write one test record to the history backend and exit",
	RunE:  runVerify,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "optional YAML config file")
	pf.StringVar(&flags.dynamoTable, "dynamo-table", "", "DynamoDB table for history records")
	pf.StringVar(&flags.awsRegion, "aws-region", "", "AWS region for DynamoDB/S3")
	pf.StringVar(&flags.sqlitePath, "sqlite-path", "", "SQLite database path for history records")
	pf.StringVar(&flags.jsonName, "save-name-json", config.DefaultJSONName, "blob/file name for the JSON artifact")
	pf.StringVar(&flags.htmlName, "save-name-html", config.DefaultHTMLName, "blob/file name for the HTML artifact")
	pf.BoolVar(&flags.debug, "debug", false, "verbose per-tick diagnostics")

	mf := monitorCmd.Flags()
	mf.StringVar(&flags.url, "url", "", "URL of the website to monitor")
	mf.Float64Var(&flags.timeoutSec, "timeout", config.DefaultTimeout.Seconds(), "request timeout in seconds")
	mf.IntVar(&flags.probeInterval, "probe-interval", config.DefaultProbeInterval, "seconds between probes (1-60)")
	mf.StringVar(&flags.userAgent, "user-agent", "", "override the User-Agent header")
	mf.StringVar(&flags.authorization, "authorization", "", "value for the Authorization header")
	mf.BoolVar(&flags.insecure, "insecure-skip-verify", false, "skip TLS certificate verification")
	mf.Float64Var(&flags.latencyThreshold, "latency-threshold", config.DefaultLatencyThreshold, "average latency threshold in seconds")
	mf.Float64Var(&flags.errorRateThreshold, "error-rate-threshold", config.DefaultErrorRateThreshold, "error rate threshold in percent")
	mf.Float64Var(&flags.deviationThreshold, "deviation-threshold", config.DefaultDeviationThreshold, "standard deviation threshold in seconds")
	mf.StringVar(&flags.s3Bucket, "s3-bucket", "", "S3 bucket to publish artifacts to")
	mf.Float64Var(&flags.tzOffset, "tz-offset", 0, "time zone offset in hours for displayed times")
	mf.StringVar(&flags.tzCaption, "tz-caption", config.DefaultTZCaption, "time zone label for displayed times")
	mf.StringVar(&flags.fontFile, "font-file", "", "OpenType font for PNG date labels")
	mf.StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write Prometheus textfile metrics to this path")

	rf := renderCmd.Flags()
	rf.StringVar(&flags.renderInput, "input", "", "history JSON file to render")
	rf.StringVar(&flags.renderOutput, "output", "", "output PNG file")
	rf.StringVar(&flags.fontFile, "font-file", "", "OpenType font for PNG date labels")

	vf := verifyCmd.Flags()
	vf.IntVar(&flags.verifyHealthy, "healthy", 1, "health value of the test record (0 or 1)")

	rootCmd.AddCommand(monitorCmd, renderCmd, dumpCmd, verifyCmd)
}

// buildConfig layers explicitly-set flags over the config file (or the
// defaults when no file is given) and validates the result.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	set := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.Root().PersistentFlags().Lookup(name)
		}
		return f != nil && f.Changed
	}

	if set("url") {
		cfg.Target.URL = flags.url
	}
	if set("timeout") {
		cfg.Target.Timeout = time.Duration(flags.timeoutSec * float64(time.Second))
	}
	if set("probe-interval") {
		cfg.Target.ProbeInterval = flags.probeInterval
	}
	if set("user-agent") {
		cfg.Target.UserAgent = flags.userAgent
	}
	if set("authorization") {
		cfg.Target.Authorization = flags.authorization
	}
	if set("insecure-skip-verify") {
		cfg.Target.InsecureSkipVerify = flags.insecure
	}
	if set("latency-threshold") {
		cfg.Thresholds.Latency = flags.latencyThreshold
	}
	if set("error-rate-threshold") {
		cfg.Thresholds.ErrorRate = flags.errorRateThreshold
	}
	if set("deviation-threshold") {
		cfg.Thresholds.Deviation = flags.deviationThreshold
	}
	if set("dynamo-table") {
		cfg.Storage.DynamoTable = flags.dynamoTable
	}
	if set("aws-region") {
		cfg.Storage.AWSRegion = flags.awsRegion
	}
	if set("sqlite-path") {
		cfg.Storage.SQLitePath = flags.sqlitePath
	}
	if set("save-name-json") {
		cfg.Output.JSONName = flags.jsonName
	}
	if set("save-name-html") {
		cfg.Output.HTMLName = flags.htmlName
	}
	if set("s3-bucket") {
		cfg.Output.S3Bucket = flags.s3Bucket
	}
	if set("tz-offset") {
		cfg.Output.TZOffset = flags.tzOffset
	}
	if set("tz-caption") {
		cfg.Output.TZCaption = flags.tzCaption
	}
	if set("font-file") {
		cfg.Output.FontFile = flags.fontFile
	}
	if set("metrics-textfile") {
		cfg.Output.MetricsTextfile = flags.metricsTextfile
	}
	if set("debug") {
		cfg.Output.Debug = flags.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// openStore builds the history backend the config selects. A backend
// that cannot be initialized is fatal: without durable history the
// monitor has nothing meaningful to publish.
func openStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.Storage.Backend() {
	case config.BackendDynamo:
		slog.Info("history: using DynamoDB backend",
			"table", cfg.Storage.DynamoTable, "region", cfg.Storage.AWSRegion)
		return history.NewDynamoStore(ctx, cfg.Storage.AWSRegion, cfg.Storage.DynamoTable)
	case config.BackendSQLite:
		slog.Info("history: using SQLite backend", "path", cfg.Storage.SQLitePath)
		return history.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		path := cfg.Output.HistoryFile()
		slog.Info("history: using local JSON file backend", "path", path)
		return history.NewJSONFileStore(path, cfg.Window.Retention), nil
	}
}

// buildPublisher selects the artifact sink. An S3 sink that cannot be
// built degrades to local files instead of aborting the monitor.
func buildPublisher(ctx context.Context, cfg *config.Config, names publish.Names) publish.Publisher {
	if cfg.Output.S3Bucket == "" {
		return publish.NewFilePublisher(names)
	}
	pub, err := publish.NewS3Publisher(ctx, cfg.Storage.AWSRegion, cfg.Output.S3Bucket, names)
	if err != nil {
		slog.Warn("publish: S3 unavailable, falling back to local files",
			"bucket", cfg.Output.S3Bucket, "err", err)
		return publish.NewFilePublisher(names)
	}
	slog.Info("publish: using S3 sink", "bucket", cfg.Output.S3Bucket)
	return pub
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Target.URL == "" {
		return fmt.Errorf("config: target.url is required (--url)")
	}
	if cfg.Output.Debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	names := publish.DeriveNames(cfg.Output.JSONName, cfg.Output.HTMLName)
	pub := buildPublisher(ctx, cfg, names)
	renderer := render.New(cfg.Window.Retention, cfg.Output.FontFile)

	var textfile *metrics.TextfileWriter
	if cfg.Output.MetricsTextfile != "" {
		textfile = metrics.NewTextfileWriter(cfg.Output.MetricsTextfile)
	}

	m := monitor.New(cfg, probe.New(cfg.Target, cfg.Output.Debug), store, pub, renderer, textfile)

	if flags.configPath != "" {
		go func() {
			err := config.Watch(ctx, flags.configPath, func(updated *config.Config) {
				m.UpdateThresholds(health.Thresholds{
					Latency:   updated.Thresholds.Latency,
					ErrorRate: updated.Thresholds.ErrorRate,
					Deviation: updated.Thresholds.Deviation,
				})
			})
			if err != nil {
				slog.Error("config: watcher stopped", "err", err)
			}
		}()
	}

	return m.Run(ctx)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if flags.renderInput == "" || flags.renderOutput == "" {
		return fmt.Errorf("render: --input and --output are required")
	}

	store := history.NewJSONFileStore(flags.renderInput, cfg.Window.Retention)
	records, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	timeline := history.Trim(records, cfg.Window.Retention)

	renderer := render.New(cfg.Window.Retention, cfg.Output.FontFile)
	if err := os.WriteFile(flags.renderOutput, renderer.Render(timeline), 0o644); err != nil {
		return fmt.Errorf("render: write %s: %w", flags.renderOutput, err)
	}
	slog.Info("render: wrote timeline", "input", flags.renderInput,
		"output", flags.renderOutput, "records", len(timeline))
	return nil
}

func runDump(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	return store.ListRaw(ctx, os.Stdout)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if flags.verifyHealthy != 0 && flags.verifyHealthy != 1 {
		return fmt.Errorf("verify: --healthy must be 0 or 1")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	rec := history.Record{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Healthy:   flags.verifyHealthy == 1,
	}
	if err := store.Append(ctx, rec); err != nil {
		return err
	}
	slog.Info("verify: test record written",
		"backend", cfg.Storage.Backend(), "healthy", flags.verifyHealthy)
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
