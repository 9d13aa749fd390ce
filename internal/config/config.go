package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file
// and not overridden on the command line.
const (
	DefaultTimeout            = 2 * time.Second
	DefaultProbeInterval      = 1
	DefaultWindowSize         = 240
	DefaultRetention          = 60 * 24 * 3
	DefaultPruneCount         = 60
	DefaultLatencyThreshold   = 0.5
	DefaultErrorRateThreshold = 5.0
	DefaultDeviationThreshold = 0.3
	DefaultJSONName           = "results.json"
	DefaultHTMLName           = "index.html"
	DefaultTZCaption          = "UTC"
)

// Config is the complete configuration for one monitor process.
// It is constructed once at startup and passed explicitly into each
// component; nothing reads it as mutable global state.
type Config struct {
	Target     TargetConfig    `yaml:"target"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Window     WindowConfig    `yaml:"window"`
	Storage    StorageConfig   `yaml:"storage"`
	Output     OutputConfig    `yaml:"output"`
}

// TargetConfig describes the probed endpoint.
type TargetConfig struct {
	// URL is the monitored address. Must start with http:// or https://.
	URL string `yaml:"url"`

	// Timeout bounds each probe request. Failed probes are charged this
	// value as their adjusted latency.
	Timeout time.Duration `yaml:"timeout"`

	// ProbeInterval is the seconds between probes (1–60). Each probe
	// outcome is replicated into this many per-second window samples.
	ProbeInterval int `yaml:"probe_interval"`

	// UserAgent overrides the User-Agent header when non-empty.
	UserAgent string `yaml:"user_agent"`

	// Authorization is sent verbatim as the Authorization header.
	Authorization string `yaml:"authorization"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ThresholdConfig holds the classifier bounds. All comparisons against
// them are inclusive: a statistic exactly at its threshold is healthy.
type ThresholdConfig struct {
	// Latency is the ceiling, in seconds, for both the mean effective
	// and mean adjusted latency of the window.
	Latency float64 `yaml:"latency"`

	// ErrorRate is the ceiling for the window error rate in percent.
	ErrorRate float64 `yaml:"error_rate"`

	// Deviation is the ceiling, in seconds, for the population standard
	// deviation of both latency series.
	Deviation float64 `yaml:"deviation"`
}

// WindowConfig sizes the rolling statistics machinery.
type WindowConfig struct {
	// Size is the number of per-second samples evaluated each tick.
	Size int `yaml:"size"`

	// Retention caps the persisted timeline length. It is also the
	// pixel width of the rendered history image.
	Retention int `yaml:"retention"`

	// PruneCount is how many of the oldest samples are dropped from the
	// in-memory buffer after each evaluation.
	PruneCount int `yaml:"prune_count"`
}

// StorageConfig selects the history backend. DynamoDB wins when both
// table and region are set, then SQLite, then the local JSON file.
type StorageConfig struct {
	// DynamoTable is the DynamoDB table name for health records.
	DynamoTable string `yaml:"dynamo_table"`

	// AWSRegion is the region the table lives in.
	AWSRegion string `yaml:"aws_region"`

	// SQLitePath is the filesystem path of the SQLite database.
	SQLitePath string `yaml:"sqlite_path"`
}

// Backend names returned by StorageConfig.Backend.
const (
	BackendDynamo = "dynamodb"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Backend returns the name of the selected history backend.
func (s StorageConfig) Backend() string {
	switch {
	case s.DynamoTable != "" && s.AWSRegion != "":
		return BackendDynamo
	case s.SQLitePath != "":
		return BackendSQLite
	default:
		return BackendFile
	}
}

// OutputConfig controls published artifacts and their presentation.
type OutputConfig struct {
	// JSONName is the blob/file name of the statistics artifact.
	JSONName string `yaml:"json_name"`

	// HTMLName is the blob/file name of the status page. The PNG name
	// and the local history file name are derived from it.
	HTMLName string `yaml:"html_name"`

	// S3Bucket enables the blob publisher when non-empty. If the S3
	// client cannot be built the publisher degrades to local files.
	S3Bucket string `yaml:"s3_bucket"`

	// TZOffset shifts displayed timestamps by this many hours.
	TZOffset float64 `yaml:"tz_offset"`

	// TZCaption is the label appended to displayed timestamps.
	TZCaption string `yaml:"tz_caption"`

	// FontFile is an optional OpenType font for date labels in the
	// timeline image. The embedded bitmap face is used when absent.
	FontFile string `yaml:"font_file"`

	// MetricsTextfile, when set, receives the current window statistics
	// in Prometheus text exposition format each evaluation.
	MetricsTextfile string `yaml:"metrics_textfile"`

	// Debug enables verbose per-tick diagnostics and error-body capture.
	Debug bool `yaml:"debug"`
}

// HistoryFile returns the local JSON history path derived from HTMLName,
// e.g. "index.html" -> "index-history.json".
func (o OutputConfig) HistoryFile() string {
	base := strings.TrimSuffix(o.HTMLName, filepath.Ext(o.HTMLName))
	return base + "-history.json"
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Timeout:       DefaultTimeout,
			ProbeInterval: DefaultProbeInterval,
		},
		Thresholds: ThresholdConfig{
			Latency:   DefaultLatencyThreshold,
			ErrorRate: DefaultErrorRateThreshold,
			Deviation: DefaultDeviationThreshold,
		},
		Window: WindowConfig{
			Size:       DefaultWindowSize,
			Retention:  DefaultRetention,
			PruneCount: DefaultPruneCount,
		},
		Output: OutputConfig{
			JSONName:  DefaultJSONName,
			HTMLName:  DefaultHTMLName,
			TZCaption: DefaultTZCaption,
		},
	}
}

// Validate checks required fields and structural constraints.
func (c *Config) Validate() error {
	if c.Target.URL != "" &&
		!strings.HasPrefix(c.Target.URL, "http://") &&
		!strings.HasPrefix(c.Target.URL, "https://") {
		return fmt.Errorf("target.url must start with http:// or https://")
	}
	if c.Target.Timeout <= 0 {
		return fmt.Errorf("target.timeout must be positive")
	}
	if c.Target.ProbeInterval < 1 || c.Target.ProbeInterval > 60 {
		return fmt.Errorf("target.probe_interval must be between 1 and 60 seconds")
	}
	if c.Thresholds.Latency < 0 {
		return fmt.Errorf("thresholds.latency must not be negative")
	}
	if c.Thresholds.ErrorRate < 0 {
		return fmt.Errorf("thresholds.error_rate must not be negative")
	}
	if c.Thresholds.Deviation < 0 {
		return fmt.Errorf("thresholds.deviation must not be negative")
	}
	if c.Window.Size < 2 {
		return fmt.Errorf("window.size must be at least 2")
	}
	if c.Window.Retention < 1 {
		return fmt.Errorf("window.retention must be at least 1")
	}
	if c.Window.PruneCount < 1 {
		return fmt.Errorf("window.prune_count must be at least 1")
	}
	if c.Storage.DynamoTable != "" && c.Storage.AWSRegion == "" {
		return fmt.Errorf("storage.aws_region is required with storage.dynamo_table")
	}
	if c.Output.JSONName == "" || c.Output.HTMLName == "" {
		return fmt.Errorf("output.json_name and output.html_name are required")
	}
	return nil
}
