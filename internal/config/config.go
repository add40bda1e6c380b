package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "zonesheet/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. ZONES_WORKERS.
const EnvPrefix = "ZONES"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Carrier   CarrierConfig   `yaml:"carrier" envconfig:"CARRIER"`
	Grouping  GroupingConfig  `yaml:"grouping" envconfig:"GROUPING"`
	Merge     MergeConfig     `yaml:"merge" envconfig:"MERGE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Locator   LocatorConfig   `yaml:"locator" envconfig:"LOCATOR"`
	Workers   int             `yaml:"workers" envconfig:"WORKERS" default:"4" validate:"min=1,max=64"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/zonesheet.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig overrides directory locations. Relative paths resolve against
// the executable directory.
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	TemplateFile  string `yaml:"template_file" envconfig:"TEMPLATE_FILE" default:"templates/rate_sheet.xlsx"`
}

// CarrierConfig is the metadata attached to rate sheet rows and file names,
// and how carrier documents are read.
type CarrierConfig struct {
	CountryName    string `yaml:"country_name" envconfig:"COUNTRY_NAME" default:"United States" validate:"required"`
	CountrySymbol  string `yaml:"country_symbol" envconfig:"COUNTRY_SYMBOL" default:"US" validate:"required,len=2"`
	ClientName     string `yaml:"client_name" envconfig:"CLIENT_NAME"`
	Carrier        string `yaml:"carrier" envconfig:"CARRIER" default:"FedEx" validate:"required"`
	CarrierAccount string `yaml:"carrier_account" envconfig:"ACCOUNT"`
	Scheme         string `yaml:"scheme" envconfig:"SCHEME" default:"zip" validate:"oneof=zip fsa us ca"`
	// ZoneColumn picks the zone when documents list several per range,
	// 0 being the first (express).
	ZoneColumn int `yaml:"zone_column" envconfig:"ZONE_COLUMN" default:"0" validate:"min=0"`
}

// GroupingConfig selects the origin range-group rule.
type GroupingConfig struct {
	Rule         string `yaml:"rule" envconfig:"RULE" default:"block" validate:"oneof=block prefix"`
	PrefixLength int    `yaml:"prefix_length" envconfig:"PREFIX_LENGTH" default:"3" validate:"min=1,max=5"`
}

// MergeConfig selects how overlapping ranges with different zones resolve.
type MergeConfig struct {
	Policy string `yaml:"policy" envconfig:"POLICY" default:"last-write-wins" validate:"oneof=last-write-wins first-write-wins drop"`
}

// TelemetryConfig controls metrics and tracing output.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"zonesheet"`
	// MetricsFile receives Prometheus text format metrics at exit.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE" default:"zonesheet.prom"`
	// TraceFile receives spans as JSON lines; empty disables tracing.
	TraceFile string `yaml:"trace_file" envconfig:"TRACE_FILE"`
}

// LocatorConfig controls probing for carrier documents.
type LocatorConfig struct {
	BaseURL      string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	RPS          float64       `yaml:"rps" envconfig:"RPS" default:"5" validate:"gt=0"`
	Burst        int           `yaml:"burst" envconfig:"BURST" default:"5" validate:"min=1"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"8s"`
	Concurrency  int           `yaml:"concurrency" envconfig:"CONCURRENCY" default:"8" validate:"min=1"`
	MinBlockSize int           `yaml:"min_block_size" envconfig:"MIN_BLOCK_SIZE" default:"100" validate:"min=1"`
	MaxBlockSize int           `yaml:"max_block_size" envconfig:"MAX_BLOCK_SIZE" default:"1000" validate:"gtefield=MinBlockSize"`
}

// Load loads configuration from environment variables and the first config
// file found in the usual locations.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile loads configuration from environment variables and configFile.
// Environment variables take precedence over the file; an empty configFile
// means environment and defaults only.
func LoadFile(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envSet reports whether the variable for key was given explicitly, so a
// file value may replace an envconfig default but never an explicit one.
func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	pick := func(key string, dst *string, src string) {
		if src != "" && !envSet(key) {
			*dst = src
		}
	}
	pickInt := func(key string, dst *int, src int) {
		if src != 0 && !envSet(key) {
			*dst = src
		}
	}

	// Logging
	pick("LOGGING_LEVEL", &envConfig.Logging.Level, fileConfig.Logging.Level)
	pick("LOGGING_FORMAT", &envConfig.Logging.Format, fileConfig.Logging.Format)
	pick("LOGGING_OUTPUT", &envConfig.Logging.Output, fileConfig.Logging.Output)
	pick("LOGGING_FILE_PATH", &envConfig.Logging.FilePath, fileConfig.Logging.FilePath)
	if fileConfig.Logging.Development && !envSet("LOGGING_DEVELOPMENT") {
		envConfig.Logging.Development = true
	}

	// Paths
	pick("PATHS_EXECUTABLE_DIR", &envConfig.Paths.ExecutableDir, fileConfig.Paths.ExecutableDir)
	pick("PATHS_DATA_DIR", &envConfig.Paths.DataDir, fileConfig.Paths.DataDir)
	pick("PATHS_LOGS_DIR", &envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir)
	pick("PATHS_TEMPLATE_FILE", &envConfig.Paths.TemplateFile, fileConfig.Paths.TemplateFile)

	// Carrier
	pick("CARRIER_COUNTRY_NAME", &envConfig.Carrier.CountryName, fileConfig.Carrier.CountryName)
	pick("CARRIER_COUNTRY_SYMBOL", &envConfig.Carrier.CountrySymbol, fileConfig.Carrier.CountrySymbol)
	pick("CARRIER_CLIENT_NAME", &envConfig.Carrier.ClientName, fileConfig.Carrier.ClientName)
	pick("CARRIER_CARRIER", &envConfig.Carrier.Carrier, fileConfig.Carrier.Carrier)
	pick("CARRIER_ACCOUNT", &envConfig.Carrier.CarrierAccount, fileConfig.Carrier.CarrierAccount)
	pick("CARRIER_SCHEME", &envConfig.Carrier.Scheme, fileConfig.Carrier.Scheme)
	pickInt("CARRIER_ZONE_COLUMN", &envConfig.Carrier.ZoneColumn, fileConfig.Carrier.ZoneColumn)

	// Grouping and merge
	pick("GROUPING_RULE", &envConfig.Grouping.Rule, fileConfig.Grouping.Rule)
	pickInt("GROUPING_PREFIX_LENGTH", &envConfig.Grouping.PrefixLength, fileConfig.Grouping.PrefixLength)
	pick("MERGE_POLICY", &envConfig.Merge.Policy, fileConfig.Merge.Policy)

	// Telemetry
	pick("TELEMETRY_SERVICE_NAME", &envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName)
	pick("TELEMETRY_METRICS_FILE", &envConfig.Telemetry.MetricsFile, fileConfig.Telemetry.MetricsFile)
	pick("TELEMETRY_TRACE_FILE", &envConfig.Telemetry.TraceFile, fileConfig.Telemetry.TraceFile)

	// Locator
	pick("LOCATOR_BASE_URL", &envConfig.Locator.BaseURL, fileConfig.Locator.BaseURL)
	if fileConfig.Locator.RPS != 0 && !envSet("LOCATOR_RPS") {
		envConfig.Locator.RPS = fileConfig.Locator.RPS
	}
	pickInt("LOCATOR_BURST", &envConfig.Locator.Burst, fileConfig.Locator.Burst)
	if fileConfig.Locator.Timeout != 0 && !envSet("LOCATOR_TIMEOUT") {
		envConfig.Locator.Timeout = fileConfig.Locator.Timeout
	}
	pickInt("LOCATOR_CONCURRENCY", &envConfig.Locator.Concurrency, fileConfig.Locator.Concurrency)
	pickInt("LOCATOR_MIN_BLOCK_SIZE", &envConfig.Locator.MinBlockSize, fileConfig.Locator.MinBlockSize)
	pickInt("LOCATOR_MAX_BLOCK_SIZE", &envConfig.Locator.MaxBlockSize, fileConfig.Locator.MaxBlockSize)

	pickInt("WORKERS", &envConfig.Workers, fileConfig.Workers)

	return envConfig
}

// resolvePaths fills in the executable directory when it was not configured
func (c *Config) resolvePaths() error {
	if c.Paths.ExecutableDir != "" {
		return nil
	}
	dir, err := executableDir()
	if err != nil {
		return err
	}
	c.Paths.ExecutableDir = dir
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every section's constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperrors.NewConfigError("invalid configuration", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
		}
		return apperrors.NewConfigError("invalid configuration: "+strings.Join(fields, "; "), err)
	}
	return nil
}

// GetPaths returns the data directories for this configuration.
func (c *Config) GetPaths() *Paths {
	dataDir := c.Paths.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(c.Paths.ExecutableDir, dataDir)
	}
	logsDir := c.Paths.LogsDir
	if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(c.Paths.ExecutableDir, logsDir)
	}
	p := newPaths(c.Paths.ExecutableDir, dataDir, logsDir)
	if c.Paths.TemplateFile != "" {
		p.TemplateFile = c.resolve(c.Paths.TemplateFile)
	}
	return p
}

// GetLogFile returns the resolved log file path
func (c *Config) GetLogFile() string {
	return c.resolve(c.Logging.FilePath)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.ExecutableDir, path)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/zonesheet.log",
		},
		Paths: PathsConfig{
			DataDir:      "data",
			LogsDir:      "logs",
			TemplateFile: "templates/rate_sheet.xlsx",
		},
		Carrier: CarrierConfig{
			CountryName:   "United States",
			CountrySymbol: "US",
			Carrier:       "FedEx",
			Scheme:        "zip",
		},
		Grouping: GroupingConfig{
			Rule:         "block",
			PrefixLength: 3,
		},
		Merge: MergeConfig{
			Policy: "last-write-wins",
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "zonesheet",
			MetricsFile: "zonesheet.prom",
		},
		Locator: LocatorConfig{
			RPS:          5,
			Burst:        5,
			Timeout:      8 * time.Second,
			Concurrency:  8,
			MinBlockSize: 100,
			MaxBlockSize: 1000,
		},
		Workers: 4,
	}
}
