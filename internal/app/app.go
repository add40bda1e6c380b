package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"zonesheet/internal/config"
	"zonesheet/internal/infrastructure"
)

// Version is reported in startup logs.
const Version = "1.0.0"

// Runtime is what every command needs before doing work.
type Runtime struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	name      string
}

// Setup loads configuration, creates the data directories and starts
// logging and telemetry. configFile may be empty to use the usual lookup.
// A configuration that fails to load falls back to defaults with a warning.
func Setup(name, configFile string) (*Runtime, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		paths, perr := config.GetPaths()
		if perr != nil {
			return nil, perr
		}
		cfg.Paths.ExecutableDir = paths.ExecutableDir
	}
	return New(name, cfg)
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile == "" {
		return config.Load()
	}
	return config.LoadFile(configFile)
}

// New builds a Runtime from an already loaded configuration.
func New(name string, cfg *config.Config) (*Runtime, error) {
	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.FilePath = cfg.GetLogFile()
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("command", name))

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, paths.ReportsDir, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting",
		slog.String("version", Version),
		slog.String("carrier", cfg.Carrier.Carrier),
		slog.String("scheme", cfg.Carrier.Scheme),
		slog.String("data_dir", paths.DataDir),
		slog.Int("workers", cfg.Workers))

	return &Runtime{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Telemetry: tel,
		name:      name,
	}, nil
}

// Context returns a context cancelled on SIGINT or SIGTERM. It carries a
// run trace ID that context-aware log calls attach as trace_id.
func (r *Runtime) Context() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return infrastructure.EnsureTraceID(ctx), cancel
}

// Close flushes telemetry and closes the log file.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Telemetry != nil {
		errs = append(errs, r.Telemetry.Shutdown(ctx))
	}
	errs = append(errs, infrastructure.CloseLogFile())
	return errors.Join(errs...)
}

// Fatal logs err and exits with status 1 after flushing telemetry.
func (r *Runtime) Fatal(msg string, err error) {
	r.Logger.Error(msg, slog.String("error", err.Error()))
	_ = r.Close(context.Background())
	os.Exit(1)
}
