package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/natserract/aukro/pkg/config"
	"github.com/natserract/aukro/pkg/session"
	"github.com/natserract/aukro/pkg/soap"
)

const usage = `Usage: aukro [flags] <command> [args]

Commands:
  status                          print whether a session is stored
  login                           log in and store the session
  logout                          forget the stored session
  call <method> [key=value ...]   call a WebAPI method and print the JSON response
  batch <method> [<method> ...]   call several methods concurrently
  version-key                     print the current version key

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("aukro", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "path to YAML config file (default $CONFIG_PATH)")
	logLevel := flags.String("log-level", "", "log level, overrides LOG_LEVEL")
	metricsAddr := flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	concurrency := flags.IntP("concurrency", "n", 5, "max concurrent calls for batch")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	handler, closeStore, err := session.New(ctx, cfg.Session, logger)
	if err != nil {
		logger.Error("Failed to open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
		fmt.Fprintf(stderr, "Failed to open session store: %v\n", err)
		return 1
	}
	defer closeStore()

	driver := soap.NewDriverWithLogger(cfg.SOAP, logger)
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics, err := soap.NewMetrics(reg)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to register metrics: %v\n", err)
			return 1
		}
		driver.WithMetrics(metrics)
		serveMetrics(*metricsAddr, reg, logger)
	}

	a := &app{
		cfg:         cfg,
		handler:     handler,
		soap:        driver,
		out:         stdout,
		logger:      logger,
		concurrency: *concurrency,
	}

	name, cmdArgs := flags.Arg(0), flags.Args()[1:]
	if err := a.runCommand(ctx, name, cmdArgs); err != nil {
		logger.Error("Command failed", zap.String("command", name), zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("Serving metrics", zap.String("addr", addr))
}
