// Package main is the entry point for the token sale client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fd1az/tokensale-client/business/connection"
	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	"github.com/fd1az/tokensale-client/business/market"
	"github.com/fd1az/tokensale-client/business/sale"
	"github.com/fd1az/tokensale-client/internal/apm"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/config"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/metrics"
	"github.com/fd1az/tokensale-client/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const usage = `Usage: tokensale [-config path] [-cli] [-version] [command [args]]

Without a command the interactive dashboard starts.

Commands:
  info                 show account, prices, supply and sale liquidity
  quote-buy <tokens>   ETH cost of buying an exact token amount
  quote-sell <tokens>  ETH refund for selling a token amount
  buy-eth <eth>        spend an ETH amount on tokens
  buy <tokens>         buy an exact token amount
  sell <tokens>        sell tokens back to the sale (approves first if needed)
  withdraw [eth|all]   withdraw ETH from the sale (owner only)
  watch                print a refresh on every tick and wallet event

Flags:
`

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run without the dashboard (logs to stderr)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("tokensale %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// The dashboard is the default; any command runs in CLI mode.
	args := flag.Args()
	tuiMode := !*cliMode && len(args) == 0

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode, args); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", apperror.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.App.TUIMode = tuiMode

	log := newLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info(ctx, "starting token sale client",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	stopTelemetry, err := startTelemetry(ctx, cfg, log, tuiMode)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	// Create monolith (application container)
	mono := monolith.New(cfg, log)
	defer mono.Close()

	if !tuiMode {
		// The dashboard owns the terminal; only the CLI may prompt.
		mono.Container().Register(connectionDI.PassphrasePromptKey, promptPassphrase)
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&connection.Module{}, // Must be first - provides the shared session
		&sale.Module{},       // Depends on connection
		&market.Module{},     // Depends on connection and sale
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		return runTUI(ctx, mono, modules)
	}

	// CLI mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCommand(ctx, mono, args, os.Stdout)
}

func newLogger(cfg *config.Config, tuiMode bool) *logger.Logger {
	level := logger.ParseLevel(cfg.App.LogLevel)

	var out io.Writer = os.Stderr
	if tuiMode {
		// In TUI mode stderr belongs to the dashboard: log to a rotated
		// file when one is configured, otherwise drop the logs.
		out = io.Discard
		if cfg.App.LogFile != "" {
			out = &lumberjack.Logger{
				Filename:   cfg.App.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     7, // days
			}
		}
	}
	return logger.New(out, level, cfg.App.Name, logger.OTelTraceID)
}

func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, tuiMode bool) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}
	t := cfg.Telemetry

	headers, err := apm.ParseHeaders(t.OTLPHeaders)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("telemetry.otlp_headers"), apperror.WithCause(err))
	}

	var console io.Writer = os.Stderr
	if tuiMode {
		console = io.Discard
	}
	traceProvider, err := apm.NewTraceProvider(ctx, apm.Exporter(t.TraceExporter), log,
		apm.WithServiceName(t.ServiceName),
		apm.WithEndpoint(t.OTLPEndpoint),
		apm.WithHeaders(headers),
		apm.WithConsoleWriter(console),
	)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("telemetry.trace_exporter"), apperror.WithCause(err))
	}

	opts := []metrics.OptionFn{metrics.WithServiceName(t.ServiceName)}
	if t.PrometheusPort > 0 {
		opts = append(opts, metrics.WithPrometheus())
	}
	if t.OTLPEndpoint != "" && t.TraceExporter == string(apm.OTLPGRPCExporter) {
		opts = append(opts, metrics.WithOtelCollector(t.OTLPEndpoint, headers, false))
	}
	meterProvider, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	if t.PrometheusPort > 0 {
		go metrics.ServePrometheusMetrics(metricsCtx, t.PrometheusPort, log)
	}

	return func() {
		stopMetrics()
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Warn(ctx, "metric provider shutdown failed", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(ctx, "trace provider shutdown failed", "error", err)
		}
	}, nil
}
