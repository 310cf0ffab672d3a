package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/cmdharness/internal/config"
	"github.com/danmuck/cmdharness/internal/console"
	"github.com/danmuck/cmdharness/internal/harness"
	"github.com/danmuck/cmdharness/internal/logging"
	"github.com/danmuck/cmdharness/internal/observability"
	"github.com/danmuck/cmdharness/internal/serialport"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to harnessctl TOML config")
	envFile := flag.String("env", ".env", "optional env file applied before config")
	flag.Parse()

	// The env file can carry CMDHARNESS_LOG_* settings, so it is applied
	// before the logger is configured.
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "harnessctl: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger("harnessctl")
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "harnessctl: %v\n", err)
		os.Exit(1)
	}
	logger, ok := applyLogLevel(logger, cfg.LogLevel)
	if !ok && cfg.LogLevel != "" {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := start(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "harnessctl: %v\n", err)
		os.Exit(1)
	}
}

// applyLogLevel sets the process level from raw and returns logger at that
// level. Unknown values leave both unchanged.
func applyLogLevel(logger zerolog.Logger, raw string) (zerolog.Logger, bool) {
	lvl, ok := logging.ParseLevel(raw)
	if !ok {
		return logger, false
	}
	logging.SetLevel(raw)
	return logger.Level(lvl), true
}

// start opens the configured byte source and runs one console session.
func start(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.Metrics.Addr != "" {
		srv := observability.NewServer(cfg.Metrics.Addr, cfg.Name, cfg.Metrics.CorsOrigins, logger)
		go func() {
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	switch cfg.Input {
	case config.InputSerial:
		port, err := serialport.Open(serialport.Config{Device: cfg.Serial.Device, BaudRate: cfg.Serial.Baud})
		if err != nil {
			return err
		}
		defer port.Close()
		logger.Info().Str("device", port.Device()).Int("baud", cfg.Serial.Baud).Msg("serial input opened")
		// Serial consoles expect CRLF out, send CR for Enter, and do not echo locally.
		out := console.NewCRLFWriter(port)
		return run(ctx, cfg, logger, port, out, console.WithTranslateCR(), console.WithEcho(out))
	default:
		if cfg.RawTerminal && console.IsTerminal(os.Stdin) {
			restore, err := console.MakeRaw(os.Stdin)
			if err != nil {
				return fmt.Errorf("raw terminal: %w", err)
			}
			defer restore()
			out := console.NewCRLFWriter(os.Stdout)
			return run(ctx, cfg, logger, os.Stdin, out, console.WithTranslateCR(), console.WithEcho(out))
		}
		return run(ctx, cfg, logger, os.Stdin, os.Stdout)
	}
}

// run wires a harness to in/out, prints the banner, and blocks until the
// session ends.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger, in io.Reader, out io.Writer, opts ...console.LoopOption) error {
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	h := harness.New(out,
		harness.WithMaxLineBytes(cfg.MaxLineBytes),
		harness.WithLogger(logger.With().Str("component", "harness").Logger()),
		harness.WithObserver(observability.DispatchRecorder{Node: cfg.Name}),
	)
	registerCommands(h, out, quit)

	if cfg.Banner != "" {
		if _, err := io.WriteString(out, cfg.Banner); err != nil {
			return fmt.Errorf("write banner: %w", err)
		}
	}

	opts = append(opts, console.WithLogger(logger))
	return console.NewLoop(h, in, opts...).Run(ctx)
}
