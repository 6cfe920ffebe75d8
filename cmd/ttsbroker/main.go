// Ttsbroker is a local text-to-speech broker: it accepts short text payloads
// over HTTP, runs a speech engine and returns browser-playable audio.
//
// Usage:
//
//	ttsbroker [port] [flags]
//	ttsbroker 9000 --config /path/to/ttsbroker.yaml
//
// @title       ttsbroker API
// @version     1.0
// @description Local text-to-speech broker: POST text, receive browser-playable audio.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/nadzzz/ttsbroker/docs"
	"github.com/nadzzz/ttsbroker/internal/command"
	"github.com/nadzzz/ttsbroker/internal/config"
	"github.com/nadzzz/ttsbroker/internal/dispatch"
	"github.com/nadzzz/ttsbroker/internal/health"
	"github.com/nadzzz/ttsbroker/internal/observe"
	"github.com/nadzzz/ttsbroker/internal/transcode"
	"github.com/nadzzz/ttsbroker/internal/transport"
	grpctransport "github.com/nadzzz/ttsbroker/internal/transport/grpc"
	httptransport "github.com/nadzzz/ttsbroker/internal/transport/http"
	"github.com/nadzzz/ttsbroker/internal/tts"
	"github.com/nadzzz/ttsbroker/internal/tts/gtts"
	"github.com/nadzzz/ttsbroker/internal/tts/say"
	"github.com/nadzzz/ttsbroker/internal/voice"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "ttsbroker [port]",
		Short:        "Local text-to-speech broker",
		Long:         "ttsbroker accepts POST /tts requests, synthesizes speech with macOS say or gTTS and returns the audio.",
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, args)
			if err != nil {
				return err
			}

			config.SetupLogging(cfg.Logging)
			slog.Info("ttsbroker starting", "version", version, "engine", cfg.TTS.Engine)

			// Create root context with signal handling for graceful shutdown.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/ttsbroker.yaml)")
	return cmd
}

// loadConfig loads and validates configuration. A positional argument
// overrides the configured port.
func loadConfig(configFile string, args []string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if err := cfg.SetPortArg(args[0]); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildEngine constructs the configured speech engine and the dispatcher
// options it needs.
func buildEngine(cfg *config.Config, runner command.Runner) (tts.Synthesizer, []dispatch.Option, error) {
	switch cfg.TTS.Engine {
	case config.EngineSay:
		tc, err := transcode.New(cfg.Transcode, runner)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using say engine", "command", cfg.TTS.Say.Command, "transcoder", tc.Tool())
		return say.New(cfg.TTS.Say, runner), []dispatch.Option{dispatch.WithTranscoder(tc)}, nil
	case config.EngineGTTS:
		g := gtts.New(cfg.TTS.GTTS, gtts.WithRunner(runner))
		if !g.Available() {
			slog.Warn("gtts-cli not found; /tts will fail until it is installed", "command", cfg.TTS.GTTS.Command)
		}
		slog.Info("using gtts engine", "available", g.Available())
		return g, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown tts engine %q", cfg.TTS.Engine)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTelemetry, err := observe.InitProvider(version)
	if err != nil {
		return fmt.Errorf("initialising telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()
	metrics, err := observe.DefaultMetrics()
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	engine, opts, err := buildEngine(cfg, command.ExecRunner{})
	if err != nil {
		return err
	}
	defer closeEngine(engine)

	opts = append(opts, dispatch.WithScratchDir(cfg.Scratch.Dir), dispatch.WithMetrics(metrics))
	dispatcher := dispatch.New(engine, voice.NewResolver(cfg.TTS.Say.Voices), opts...)

	// Initialize transports.
	httpOpts := []httptransport.Option{
		httptransport.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		httptransport.WithSwagger(cfg.Server.Swagger),
		httptransport.WithMetrics(metrics),
	}
	if p, ok := engine.(tts.AvailabilityReporter); ok {
		httpOpts = append(httpOpts, httptransport.WithAvailability(p))
	}
	transports := []transport.Transport{httptransport.New(cfg.ListenAddr(), httpOpts...)}
	if cfg.Server.GRPCPort > 0 {
		transports = append(transports, grpctransport.New(cfg.GRPCAddr(), engine))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx, dispatcher.Handle); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	if cfg.Server.OpsPort > 0 {
		ops := health.New(cfg.OpsAddr(),
			health.EngineChecker(engine),
			health.ScratchChecker(cfg.Scratch.Dir),
		)
		g.Go(func() error { return ops.ListenAndServe(gctx) })
		ops.SetReady(true)
	}

	slog.Info("ttsbroker ready",
		"addr", cfg.ListenAddr(),
		"transports", len(transports),
		"ops_port", cfg.Server.OpsPort)

	// Block until shutdown signal or the first transport failure.
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("ttsbroker stopped with error", "error", err)
		return err
	}
	slog.Info("ttsbroker stopped")
	return nil
}

// closeEngine releases the engine, logging any failure.
func closeEngine(engine tts.Synthesizer) {
	if err := engine.Close(); err != nil {
		slog.Warn("engine close", "engine", engine.Name(), "error", err)
	}
}
