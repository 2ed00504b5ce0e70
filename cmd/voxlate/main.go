// Command voxlate is the main entry point for the voxlate transcription and
// translation server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/voxlate/voxlate/internal/ai"
	"github.com/voxlate/voxlate/internal/api"
	"github.com/voxlate/voxlate/internal/config"
	"github.com/voxlate/voxlate/internal/health"
	"github.com/voxlate/voxlate/internal/observe"
	"github.com/voxlate/voxlate/internal/store"
	"github.com/voxlate/voxlate/internal/transport"
	"github.com/voxlate/voxlate/pkg/stt"
	"github.com/voxlate/voxlate/pkg/stt/deepgram"
	"github.com/voxlate/voxlate/pkg/stt/whisperhttp"
	"github.com/voxlate/voxlate/pkg/translate"
	"github.com/voxlate/voxlate/pkg/translate/libre"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxlate: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxlate: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	levelVar := new(slog.LevelVar)
	levelVar.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	slog.Info("voxlate starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voxlate"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	recognizer, err := reg.CreateRecognizer(cfg.Providers.Recognizer)
	if err != nil {
		slog.Error("failed to create recognizer", "name", cfg.Providers.Recognizer.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "recognizer", "name", cfg.Providers.Recognizer.Name)

	var translator translate.Translator
	if name := cfg.Providers.Translator.Name; name != "" {
		translator, err = reg.CreateTranslator(cfg.Providers.Translator)
		if err != nil {
			slog.Error("failed to create translator", "name", name, "err", err)
			return 1
		}
		slog.Info("provider created", "kind", "translator", "name", name)
	}

	var summarizer ai.Summarizer
	if name := cfg.Providers.AI.Name; name != "" {
		summarizer, err = reg.CreateSummarizer(cfg.Providers.AI)
		if err != nil {
			slog.Error("failed to create summarizer", "name", name, "err", err)
			return 1
		}
		slog.Info("provider created", "kind", "ai", "name", name)
	}

	// ── Lecture archive (optional) ────────────────────────────────────────────
	var (
		lectureStore store.Store
		checkers     []health.Checker
	)
	if dsn := cfg.Persistence.PostgresDSN; dsn != "" {
		pool, err := store.Connect(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to run migrations", "err", err)
			return 1
		}
		lectureStore = pg
		checkers = append(checkers, health.PingChecker("database", pool.Ping))
		slog.Info("lecture archive enabled")
	}

	// ── HTTP routes ───────────────────────────────────────────────────────────
	wsServer := transport.NewServer(transport.Config{
		Recognizer:          recognizer,
		Translator:          translator,
		Metrics:             metrics,
		RecognitionLanguage: cfg.Providers.Recognizer.Language,
		SourceLanguage:      cfg.Session.SourceLanguage,
		TargetLanguage:      cfg.Session.TargetLanguage,
		SampleRate:          cfg.Session.SampleRate,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWS)
	mux.Handle("/metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	if lectureStore != nil {
		instrument := observe.Middleware(metrics)
		mux.Handle("/api/", instrument(api.NewHandler(lectureStore, summarizer).Routes()))
	} else if summarizer != nil {
		slog.Warn("ai provider configured but persistence is disabled, lecture enrichment is unavailable")
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			levelVar.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "log_level", d.NewLogLevel)
		}
		if d.SessionDefaultsChanged {
			wsServer.SetSessionDefaults(d.NewSessionDefaults.TargetLanguage, d.NewSessionDefaults.SourceLanguage)
		}
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg)

	// ── Serve ─────────────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("server ready, press Ctrl+C to shut down", "listen_addr", cfg.Server.ListenAddr)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// voxlate into reg. Each factory receives a config.ProviderEntry and
// constructs the provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Recognizers ───────────────────────────────────────────────────────────

	reg.RegisterRecognizer("deepgram", func(entry config.ProviderEntry) (stt.Recognizer, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, deepgram.WithLanguage(entry.Language))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterRecognizer("whisper-http", func(entry config.ProviderEntry) (stt.Recognizer, error) {
		var opts []whisperhttp.Option
		if entry.Model != "" {
			opts = append(opts, whisperhttp.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisperhttp.WithLanguage(entry.Language))
		}
		if ms := optInt(entry.Options, "silence_threshold_ms"); ms > 0 {
			opts = append(opts, whisperhttp.WithSilenceThresholdMs(ms))
		}
		return whisperhttp.New(entry.BaseURL, opts...)
	})

	// ── Translators ───────────────────────────────────────────────────────────

	reg.RegisterTranslator("libre", func(entry config.ProviderEntry) (translate.Translator, error) {
		var opts []libre.Option
		if entry.APIKey != "" {
			opts = append(opts, libre.WithAPIKey(entry.APIKey))
		}
		return libre.New(entry.BaseURL, opts...)
	})

	// ── Summarizers ───────────────────────────────────────────────────────────

	reg.RegisterSummarizer("openai", func(entry config.ProviderEntry) (ai.Summarizer, error) {
		var opts []ai.Option
		if entry.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(entry.BaseURL))
		}
		return ai.NewOpenAISummarizer(entry.APIKey, entry.Model, opts...)
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         voxlate startup summary       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Recognizer", cfg.Providers.Recognizer.Name, cfg.Providers.Recognizer.Model)
	printProvider("Translator", cfg.Providers.Translator.Name, "")
	printProvider("AI", cfg.Providers.AI.Name, cfg.Providers.AI.Model)
	archive := "(disabled)"
	if cfg.Persistence.PostgresDSN != "" {
		archive = "enabled"
	}
	fmt.Printf("║  Archive         : %-19s║\n", archive)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "..."
	}
	fmt.Printf("║  %-12s    : %-19s║\n", kind, value)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optInt extracts an integer value from a provider Options map[string]any.
// YAML decodes integers as int; anything else yields 0.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	v, ok := opts[key]
	if !ok {
		return 0
	}
	n, ok := v.(int)
	if !ok {
		return 0
	}
	return n
}
