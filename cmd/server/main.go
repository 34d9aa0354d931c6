package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"nova-api/internal/analytics"
	"nova-api/internal/chat"
	"nova-api/internal/chatmcp"
	"nova-api/internal/config"
	"nova-api/internal/history"
	"nova-api/internal/llm"
	"nova-api/internal/metrics"
	"nova-api/internal/responder"
	"nova-api/internal/scheduler"
	"nova-api/internal/server"
	"nova-api/internal/storage"
	"nova-api/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	resp, modelStatus, err := newResponder(cfg)
	if err != nil {
		logger.Error("failed to create responder", "error", err)
		os.Exit(1)
	}

	opts := []chat.Option{chat.WithLogger(logger)}

	var rec storage.Recorder
	if cfg.TranscriptPath != "" {
		fr, err := storage.NewFileRecorder(cfg.TranscriptPath)
		if err != nil {
			logger.Warn("failed to init transcript recorder", "path", cfg.TranscriptPath, "error", err)
		} else {
			rec = fr
			opts = append(opts, chat.WithRecorder(rec))
		}
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, chat.WithMetrics(metrics.MustNew(reg)))
		gatherer = reg
	}

	svc := chat.NewService(history.NewStore(), resp, opts...)

	var mcpHandler http.Handler
	if cfg.MCPEnabled {
		mcpHandler = chatmcp.NewHandler(chatmcp.NewServer(svc, cfg.APIVersion))
	}

	srv := server.New(server.Options{
		Addr:        cfg.Addr(),
		GinMode:     cfg.GinMode,
		CORSOrigins: cfg.CORSOrigins,
		Version:     cfg.APIVersion,
		ModelStatus: modelStatus,
	}, server.Deps{
		Chat:       svc,
		Catalog:    llm.NewCatalog(cfg),
		Gatherer:   gatherer,
		MCPHandler: mcpHandler,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(cfg.ReportCron, logger)
	sched.SetReportFunction(reportFunc(svc, rec, logger, isJSONFormat(cfg.LogFormat)))
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
	}

	var wg sync.WaitGroup
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, svc, logger)
		if err != nil {
			logger.Error("failed to create telegram bot", "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bot.Start(ctx)
			}()
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown failed", "error", err)
	}
	sched.Stop()
	wg.Wait()
	if c, ok := rec.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close transcript", "error", err)
		}
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if isJSONFormat(cfg.LogFormat) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func isJSONFormat(format string) bool {
	return strings.EqualFold(format, "json")
}

// newResponder picks the reply backend and the ai_model_status reported by /health.
func newResponder(cfg *config.Config) (responder.Responder, string, error) {
	if cfg.LLMProvider == config.ProviderSimulation {
		return responder.NewSimulator(nil), "ready_for_configuration", nil
	}
	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return nil, "", err
	}
	return responder.NewLLM(client, readSystemPrompt(cfg.SystemPromptPath)), "ready", nil
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("system prompt file not found or unreadable", "path", path, "error", err)
		return ""
	}
	return string(data)
}

// reportFunc logs the store snapshot and the day's usage. With jsonStats the
// usage is attached as a structured "stats" attribute instead of plain text.
func reportFunc(svc *chat.Service, rec storage.Recorder, logger *slog.Logger, jsonStats bool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		st := svc.Stats()
		logger.Info("session store snapshot", "sessions", st.Sessions, "turns", st.Turns)
		if rec == nil {
			return nil
		}
		events, err := rec.LoadInteractions()
		if err != nil {
			return err
		}
		stats := analytics.AnalyzeDailyLogs(events, time.Now().UTC())
		if !jsonStats {
			logger.Info("daily usage report\n" + stats.Summary())
			return nil
		}
		data, err := stats.ToJSON()
		if err != nil {
			return err
		}
		logger.Info("daily usage report", "stats", json.RawMessage(data))
		return nil
	}
}
