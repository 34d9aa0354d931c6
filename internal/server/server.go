// Package server exposes the chat service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nova-api/internal/chat"
	"nova-api/internal/llm"
)

// Options configures the HTTP surface.
type Options struct {
	Addr        string
	GinMode     string
	CORSOrigins []string
	Version     string
	// ModelStatus is reported by /health as ai_model_status.
	ModelStatus string
}

// Deps are the collaborators served over HTTP. Gatherer and MCPHandler are
// optional; their routes are only mounted when set.
type Deps struct {
	Chat       *chat.Service
	Catalog    *llm.Catalog
	Gatherer   prometheus.Gatherer
	MCPHandler http.Handler
	Logger     *slog.Logger
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

func New(opts Options, deps Deps) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()
	engine.Use(recovery(logger), requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		engine.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}

	h := &handler{
		chat:        deps.Chat,
		catalog:     deps.Catalog,
		version:     opts.Version,
		modelStatus: opts.ModelStatus,
	}
	h.register(engine)

	if deps.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.MCPHandler != nil {
		engine.Any("/mcp", gin.WrapH(deps.MCPHandler))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "Not Found"})
	})

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		// Any request header is accepted; the web client sends its own X-NOVA-* headers.
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		// Browsers reject credentialed responses with a wildcard origin.
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
