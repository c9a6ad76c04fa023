// Package server wires the business services, the assistant, and the HTTP
// surface into one runnable instance.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	agent "github.com/coachdesk/coachdesk/ai/agents"
	"github.com/coachdesk/coachdesk/ai/chat"
	"github.com/coachdesk/coachdesk/ai/core/embedding"
	"github.com/coachdesk/coachdesk/ai/core/llm"
	"github.com/coachdesk/coachdesk/ai/core/retrieval"
	"github.com/coachdesk/coachdesk/ai/metrics"
	"github.com/coachdesk/coachdesk/internal/profile"
	apiv1 "github.com/coachdesk/coachdesk/server/router/api/v1"
	"github.com/coachdesk/coachdesk/server/service/contact"
	"github.com/coachdesk/coachdesk/server/service/messaging"
	"github.com/coachdesk/coachdesk/server/service/reminder"
	"github.com/coachdesk/coachdesk/server/service/schedule"
	"github.com/coachdesk/coachdesk/store"
)

// Server is the CoachDesk HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	llmService llm.Service
	exporter   *metrics.Exporter
}

// NewServer assembles the full dependency graph. LLM-backed features are
// optional: without provider credentials the chat endpoints report
// unavailability while the rest of the API still works.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())

	s := &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
		exporter:   metrics.NewExporter(metrics.DefaultConfig()),
	}

	// Core business services.
	scheduleService := schedule.NewService(st)
	slots := schedule.NewConflictResolverWithHours(scheduleService, p.WorkdayStartHour, p.WorkdayEndHour)
	resolver := contact.NewResolver(st)
	reminderService := reminder.NewService(st)

	// Retrieval stack: embedding provider, indexer, retriever.
	var retriever *retrieval.MessageRetriever
	var indexer messaging.Indexer
	if p.EmbeddingAPIKey != "" {
		embedder, err := embedding.NewProvider(&embedding.Config{
			BaseURL:    p.EmbeddingBaseURL,
			APIKey:     p.EmbeddingAPIKey,
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
		retriever = retrieval.NewMessageRetriever(st, embedder)
		indexer = retrieval.NewMessageIndexer(st, embedder)
	} else {
		slog.Warn("embedding credentials missing, message search disabled")
	}

	messagingService := messaging.NewService(st, indexer)

	dispatcher := agent.NewDispatcher(
		resolver,
		scheduleService,
		slots,
		messagingService,
		reminderService,
		retriever,
		st.AuditStore,
		agent.WithMetrics(s.exporter),
	)

	// LLM-backed chat.
	var orchestrator *chat.Orchestrator
	if p.AIEnabled() {
		llmService, err := llm.NewService(&llm.Config{
			Provider: p.LLMProvider,
			Model:    p.LLMModel,
			APIKey:   p.LLMAPIKey,
			BaseURL:  p.LLMBaseURL,
			Timeout:  p.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create llm service: %w", err)
		}
		s.llmService = llmService
		orchestrator = chat.NewOrchestrator(llmService, retriever, chat.WithMetrics(s.exporter))

		// Warm the provider connection in the background so the first chat
		// turn is not slowed by TLS and connection setup.
		go llmService.Warmup(ctx)
	} else {
		slog.Warn("LLM credentials missing, chat disabled")
	}

	apiService := apiv1.NewAPIV1Service(p, st, orchestrator, dispatcher)
	apiService.Register(e)

	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", echo.WrapHandler(s.exporter.Handler()))

	return s, nil
}

// Start runs the HTTP listener until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	})
}
