// Package v1 exposes the assistant over HTTP: chat, direct function
// execution, and the audit trail.
package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	agent "github.com/coachdesk/coachdesk/ai/agents"
	"github.com/coachdesk/coachdesk/ai/chat"
	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
)

// actorHeader carries the authenticated actor's id. Upstream authentication
// (reverse proxy, gateway) is expected to have validated it.
const actorHeader = "X-Actor-ID"

const actorContextKey = "actor_id"

// APIV1Service bundles the HTTP handlers and their dependencies.
type APIV1Service struct {
	Profile      *profile.Profile
	Store        *store.Store
	Orchestrator *chat.Orchestrator
	Dispatcher   *agent.Dispatcher
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(p *profile.Profile, st *store.Store, orchestrator *chat.Orchestrator, dispatcher *agent.Dispatcher) *APIV1Service {
	return &APIV1Service{
		Profile:      p,
		Store:        st,
		Orchestrator: orchestrator,
		Dispatcher:   dispatcher,
	}
}

// Register mounts the v1 routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1", s.actorMiddleware)
	g.POST("/chat", s.handleChat)
	g.POST("/functions", s.handleFunction)
	g.GET("/audit", s.handleAuditList)
}

// actorMiddleware extracts and validates the actor id header.
func (s *APIV1Service) actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(actorHeader)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+actorHeader+" header")
		}
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid "+actorHeader+" header")
		}
		c.Set(actorContextKey, int32(id))
		return next(c)
	}
}

func actorID(c echo.Context) int32 {
	if id, ok := c.Get(actorContextKey).(int32); ok {
		return id
	}
	return 0
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// ChatResponse is the reply: plain assistant text, or the result of the
// function call the model decided to make.
type ChatResponse struct {
	Text           string                         `json:"text,omitempty"`
	FunctionCall   *agent.FunctionCallRequest     `json:"function_call,omitempty"`
	FunctionResult *agent.FunctionExecutionResult `json:"function_result,omitempty"`
}

func (s *APIV1Service) handleChat(c echo.Context) error {
	if s.Orchestrator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "chat is not configured on this instance")
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	ctx := c.Request().Context()
	resp, err := s.Orchestrator.Handle(ctx, &chat.Request{
		ActorID:        actorID(c),
		ConversationID: req.ConversationID,
		Text:           req.Text,
		Timezone:       req.Timezone,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if resp.FunctionCall == nil {
		return c.JSON(http.StatusOK, &ChatResponse{Text: resp.Text})
	}

	// The model chose an action: execute it in the same round trip so the
	// client gets either the confirmation or the follow-up (selection,
	// conflict) immediately.
	result := s.Dispatcher.Dispatch(ctx, resp.FunctionCall)
	return c.JSON(http.StatusOK, &ChatResponse{
		FunctionCall:   resp.FunctionCall,
		FunctionResult: result,
	})
}

// FunctionRequest is the body of POST /api/v1/functions: a direct function
// invocation, used for selection follow-ups and programmatic clients.
type FunctionRequest struct {
	FunctionName   string         `json:"function_name"`
	Parameters     map[string]any `json:"parameters"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

func (s *APIV1Service) handleFunction(c echo.Context) error {
	var req FunctionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.FunctionName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "function_name is required")
	}

	result := s.Dispatcher.Dispatch(c.Request().Context(), &agent.FunctionCallRequest{
		FunctionName:   req.FunctionName,
		Parameters:     req.Parameters,
		ActorID:        actorID(c),
		ConversationID: req.ConversationID,
	})
	return c.JSON(http.StatusOK, result)
}

func (s *APIV1Service) handleAuditList(c echo.Context) error {
	actor := actorID(c)
	find := &store.FindAuditLogEntry{ActorID: &actor}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = limit
	}

	entries, err := s.Store.AuditStore.ListAuditLogEntries(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}
	return c.JSON(http.StatusOK, entries)
}
