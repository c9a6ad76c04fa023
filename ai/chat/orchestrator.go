// Package chat turns a user utterance into either an assistant reply or a
// function call request, backed by the LLM and the retrieval pipeline.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	agent "github.com/coachdesk/coachdesk/ai/agents"
	"github.com/coachdesk/coachdesk/ai/agents/tools"
	"github.com/coachdesk/coachdesk/ai/core/llm"
	"github.com/coachdesk/coachdesk/ai/core/retrieval"
	"github.com/coachdesk/coachdesk/ai/metrics"
)

const systemPromptTemplate = `You are CoachDesk, the scheduling and messaging assistant for a personal trainer.

Current time: %s (%s)

You manage the trainer's calendar, reminders, and client messages through the
provided functions. Ground every answer in what you actually know; when past
conversations are provided below, prefer them over guessing. Ask for
clarification instead of inventing contact names or times.`

// Request is one chat turn from the user.
type Request struct {
	ActorID        int32
	ConversationID string
	Text           string
	Timezone       string
	History        []llm.Message

	// SkipRetrieval disables context retrieval for this turn.
	SkipRetrieval bool
}

// Response is the orchestrator's answer: either assistant text or a
// function call for the dispatcher. Exactly one of the two is set.
type Response struct {
	Text         string
	FunctionCall *agent.FunctionCallRequest
}

// Orchestrator assembles the prompt and interprets the LLM's reply.
type Orchestrator struct {
	llm       llm.Service
	retriever *retrieval.MessageRetriever
	exporter  *metrics.Exporter
	now       func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the orchestrator's clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics attaches a metrics exporter.
func WithMetrics(exporter *metrics.Exporter) Option {
	return func(o *Orchestrator) { o.exporter = exporter }
}

// NewOrchestrator creates a chat orchestrator. retriever may be nil to
// disable context retrieval.
func NewOrchestrator(llmService llm.Service, retriever *retrieval.MessageRetriever, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:       llmService,
		retriever: retriever,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle runs one chat turn.
func (o *Orchestrator) Handle(ctx context.Context, req *Request) (*Response, error) {
	started := o.now()
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("empty message")
	}
	if req.ActorID <= 0 {
		return nil, fmt.Errorf("missing actor identity")
	}

	messages := o.buildMessages(ctx, req)

	resp, err := o.llm.ChatWithTools(ctx, messages, tools.All())
	if err != nil {
		o.recordChat(started, false)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	// One function call per turn; extra calls are dropped with a warning
	// since the dispatcher handles exactly one action at a time.
	if len(resp.ToolCalls) > 0 {
		if len(resp.ToolCalls) > 1 {
			slog.Warn("model returned multiple tool calls, using the first",
				"count", len(resp.ToolCalls))
		}
		call, err := o.toFunctionCall(req, resp.ToolCalls[0])
		if err != nil {
			o.recordChat(started, false)
			return nil, err
		}
		o.recordChat(started, true)
		return &Response{FunctionCall: call}, nil
	}

	o.recordChat(started, true)
	return &Response{Text: resp.Content}, nil
}

func (o *Orchestrator) recordChat(started time.Time, success bool) {
	if o.exporter != nil {
		o.exporter.RecordChatRequest(o.now().Sub(started), success)
	}
}

// buildMessages assembles system prompt, retrieved context, prior history,
// and the current user message, in that order.
func (o *Orchestrator) buildMessages(ctx context.Context, req *Request) []llm.Message {
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}

	system := fmt.Sprintf(systemPromptTemplate, o.now().In(loc).Format("Monday, 2006-01-02 15:04"), timezone)
	if retrieved := o.retrieveContext(ctx, req); retrieved != "" {
		system += "\n\nRelevant past conversations:\n" + retrieved
	}

	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.SystemPrompt(system))
	messages = append(messages, req.History...)
	messages = append(messages, llm.UserMessage(req.Text))
	return messages
}

// retrieveContext searches past messages for material related to the user's
// input. Retrieval failures degrade to no context rather than failing the
// chat turn.
func (o *Orchestrator) retrieveContext(ctx context.Context, req *Request) string {
	if o.retriever == nil || req.SkipRetrieval {
		return ""
	}

	results, err := o.retriever.Search(ctx, &retrieval.SearchOptions{
		Query:   req.Text,
		ActorID: req.ActorID,
		Limit:   5,
	})
	if err != nil {
		slog.Warn("context retrieval failed", "actor_id", req.ActorID, "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.SenderName, r.Text)
	}
	return b.String()
}

// toFunctionCall converts a model tool call into a dispatchable request.
func (o *Orchestrator) toFunctionCall(req *Request, call llm.ToolCall) (*agent.FunctionCallRequest, error) {
	params := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &params); err != nil {
			return nil, fmt.Errorf("model produced invalid arguments for %s: %w", call.Name, err)
		}
	}

	// The user's timezone rides along unless the model set one explicitly.
	if req.Timezone != "" {
		if _, ok := params["timezone"]; !ok {
			params["timezone"] = req.Timezone
		}
	}

	return &agent.FunctionCallRequest{
		FunctionName:   call.Name,
		Parameters:     params,
		ActorID:        req.ActorID,
		ConversationID: req.ConversationID,
	}, nil
}
