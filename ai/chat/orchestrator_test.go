package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/ai/core/llm"
)

type scriptedLLM struct {
	response *llm.ChatResponse
	err      error

	gotMessages []llm.Message
	gotTools    []llm.ToolDescriptor
}

func (s *scriptedLLM) Chat(_ context.Context, _ []llm.Message) (string, error) {
	return "", nil
}

func (s *scriptedLLM) ChatWithTools(_ context.Context, messages []llm.Message, tools []llm.ToolDescriptor) (*llm.ChatResponse, error) {
	s.gotMessages = messages
	s.gotTools = tools
	return s.response, s.err
}

func (s *scriptedLLM) Warmup(_ context.Context) {}

var chatNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func newOrchestratorWithLLM(svc llm.Service) *Orchestrator {
	return NewOrchestrator(svc, nil, WithClock(func() time.Time { return chatNow }))
}

func TestHandlePlainTextReply(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{Content: "You have no sessions today."}}
	o := newOrchestratorWithLLM(mock)

	resp, err := o.Handle(context.Background(), &Request{
		ActorID: 1,
		Text:    "What's on my calendar?",
	})
	require.NoError(t, err)
	require.Nil(t, resp.FunctionCall)
	require.Equal(t, "You have no sessions today.", resp.Text)

	// All six functions are offered on every turn.
	require.Len(t, mock.gotTools, 6)
}

func TestHandleFunctionCall(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{
		ToolCalls: []llm.ToolCall{{
			ID:        "call_1",
			Name:      "scheduleCall",
			Arguments: `{"contact_name": "Mike", "start_time": "2026-09-02T15:00:00", "duration_minutes": 60}`,
		}},
	}}
	o := newOrchestratorWithLLM(mock)

	resp, err := o.Handle(context.Background(), &Request{
		ActorID:        7,
		ConversationID: "conv-42",
		Text:           "Book a call with Mike tomorrow at 3pm",
		Timezone:       "America/New_York",
	})
	require.NoError(t, err)
	require.Empty(t, resp.Text)
	require.NotNil(t, resp.FunctionCall)

	call := resp.FunctionCall
	require.Equal(t, "scheduleCall", call.FunctionName)
	require.Equal(t, int32(7), call.ActorID)
	require.Equal(t, "conv-42", call.ConversationID)
	require.Equal(t, "Mike", call.Parameters["contact_name"])
	require.Equal(t, float64(60), call.Parameters["duration_minutes"])

	// The user's timezone is threaded through when the model omitted it.
	require.Equal(t, "America/New_York", call.Parameters["timezone"])
}

func TestHandleKeepsModelTimezone(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{
		ToolCalls: []llm.ToolCall{{
			Name:      "setReminder",
			Arguments: `{"text": "stretch", "due_time": "2026-09-02T09:00:00", "timezone": "Europe/Berlin"}`,
		}},
	}}
	o := newOrchestratorWithLLM(mock)

	resp, err := o.Handle(context.Background(), &Request{
		ActorID:  1,
		Text:     "remind me to stretch",
		Timezone: "America/New_York",
	})
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", resp.FunctionCall.Parameters["timezone"])
}

func TestHandleInvalidToolArguments(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{
		ToolCalls: []llm.ToolCall{{Name: "scheduleCall", Arguments: "{not json"}},
	}}
	o := newOrchestratorWithLLM(mock)

	_, err := o.Handle(context.Background(), &Request{ActorID: 1, Text: "book it"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid arguments")
}

func TestHandleSystemPromptCarriesLocalTime(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{Content: "ok"}}
	o := newOrchestratorWithLLM(mock)

	_, err := o.Handle(context.Background(), &Request{
		ActorID:  1,
		Text:     "hi",
		Timezone: "America/New_York",
	})
	require.NoError(t, err)
	require.NotEmpty(t, mock.gotMessages)

	system := mock.gotMessages[0]
	require.Equal(t, "system", system.Role)
	// 08:00 UTC is 04:00 in New York.
	require.Contains(t, system.Content, "04:00")
	require.Contains(t, system.Content, "America/New_York")
}

func TestHandleHistoryOrdering(t *testing.T) {
	mock := &scriptedLLM{response: &llm.ChatResponse{Content: "ok"}}
	o := newOrchestratorWithLLM(mock)

	_, err := o.Handle(context.Background(), &Request{
		ActorID: 1,
		Text:    "and tomorrow?",
		History: []llm.Message{
			llm.UserMessage("what's today?"),
			llm.AssistantMessage("One session at 10:00."),
		},
	})
	require.NoError(t, err)
	require.Len(t, mock.gotMessages, 4)
	require.Equal(t, "system", mock.gotMessages[0].Role)
	require.Equal(t, "what's today?", mock.gotMessages[1].Content)
	require.Equal(t, "and tomorrow?", mock.gotMessages[3].Content)
}

func TestHandleEmptyInput(t *testing.T) {
	o := newOrchestratorWithLLM(&scriptedLLM{})

	_, err := o.Handle(context.Background(), &Request{ActorID: 1, Text: "   "})
	require.Error(t, err)

	_, err = o.Handle(context.Background(), &Request{Text: "hello"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "actor"))
}
