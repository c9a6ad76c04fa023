package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/server/service/contact"
	"github.com/coachdesk/coachdesk/server/service/messaging"
	"github.com/coachdesk/coachdesk/server/service/reminder"
	"github.com/coachdesk/coachdesk/server/service/schedule"
	"github.com/coachdesk/coachdesk/store"
	"github.com/coachdesk/coachdesk/store/db/memory"
)

// testNow is the fixed clock all dispatcher tests run against.
var testNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store      *store.Store
	dispatcher *Dispatcher
	actorID    int32
	clients    map[string]int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(memory.NewDB(), &profile.Profile{Mode: "dev", Driver: "memory"})
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	trainer, err := st.CreateUser(ctx, &store.User{DisplayName: "Coach Taylor"})
	require.NoError(t, err)

	f := &fixture{store: st, actorID: trainer.ID, clients: map[string]int32{}}
	for _, name := range []string{"Mike Johnson", "Mike Chen", "Sarah Lee"} {
		user, err := st.CreateUser(ctx, &store.User{DisplayName: name})
		require.NoError(t, err)
		_, err = st.CreateChannel(ctx, &store.Channel{
			UID:       "ch-" + name,
			MemberIDs: []int32{trainer.ID, user.ID},
		})
		require.NoError(t, err)
		f.clients[name] = user.ID
	}

	scheduleService := schedule.NewService(st)
	f.dispatcher = NewDispatcher(
		contact.NewResolver(st),
		scheduleService,
		schedule.NewConflictResolver(scheduleService),
		messaging.NewService(st, nil),
		reminder.NewService(st),
		nil, // retriever not configured in these tests
		st.AuditStore,
		WithClock(func() time.Time { return testNow }),
	)
	return f
}

func (f *fixture) dispatch(t *testing.T, function string, params map[string]any) *FunctionExecutionResult {
	t.Helper()
	return f.dispatcher.Dispatch(context.Background(), &FunctionCallRequest{
		FunctionName: function,
		Parameters:   params,
		ActorID:      f.actorID,
	})
}

func TestDispatchScheduleCall(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name": "Sarah Lee",
		"start_time":   "2026-09-02T10:00:00Z",
		"title":        "Strength training session",
	})
	require.True(t, result.Success, result.Message)
	require.Empty(t, result.Error)

	summary, ok := result.Data.(*entrySummary)
	require.True(t, ok)
	require.Equal(t, "Strength training session", summary.Title)
	require.Equal(t, string(store.EventKindSession), summary.Kind)

	entries, err := f.store.ListCalendarEntries(context.Background(), &store.FindCalendarEntry{OwnerID: &f.actorID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, store.CreatorAssistant, entries[0].CreatedBy)
	require.Equal(t, f.clients["Sarah Lee"], *entries[0].SubjectID)
}

func TestDispatchScheduleCallKindClassification(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		title string
		hint  string
		start string
		want  store.EventKind
	}{
		{"hint wins over title", "Catch up", "weekly workout", "2026-09-02T09:00:00Z", store.EventKindSession},
		{"title used without hint", "Quick sync", "", "2026-09-02T10:00:00Z", store.EventKindCall},
		{"training beats call", "", "training call", "2026-09-02T11:00:00Z", store.EventKindSession},
		{"no keywords", "Lunch", "", "2026-09-02T12:00:00Z", store.EventKindAdhoc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]any{
				"contact_name": "Sarah Lee",
				"start_time":   tt.start,
			}
			if tt.title != "" {
				params["title"] = tt.title
			}
			if tt.hint != "" {
				params["event_kind_hint"] = tt.hint
			}
			result := f.dispatch(t, FnScheduleCall, params)
			require.True(t, result.Success, result.Message)
			summary, ok := result.Data.(*entrySummary)
			require.True(t, ok)
			require.Equal(t, string(tt.want), summary.Kind)
		})
	}
}

func TestDispatchScheduleCallValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"past start time", map[string]any{
			"contact_name": "Sarah Lee", "start_time": "2026-08-31T10:00:00Z",
		}},
		{"start equals now", map[string]any{
			"contact_name": "Sarah Lee", "start_time": "2026-09-01T08:00:00Z",
		}},
		{"duration too short", map[string]any{
			"contact_name": "Sarah Lee", "start_time": "2026-09-02T10:00:00Z", "duration_minutes": float64(4),
		}},
		{"duration too long", map[string]any{
			"contact_name": "Sarah Lee", "start_time": "2026-09-02T10:00:00Z", "duration_minutes": float64(481),
		}},
		{"missing start", map[string]any{"contact_name": "Sarah Lee"}},
		{"garbage time", map[string]any{"contact_name": "Sarah Lee", "start_time": "tomorrow-ish"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.dispatch(t, FnScheduleCall, tt.params)
			require.False(t, result.Success)
			require.NotEqual(t, ErrSelectionRequired, result.Error)
			require.NotEqual(t, ErrConflictDetected, result.Error)
		})
	}
}

func TestDispatchScheduleCallAmbiguousName(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name": "Mike",
		"start_time":   "2026-09-02T10:00:00Z",
	})
	require.False(t, result.Success)
	require.Equal(t, ErrSelectionRequired, result.Error)

	selection, ok := result.Data.(*SelectionRequest)
	require.True(t, ok)
	require.Len(t, selection.Options, 2)

	// Follow up with the chosen id; resolution is bypassed.
	result = f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_id": float64(f.clients["Mike Chen"]),
		"start_time": "2026-09-02T10:00:00Z",
	})
	require.True(t, result.Success, result.Message)
}

func TestDispatchScheduleCallConflict(t *testing.T) {
	f := newFixture(t)

	first := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name":     "Sarah Lee",
		"start_time":       "2026-09-02T10:00:00Z",
		"duration_minutes": float64(60),
	})
	require.True(t, first.Success)

	result := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name":     "Mike Chen",
		"start_time":       "2026-09-02T10:30:00Z",
		"duration_minutes": float64(60),
	})
	require.False(t, result.Success)
	require.Equal(t, ErrConflictDetected, result.Error)

	report, ok := result.Data.(*ConflictReport)
	require.True(t, ok)
	require.Len(t, report.Conflicts, 1)
	require.NotEmpty(t, report.Alternatives)
	require.LessOrEqual(t, len(report.Alternatives), 3)

	// Only the conflicting booking exists.
	entries, err := f.store.ListCalendarEntries(context.Background(), &store.FindCalendarEntry{OwnerID: &f.actorID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDispatchSetReminder(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnSetReminder, map[string]any{
		"text":         "Ask Sarah about her ankle",
		"due_time":     "2026-09-03T09:00:00Z",
		"contact_name": "Sarah Lee",
	})
	require.True(t, result.Success, result.Message)

	pending, err := reminder.NewService(f.store).ListPending(context.Background(), f.actorID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, f.clients["Sarah Lee"], *pending[0].SubjectID)
}

func TestDispatchSetReminderBackdated(t *testing.T) {
	f := newFixture(t)

	// Three days back: inside the grace window.
	result := f.dispatch(t, FnSetReminder, map[string]any{
		"text":     "Log Friday's missed session",
		"due_time": "2026-08-29T09:00:00Z",
	})
	require.True(t, result.Success, result.Message)

	// Ten days back: rejected.
	result = f.dispatch(t, FnSetReminder, map[string]any{
		"text":     "Ancient history",
		"due_time": "2026-08-22T09:00:00Z",
	})
	require.False(t, result.Success)
}

func TestDispatchSendMessage(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnSendMessage, map[string]any{
		"recipient_name": "Sarah Lee",
		"text":           "Don't forget tomorrow's session!",
	})
	require.True(t, result.Success, result.Message)
	require.Contains(t, result.Message, "Sarah Lee")

	result = f.dispatch(t, FnSendMessage, map[string]any{
		"recipient_name": "Mike",
		"text":           "hello",
	})
	require.Equal(t, ErrSelectionRequired, result.Error)
}

func TestDispatchSearchMessagesNotConfigured(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnSearchMessages, map[string]any{"query": "knee pain"})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "not configured")
}

func TestDispatchRescheduleEvent(t *testing.T) {
	f := newFixture(t)

	created := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name":     "Sarah Lee",
		"start_time":       "2026-09-02T10:00:00Z",
		"duration_minutes": float64(60),
	})
	require.True(t, created.Success)
	eventID := created.Data.(*entrySummary).ID

	// Moving the event onto an overlapping slot of itself is fine.
	result := f.dispatch(t, FnRescheduleEvent, map[string]any{
		"event_id":       float64(eventID),
		"new_start_time": "2026-09-02T10:30:00Z",
	})
	require.True(t, result.Success, result.Message)

	// Duration carried over: still 60 minutes.
	entry, err := f.store.GetCalendarEntry(context.Background(), eventID)
	require.NoError(t, err)
	require.Equal(t, int64(3600), entry.EndTs-entry.StartTs)
}

func TestDispatchRescheduleEventOwnership(t *testing.T) {
	f := newFixture(t)

	// An entry owned by someone else is invisible to the actor.
	other := f.clients["Mike Chen"]
	svc := schedule.NewService(f.store)
	entry, err := svc.CreateEntry(context.Background(), other, &schedule.CreateEntryRequest{
		Title: "Private",
		Start: testNow.Add(24 * time.Hour),
		End:   testNow.Add(25 * time.Hour),
		Kind:  store.EventKindAdhoc,
	})
	require.NoError(t, err)

	result := f.dispatch(t, FnRescheduleEvent, map[string]any{
		"event_id":       float64(entry.ID),
		"new_start_time": "2026-09-03T10:00:00Z",
	})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "not found")
}

func TestDispatchCancelEvent(t *testing.T) {
	f := newFixture(t)

	created := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name": "Sarah Lee",
		"start_time":   "2026-09-02T10:00:00Z",
	})
	require.True(t, created.Success)
	eventID := created.Data.(*entrySummary).ID

	result := f.dispatch(t, FnCancelEvent, map[string]any{"event_id": float64(eventID)})
	require.True(t, result.Success, result.Message)

	// Cancelling again fails cleanly.
	result = f.dispatch(t, FnCancelEvent, map[string]any{"event_id": float64(eventID)})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "already cancelled")

	// The freed slot is bookable again.
	rebooked := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name": "Mike Chen",
		"start_time":   "2026-09-02T10:00:00Z",
	})
	require.True(t, rebooked.Success, rebooked.Message)
}

func TestDispatchUnknownFunction(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, "launchRocket", nil)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "unknown function")
}

func TestDispatchMissingActor(t *testing.T) {
	f := newFixture(t)

	result := f.dispatcher.Dispatch(context.Background(), &FunctionCallRequest{
		FunctionName: FnCancelEvent,
		Parameters:   map[string]any{"event_id": float64(1)},
	})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "actor")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	f := newFixture(t)

	// A dispatcher wired with a nil schedule service panics inside the
	// handler; the panic must not escape Dispatch.
	broken := NewDispatcher(
		contact.NewResolver(f.store),
		nil, nil, nil, nil, nil,
		f.store.AuditStore,
		WithClock(func() time.Time { return testNow }),
	)
	result := broken.Dispatch(context.Background(), &FunctionCallRequest{
		FunctionName: FnScheduleCall,
		ActorID:      f.actorID,
		Parameters: map[string]any{
			"contact_name": "Sarah Lee",
			"start_time":   "2026-09-02T10:00:00Z",
		},
	})
	require.False(t, result.Success)
	require.Contains(t, result.Message, "internal error")

	// The pending audit entry must still reach a terminal status.
	entries, err := f.store.AuditStore.ListAuditLogEntries(context.Background(), &store.FindAuditLogEntry{ActorID: &f.actorID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, store.AuditStatusFailed, entries[0].Status)
	require.NotNil(t, entries[0].ExecutedTs)
}

func TestDispatchWritesAuditTrail(t *testing.T) {
	f := newFixture(t)

	ok := f.dispatch(t, FnScheduleCall, map[string]any{
		"contact_name": "Sarah Lee",
		"start_time":   "2026-09-02T10:00:00Z",
	})
	require.True(t, ok.Success)

	failed := f.dispatch(t, FnCancelEvent, map[string]any{"event_id": float64(999)})
	require.False(t, failed.Success)

	entries, err := f.store.AuditStore.ListAuditLogEntries(context.Background(), &store.FindAuditLogEntry{ActorID: &f.actorID})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byFunction := map[string]*store.AuditLogEntry{}
	for _, e := range entries {
		byFunction[e.FunctionName] = e
	}
	require.Equal(t, store.AuditStatusExecuted, byFunction[FnScheduleCall].Status)
	require.NotNil(t, byFunction[FnScheduleCall].ExecutedTs)
	require.Equal(t, store.AuditStatusFailed, byFunction[FnCancelEvent].Status)
}

func TestDispatchAuditKeepsSentinelsPending(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(t, FnSendMessage, map[string]any{
		"recipient_name": "Mike",
		"text":           "hi",
	})
	require.Equal(t, ErrSelectionRequired, result.Error)

	entries, err := f.store.AuditStore.ListAuditLogEntries(context.Background(), &store.FindAuditLogEntry{ActorID: &f.actorID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, store.AuditStatusPending, entries[0].Status)
}
