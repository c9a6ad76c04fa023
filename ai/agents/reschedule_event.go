package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/server/service/schedule"
	"github.com/coachdesk/coachdesk/store"
)

// loadOwnedEvent fetches an event and enforces that the actor owns it. The
// not-found and not-owned cases return the same message so probing for other
// people's event ids leaks nothing.
func (d *Dispatcher) loadOwnedEvent(ctx context.Context, actorID int32, params map[string]any) (*store.CalendarEntry, *FunctionExecutionResult) {
	id, ok := getInt(params, "event_id")
	if !ok {
		return nil, failureResult("event_id is required")
	}

	entry, err := d.schedule.GetEntry(ctx, int32(id))
	if err != nil {
		return nil, failureResult(fmt.Sprintf("failed to load event: %v", err))
	}
	if entry == nil || entry.OwnerID != actorID {
		return nil, failureResult(fmt.Sprintf("event %d not found", id))
	}
	return entry, nil
}

func (d *Dispatcher) rescheduleEvent(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	entry, fail := d.loadOwnedEvent(ctx, req.ActorID, req.Parameters)
	if fail != nil {
		return fail
	}
	if entry.Status == store.EventStatusCancelled {
		return failureResult(fmt.Sprintf("event %d is cancelled and cannot be rescheduled", entry.ID))
	}

	timezone := getString(req.Parameters, "timezone")
	if timezone == "" {
		timezone = entry.Timezone
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc := getTimezoneLocation(timezone)

	startStr := getString(req.Parameters, "new_start_time")
	if startStr == "" {
		return failureResult("new_start_time is required")
	}
	start, err := parseCallTime(startStr, loc)
	if err != nil {
		return failureResult(fmt.Sprintf("invalid new_start_time: %v", err))
	}
	if !start.After(d.now()) {
		return failureResult("new_start_time must be in the future")
	}

	// Keep the original duration unless the caller changes it.
	duration := time.Duration(entry.EndTs-entry.StartTs) * time.Second
	if hasKey(req.Parameters, "duration_minutes") {
		duration, fail = durationFromParams(req.Parameters)
		if fail != nil {
			return fail
		}
	}
	end := start.Add(duration)

	// The event being moved must not conflict with itself.
	if conflictRes := d.checkSlot(ctx, req.ActorID, start, end, duration, loc, timezone, &entry.ID); conflictRes != nil {
		return conflictRes
	}

	updated, err := d.schedule.UpdateEntry(ctx, entry.ID, &schedule.UpdateEntryRequest{
		Start: &start,
		End:   &end,
	})
	if err != nil {
		return failureResult(fmt.Sprintf("failed to reschedule event: %v", err))
	}

	return successResult(summarizeEntry(updated), fmt.Sprintf(
		"Rescheduled %q to %s.", updated.Title, formatTime(updated.StartTs, timezone),
	))
}

func (d *Dispatcher) cancelEvent(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	entry, fail := d.loadOwnedEvent(ctx, req.ActorID, req.Parameters)
	if fail != nil {
		return fail
	}
	if entry.Status == store.EventStatusCancelled {
		return failureResult(fmt.Sprintf("event %d is already cancelled", entry.ID))
	}

	cancelled, err := d.schedule.CancelEntry(ctx, entry.ID)
	if err != nil {
		return failureResult(fmt.Sprintf("failed to cancel event: %v", err))
	}

	return successResult(summarizeEntry(cancelled), fmt.Sprintf("Cancelled %q.", cancelled.Title))
}
