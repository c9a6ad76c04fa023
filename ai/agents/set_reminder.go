package agent

import (
	"context"
	"fmt"

	"github.com/coachdesk/coachdesk/server/service/reminder"
)

func (d *Dispatcher) setReminder(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	text := getString(req.Parameters, "text")
	if text == "" {
		return failureResult("text is required")
	}

	timezone := getString(req.Parameters, "timezone")
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc := getTimezoneLocation(timezone)

	dueStr := getString(req.Parameters, "due_time")
	if dueStr == "" {
		return failureResult("due_time is required")
	}
	due, err := parseCallTime(dueStr, loc)
	if err != nil {
		return failureResult(fmt.Sprintf("invalid due_time: %v", err))
	}

	create := &reminder.CreateRequest{
		OwnerID: req.ActorID,
		Text:    text,
		Due:     due,
	}

	// The client the reminder is about, when one is named.
	if name := getString(req.Parameters, "contact_name"); name != "" || hasKey(req.Parameters, "contact_id") {
		candidate, fail := d.contactFromParams(ctx, req.ActorID, req.Parameters, "contact_name")
		if fail != nil {
			return fail
		}
		create.SubjectID = &candidate.PersonID
	}

	created, err := d.reminders.Create(ctx, d.now(), create)
	if err != nil {
		return failureResult(fmt.Sprintf("failed to create reminder: %v", err))
	}

	return successResult(map[string]any{
		"id":   created.ID,
		"text": created.Text,
		"due":  formatTime(created.DueTs, timezone),
	}, fmt.Sprintf("Reminder set for %s.", formatTime(created.DueTs, timezone)))
}
