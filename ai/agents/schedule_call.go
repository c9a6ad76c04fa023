package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coachdesk/coachdesk/server/service/schedule"
	"github.com/coachdesk/coachdesk/store"
)

const (
	minDurationMinutes     = 5
	maxDurationMinutes     = 480
	defaultDurationMinutes = 30
)

// entrySummary is the Data payload for calendar mutations.
type entrySummary struct {
	ID       int32  `json:"id"`
	UID      string `json:"uid"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
}

func summarizeEntry(entry *store.CalendarEntry) *entrySummary {
	return &entrySummary{
		ID:       entry.ID,
		UID:      entry.UID,
		Title:    entry.Title,
		Start:    formatTime(entry.StartTs, entry.Timezone),
		End:      formatTime(entry.EndTs, entry.Timezone),
		Timezone: entry.Timezone,
		Kind:     string(entry.Kind),
		Status:   string(entry.Status),
	}
}

// classifyEventKind maps a title onto an event kind by keyword. Training
// vocabulary wins over call vocabulary ("training call" is a session).
func classifyEventKind(title string) store.EventKind {
	lower := strings.ToLower(title)
	for _, kw := range []string{"training", "session", "workout", "gym", "exercise", "coaching"} {
		if strings.Contains(lower, kw) {
			return store.EventKindSession
		}
	}
	for _, kw := range []string{"call", "meeting", "meet", "sync", "check-in", "checkin"} {
		if strings.Contains(lower, kw) {
			return store.EventKindCall
		}
	}
	return store.EventKindAdhoc
}

// durationFromParams reads duration_minutes, applying the default and the
// allowed range.
func durationFromParams(params map[string]any) (time.Duration, *FunctionExecutionResult) {
	minutes := defaultDurationMinutes
	if v, ok := getInt(params, "duration_minutes"); ok {
		minutes = v
	} else if _, present := params["duration_minutes"]; present {
		return 0, failureResult("duration_minutes must be a whole number")
	}
	if minutes < minDurationMinutes || minutes > maxDurationMinutes {
		return 0, failureResult(fmt.Sprintf("duration must be between %d and %d minutes", minDurationMinutes, maxDurationMinutes))
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (d *Dispatcher) scheduleCall(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	timezone := getString(req.Parameters, "timezone")
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc := getTimezoneLocation(timezone)

	startStr := getString(req.Parameters, "start_time")
	if startStr == "" {
		return failureResult("start_time is required")
	}
	start, err := parseCallTime(startStr, loc)
	if err != nil {
		return failureResult(fmt.Sprintf("invalid start_time: %v", err))
	}
	if !start.After(d.now()) {
		return failureResult("start_time must be in the future")
	}

	duration, fail := durationFromParams(req.Parameters)
	if fail != nil {
		return fail
	}
	end := start.Add(duration)

	candidate, fail := d.contactFromParams(ctx, req.ActorID, req.Parameters, "contact_name")
	if fail != nil {
		return fail
	}

	title := getString(req.Parameters, "title")
	if title == "" {
		title = fmt.Sprintf("Call with %s", candidate.DisplayName)
	}

	// The kind hint takes precedence over the title for classification.
	kindHint := getString(req.Parameters, "event_kind_hint")
	if kindHint == "" {
		kindHint = title
	}

	if conflictRes := d.checkSlot(ctx, req.ActorID, start, end, duration, loc, timezone, nil); conflictRes != nil {
		return conflictRes
	}

	entry, err := d.schedule.CreateEntry(ctx, req.ActorID, &schedule.CreateEntryRequest{
		SubjectID: &candidate.PersonID,
		Title:     title,
		Start:     start,
		End:       end,
		Timezone:  timezone,
		Kind:      classifyEventKind(kindHint),
		CreatedBy: store.CreatorAssistant,
	})
	if err != nil {
		return failureResult(fmt.Sprintf("failed to create event: %v", err))
	}

	return successResult(summarizeEntry(entry), fmt.Sprintf(
		"Scheduled %q with %s on %s.",
		entry.Title, candidate.DisplayName, formatTime(entry.StartTs, timezone),
	))
}

// checkSlot runs conflict detection and, on conflict, builds the sentinel
// result with alternatives. Returns nil when the slot is free.
func (d *Dispatcher) checkSlot(ctx context.Context, ownerID int32, start, end time.Time, duration time.Duration, loc *time.Location, timezone string, excludeID *int32) *FunctionExecutionResult {
	conflicts, err := d.schedule.CheckConflicts(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return failureResult(fmt.Sprintf("failed to check calendar: %v", err))
	}
	if len(conflicts) == 0 {
		return nil
	}

	report := &ConflictReport{
		Conflicts: make([]ConflictingEntry, 0, len(conflicts)),
	}
	for _, c := range conflicts {
		report.Conflicts = append(report.Conflicts, ConflictingEntry{
			ID:    c.ID,
			Title: c.Title,
			Start: formatTime(c.StartTs, timezone),
			End:   formatTime(c.EndTs, timezone),
		})
	}

	alternatives, err := d.slots.FindAlternativeSlots(ctx, ownerID, start, duration, loc)
	if err == nil {
		for _, alt := range alternatives {
			report.Alternatives = append(report.Alternatives, alt.Format("2006-01-02 15:04 MST"))
		}
	}

	message := fmt.Sprintf("The requested time conflicts with %d existing event(s).", len(conflicts))
	if len(report.Alternatives) > 0 {
		message += " Alternative times are available."
	}
	return sentinelResult(ErrConflictDetected, report, message)
}
