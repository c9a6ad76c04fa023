package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coachdesk/coachdesk/ai/core/retrieval"
	"github.com/coachdesk/coachdesk/ai/metrics"
	"github.com/coachdesk/coachdesk/server/service/contact"
	"github.com/coachdesk/coachdesk/server/service/messaging"
	"github.com/coachdesk/coachdesk/server/service/reminder"
	"github.com/coachdesk/coachdesk/server/service/schedule"
	"github.com/coachdesk/coachdesk/store"
)

// Function names accepted by the dispatcher.
const (
	FnScheduleCall    = "scheduleCall"
	FnSetReminder     = "setReminder"
	FnSendMessage     = "sendMessage"
	FnSearchMessages  = "searchMessages"
	FnRescheduleEvent = "rescheduleEvent"
	FnCancelEvent     = "cancelEvent"
)

// Dispatcher routes function calls to the business services. Dispatch never
// returns an error and never panics outward: every outcome, including a
// handler panic, becomes a FunctionExecutionResult.
type Dispatcher struct {
	resolver  *contact.Resolver
	schedule  schedule.Service
	slots     *schedule.ConflictResolver
	messaging *messaging.Service
	reminders *reminder.Service
	retriever *retrieval.MessageRetriever
	audit     *auditRecorder
	exporter  *metrics.Exporter
	now       func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the dispatcher's clock.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithMetrics attaches a metrics exporter.
func WithMetrics(exporter *metrics.Exporter) Option {
	return func(d *Dispatcher) { d.exporter = exporter }
}

// NewDispatcher wires the dispatcher. auditStore may be nil to disable the
// audit trail (tests); the retriever may be nil when search is not
// configured.
func NewDispatcher(
	resolver *contact.Resolver,
	scheduleService schedule.Service,
	slots *schedule.ConflictResolver,
	messagingService *messaging.Service,
	reminderService *reminder.Service,
	retriever *retrieval.MessageRetriever,
	auditStore store.AuditStore,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		resolver:  resolver,
		schedule:  scheduleService,
		slots:     slots,
		messaging: messagingService,
		reminders: reminderService,
		retriever: retriever,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.audit = &auditRecorder{store: auditStore, now: d.now}
	return d
}

// Dispatch executes one function call and returns the uniform envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FunctionCallRequest) (result *FunctionExecutionResult) {
	started := d.now()
	logger := slog.With(
		"function", req.FunctionName,
		"actor_id", req.ActorID,
	)

	var auditID int64
	defer func() {
		outcome := outcomeLabel(result)
		if r := recover(); r != nil {
			logger.Error("function handler panicked", "panic", r)
			result = failureResult(fmt.Sprintf("internal error executing %s", req.FunctionName))
			// The pending audit entry still needs its terminal status.
			d.audit.end(ctx, auditID, result)
			outcome = "panic"
		}
		d.record(req.FunctionName, outcome, d.now().Sub(started))
	}()

	if req.ActorID <= 0 {
		return failureResult("missing actor identity")
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	auditID = d.audit.begin(ctx, req)

	switch req.FunctionName {
	case FnScheduleCall:
		result = d.scheduleCall(ctx, req)
	case FnSetReminder:
		result = d.setReminder(ctx, req)
	case FnSendMessage:
		result = d.sendMessage(ctx, req)
	case FnSearchMessages:
		result = d.searchMessages(ctx, req)
	case FnRescheduleEvent:
		result = d.rescheduleEvent(ctx, req)
	case FnCancelEvent:
		result = d.cancelEvent(ctx, req)
	default:
		result = failureResult(fmt.Sprintf("unknown function: %s", req.FunctionName))
	}

	d.audit.end(ctx, auditID, result)
	logger.Info("function dispatched", "success", result.Success, "error", result.Error)
	return result
}

func outcomeLabel(result *FunctionExecutionResult) string {
	switch {
	case result == nil:
		return "panic"
	case result.Error == ErrSelectionRequired:
		return "selection_required"
	case result.Error == ErrConflictDetected:
		return "conflict_detected"
	case !result.Success:
		return "failed"
	}
	return "success"
}

func (d *Dispatcher) record(function, outcome string, latency time.Duration) {
	if d.exporter == nil {
		return
	}
	d.exporter.RecordFunctionCall(function, outcome, latency)
}

// resolveContact runs name resolution and folds the zero / many cases into
// result envelopes. A nil result means exactly one candidate was found.
func (d *Dispatcher) resolveContact(ctx context.Context, actorID int32, name string) (*contact.Candidate, *FunctionExecutionResult) {
	candidates, err := d.resolver.Resolve(ctx, actorID, name)
	if err != nil {
		return nil, failureResult(fmt.Sprintf("could not resolve %q: %v", name, err))
	}
	switch len(candidates) {
	case 0:
		return nil, failureResult(fmt.Sprintf("no contact named %q found", name))
	case 1:
		return candidates[0], nil
	}

	options := make([]SelectionOption, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, SelectionOption{
			ID:       c.PersonID,
			Title:    c.DisplayName,
			Subtitle: c.Email,
		})
	}
	return nil, sentinelResult(ErrSelectionRequired, &SelectionRequest{
		Prompt:  fmt.Sprintf("Multiple contacts match %q. Who did you mean?", name),
		Options: options,
	}, fmt.Sprintf("%d contacts match %q", len(candidates), name))
}

// contactFromParams resolves the target person either from an explicit
// contact_id (the answer to an earlier selection request) or by name.
func (d *Dispatcher) contactFromParams(ctx context.Context, actorID int32, params map[string]any, nameKey string) (*contact.Candidate, *FunctionExecutionResult) {
	if id, ok := getInt(params, "contact_id"); ok {
		candidate, err := d.resolver.Lookup(ctx, actorID, int32(id))
		if err != nil {
			return nil, failureResult(fmt.Sprintf("could not load contact %d: %v", id, err))
		}
		if candidate == nil {
			return nil, failureResult(fmt.Sprintf("contact %d not found or not reachable", id))
		}
		return candidate, nil
	}

	name := getString(params, nameKey)
	if name == "" {
		return nil, failureResult(fmt.Sprintf("%s is required", nameKey))
	}
	return d.resolveContact(ctx, actorID, name)
}
