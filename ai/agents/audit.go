package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coachdesk/coachdesk/store"
)

// auditRecorder writes the audit trail around each dispatch. Every write is
// best-effort: audit failures are logged and never fail the action itself.
type auditRecorder struct {
	store store.AuditStore
	now   func() time.Time
}

// begin appends a pending entry before the handler runs. Returns 0 when the
// write failed; end treats a zero id as a no-op.
func (a *auditRecorder) begin(ctx context.Context, req *FunctionCallRequest) int64 {
	if a.store == nil {
		return 0
	}

	params, err := json.Marshal(req.Parameters)
	if err != nil {
		params = []byte("{}")
	}

	entry := &store.AuditLogEntry{
		ActorID:      req.ActorID,
		FunctionName: req.FunctionName,
		Parameters:   string(params),
		Status:       store.AuditStatusPending,
		CreatedTs:    a.now().Unix(),
	}
	if req.ConversationID != "" {
		entry.ConversationID = &req.ConversationID
	}

	created, err := a.store.CreateAuditLogEntry(ctx, entry)
	if err != nil {
		slog.Warn("failed to write audit entry", "function", req.FunctionName, "error", err)
		return 0
	}
	return created.ID
}

// end records the outcome. Sentinel outcomes (selection, conflict) are not
// terminal: the entry stays pending until the caller follows up.
func (a *auditRecorder) end(ctx context.Context, id int64, result *FunctionExecutionResult) {
	if a.store == nil || id == 0 {
		return
	}
	if result.Error == ErrSelectionRequired || result.Error == ErrConflictDetected {
		return
	}

	status := store.AuditStatusExecuted
	if !result.Success {
		status = store.AuditStatusFailed
	}

	var encoded *string
	if raw, err := json.Marshal(result); err == nil {
		s := string(raw)
		encoded = &s
	}

	executedTs := a.now().Unix()
	if err := a.store.UpdateAuditLogEntryStatus(ctx, id, status, encoded, &executedTs); err != nil {
		slog.Warn("failed to finalize audit entry", "audit_id", id, "error", err)
	}
}
