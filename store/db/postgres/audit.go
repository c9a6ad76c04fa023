package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateAuditLogEntry appends an audit record.
func (d *DB) CreateAuditLogEntry(ctx context.Context, entry *store.AuditLogEntry) (*store.AuditLogEntry, error) {
	stmt := `
		INSERT INTO audit_log (actor_id, function_name, parameters, status, result, conversation_id, created_ts, executed_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		entry.ActorID,
		entry.FunctionName,
		entry.Parameters,
		entry.Status,
		entry.Result,
		entry.ConversationID,
		entry.CreatedTs,
		entry.ExecutedTs,
	).Scan(&entry.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create audit log entry")
	}
	return entry, nil
}

// UpdateAuditLogEntryStatus updates the status and result of an entry in place.
func (d *DB) UpdateAuditLogEntryStatus(ctx context.Context, id int64, status store.AuditStatus, result *string, executedTs *int64) error {
	stmt := `
		UPDATE audit_log
		SET status = $1, result = COALESCE($2, result), executed_ts = COALESCE($3, executed_ts)
		WHERE id = $4
	`
	if _, err := d.db.ExecContext(ctx, stmt, status, result, executedTs, id); err != nil {
		return errors.Wrap(err, "failed to update audit log entry")
	}
	return nil
}

// ListAuditLogEntries retrieves entries, newest first.
func (d *DB) ListAuditLogEntries(ctx context.Context, find *store.FindAuditLogEntry) ([]*store.AuditLogEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ActorID != nil {
		where, args = append(where, "actor_id = "+placeholder(len(args)+1)), append(args, *find.ActorID)
	}
	if find.FunctionName != nil {
		where, args = append(where, "function_name = "+placeholder(len(args)+1)), append(args, *find.FunctionName)
	}

	query := `
		SELECT id, actor_id, function_name, parameters, status, result, conversation_id, created_ts, executed_ts
		FROM audit_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}
	if find.Offset > 0 {
		args = append(args, find.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit log entries")
	}
	defer rows.Close()

	list := []*store.AuditLogEntry{}
	for rows.Next() {
		var entry store.AuditLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.FunctionName,
			&entry.Parameters,
			&entry.Status,
			&entry.Result,
			&entry.ConversationID,
			&entry.CreatedTs,
			&entry.ExecutedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan audit log entry")
		}
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
