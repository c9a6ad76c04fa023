package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateReminder persists a reminder.
func (d *DB) CreateReminder(ctx context.Context, reminder *store.Reminder) (*store.Reminder, error) {
	stmt := `
		INSERT INTO reminder (owner_id, subject_id, text, due_ts, status, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		reminder.OwnerID,
		reminder.SubjectID,
		reminder.Text,
		reminder.DueTs,
		reminder.Status,
		reminder.CreatedTs,
	).Scan(&reminder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reminder")
	}
	return reminder, nil
}

// ListReminders lists reminders, soonest due first.
func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	query := `
		SELECT id, owner_id, subject_id, text, due_ts, status, created_ts
		FROM reminder
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY due_ts
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reminders")
	}
	defer rows.Close()

	list := []*store.Reminder{}
	for rows.Next() {
		var reminder store.Reminder
		err := rows.Scan(
			&reminder.ID,
			&reminder.OwnerID,
			&reminder.SubjectID,
			&reminder.Text,
			&reminder.DueTs,
			&reminder.Status,
			&reminder.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan reminder")
		}
		list = append(list, &reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
