package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateCalendarEntry persists a calendar entry.
func (d *DB) CreateCalendarEntry(ctx context.Context, entry *store.CalendarEntry) (*store.CalendarEntry, error) {
	stmt := `
		INSERT INTO calendar_entry (uid, owner_id, subject_id, title, start_ts, end_ts, timezone, kind, status, created_by, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		entry.UID,
		entry.OwnerID,
		entry.SubjectID,
		entry.Title,
		entry.StartTs,
		entry.EndTs,
		entry.Timezone,
		entry.Kind,
		entry.Status,
		entry.CreatedBy,
		entry.CreatedTs,
		entry.UpdatedTs,
	).Scan(&entry.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar entry")
	}
	return entry, nil
}

// ListCalendarEntries lists calendar entries. The start-time bounds express
// the coarse range scan; precise overlap filtering is done by the caller.
func (d *DB) ListCalendarEntries(ctx context.Context, find *store.FindCalendarEntry) ([]*store.CalendarEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.OwnerID != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *find.OwnerID)
	}
	if find.StartTsAfter != nil {
		where, args = append(where, "start_ts >= "+placeholder(len(args)+1)), append(args, *find.StartTsAfter)
	}
	if find.StartTsBefore != nil {
		where, args = append(where, "start_ts <= "+placeholder(len(args)+1)), append(args, *find.StartTsBefore)
	}
	for _, status := range find.ExcludeStatus {
		where, args = append(where, "status != "+placeholder(len(args)+1)), append(args, status)
	}

	query := `
		SELECT id, uid, owner_id, subject_id, title, start_ts, end_ts, timezone, kind, status, created_by, created_ts, updated_ts
		FROM calendar_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_ts
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list calendar entries")
	}
	defer rows.Close()

	list := []*store.CalendarEntry{}
	for rows.Next() {
		var entry store.CalendarEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.OwnerID,
			&entry.SubjectID,
			&entry.Title,
			&entry.StartTs,
			&entry.EndTs,
			&entry.Timezone,
			&entry.Kind,
			&entry.Status,
			&entry.CreatedBy,
			&entry.CreatedTs,
			&entry.UpdatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan calendar entry")
		}
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// UpdateCalendarEntry applies a partial update and returns the updated entry.
func (d *DB) UpdateCalendarEntry(ctx context.Context, update *store.UpdateCalendarEntry) (*store.CalendarEntry, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.StartTs != nil {
		set, args = append(set, "start_ts = "+placeholder(len(args)+1)), append(args, *update.StartTs)
	}
	if update.EndTs != nil {
		set, args = append(set, "end_ts = "+placeholder(len(args)+1)), append(args, *update.EndTs)
	}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())::BIGINT")
	args = append(args, update.ID)

	stmt := `
		UPDATE calendar_entry
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, owner_id, subject_id, title, start_ts, end_ts, timezone, kind, status, created_by, created_ts, updated_ts
	`

	var entry store.CalendarEntry
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&entry.ID,
		&entry.UID,
		&entry.OwnerID,
		&entry.SubjectID,
		&entry.Title,
		&entry.StartTs,
		&entry.EndTs,
		&entry.Timezone,
		&entry.Kind,
		&entry.Status,
		&entry.CreatedBy,
		&entry.CreatedTs,
		&entry.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update calendar entry")
	}
	return &entry, nil
}
