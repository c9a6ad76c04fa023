package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateChannel creates a channel.
func (d *DB) CreateChannel(ctx context.Context, channel *store.Channel) (*store.Channel, error) {
	stmt := `
		INSERT INTO channel (uid, name, member_ids, last_message_text, last_message_ts, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		channel.UID,
		channel.Name,
		pq.Array(channel.MemberIDs),
		channel.LastMessageText,
		channel.LastMessageTs,
		channel.CreatedTs,
	).Scan(&channel.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create channel")
	}
	return channel, nil
}

// ListChannels lists channels. MemberID filters to channels whose member
// set contains the given user, using the array containment operator so the
// GIN index on member_ids applies.
func (d *DB) ListChannels(ctx context.Context, find *store.FindChannel) ([]*store.Channel, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_ids @> ARRAY["+placeholder(len(args)+1)+"]::integer[]"), append(args, *find.MemberID)
	}

	query := `
		SELECT id, uid, name, member_ids, last_message_text, last_message_ts, created_ts
		FROM channel
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY last_message_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list channels")
	}
	defer rows.Close()

	list := []*store.Channel{}
	for rows.Next() {
		var channel store.Channel
		var memberIDs pq.Int32Array
		err := rows.Scan(
			&channel.ID,
			&channel.UID,
			&channel.Name,
			&memberIDs,
			&channel.LastMessageText,
			&channel.LastMessageTs,
			&channel.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan channel")
		}
		channel.MemberIDs = memberIDs
		list = append(list, &channel)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// UpdateChannel applies a partial update to a channel.
func (d *DB) UpdateChannel(ctx context.Context, update *store.UpdateChannel) error {
	set, args := []string{}, []any{}

	if update.LastMessageText != nil {
		set, args = append(set, "last_message_text = "+placeholder(len(args)+1)), append(args, *update.LastMessageText)
	}
	if update.LastMessageTs != nil {
		set, args = append(set, "last_message_ts = "+placeholder(len(args)+1)), append(args, *update.LastMessageTs)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := `UPDATE channel SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update channel")
	}
	return nil
}
