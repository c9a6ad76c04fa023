package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateMessage persists a message.
func (d *DB) CreateMessage(ctx context.Context, message *store.Message) (*store.Message, error) {
	stmt := `
		INSERT INTO message (id, channel_id, sender_id, text, created_ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := d.db.ExecContext(ctx, stmt,
		message.ID,
		message.ChannelID,
		message.SenderID,
		message.Text,
		message.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return message, nil
}

// ListMessages lists messages, newest first.
func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ChannelID != nil {
		where, args = append(where, "channel_id = "+placeholder(len(args)+1)), append(args, *find.ChannelID)
	}

	query := `
		SELECT id, channel_id, sender_id, text, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var message store.Message
		if err := rows.Scan(&message.ID, &message.ChannelID, &message.SenderID, &message.Text, &message.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		list = append(list, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
