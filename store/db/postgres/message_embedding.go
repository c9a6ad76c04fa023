package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// UpsertMessageEmbedding inserts or updates a message embedding.
func (d *DB) UpsertMessageEmbedding(ctx context.Context, embedding *store.MessageEmbedding) error {
	stmt := `
		INSERT INTO message_embedding (message_id, channel_id, sender_id, member_ids, text, embedding, model, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (message_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			member_ids = EXCLUDED.member_ids,
			text = EXCLUDED.text
	`
	_, err := d.db.ExecContext(ctx, stmt,
		embedding.MessageID,
		embedding.ChannelID,
		embedding.SenderID,
		pq.Array(embedding.MemberIDs),
		embedding.Text,
		pgvector.NewVector(embedding.Embedding),
		embedding.Model,
		embedding.CreatedTs,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert message embedding")
	}
	return nil
}

// MessageVectorSearch performs cosine similarity search over message
// embeddings. The member_ids containment predicate is the privacy boundary:
// callers only ever see messages from channels they belong to.
// The <=> operator computes cosine distance, so score = 1 - distance and
// ordering by distance ASC yields most similar first.
func (d *DB) MessageVectorSearch(ctx context.Context, opts *store.MessageVectorSearchOptions) ([]*store.MessageMatch, error) {
	where := []string{"member_ids @> ARRAY[$1]::integer[]", "model = $2"}
	vector := pgvector.NewVector(opts.Vector)
	args := []any{opts.MemberID, opts.Model}

	if opts.ChannelID != nil {
		where = append(where, "channel_id = "+placeholder(len(args)+1))
		args = append(args, *opts.ChannelID)
	}

	args = append(args, vector)
	scoreExpr := "1 - (embedding <=> " + placeholder(len(args)) + ")"

	query := `
		SELECT message_id, channel_id, sender_id, text, created_ts, ` + scoreExpr + ` AS score
		FROM message_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + placeholder(len(args)) + `
		LIMIT ` + placeholder(len(args)+1)
	args = append(args, opts.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search message embeddings")
	}
	defer rows.Close()

	results := []*store.MessageMatch{}
	for rows.Next() {
		var match store.MessageMatch
		err := rows.Scan(
			&match.MessageID,
			&match.ChannelID,
			&match.SenderID,
			&match.Text,
			&match.CreatedTs,
			&match.Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan message match")
		}
		results = append(results, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
