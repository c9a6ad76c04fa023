package store

import (
	"context"

	"github.com/pkg/errors"
)

// MessageEmbedding stores the vector embedding of a chat message along with
// the metadata the vector index needs for filtering: channel, sender, the
// channel's full member set, timestamp, and the source text.
type MessageEmbedding struct {
	MessageID string
	ChannelID int32
	SenderID  int32
	MemberIDs []int32
	Text      string
	Embedding []float32
	Model     string
	CreatedTs int64
}

// MessageMatch is a vector search hit.
type MessageMatch struct {
	MessageID string
	ChannelID int32
	SenderID  int32
	Text      string
	CreatedTs int64
	Score     float32 // cosine similarity in [0, 1]
}

// MessageVectorSearchOptions are the options for message vector search.
// MemberID is the privacy boundary: only messages from channels whose member
// set contains this user are ever returned.
type MessageVectorSearchOptions struct {
	Vector    []float32
	MemberID  int32
	ChannelID *int32
	Model     string
	Limit     int
}

// Validate validates the search options, filling the default limit.
func (o *MessageVectorSearchOptions) Validate() error {
	if o.MemberID <= 0 {
		return errors.Errorf("invalid MemberID: %d", o.MemberID)
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	return nil
}

// UpsertMessageEmbedding inserts or updates a message embedding.
func (s *Store) UpsertMessageEmbedding(ctx context.Context, embedding *MessageEmbedding) error {
	return s.driver.UpsertMessageEmbedding(ctx, embedding)
}

// MessageVectorSearch performs vector similarity search over message embeddings.
func (s *Store) MessageVectorSearch(ctx context.Context, opts *MessageVectorSearchOptions) ([]*MessageMatch, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.MessageVectorSearch(ctx, opts)
}
