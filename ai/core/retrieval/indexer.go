package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/ai/core/embedding"
	"github.com/coachdesk/coachdesk/store"
)

// MessageIndexer embeds message text and writes it into the vector index so
// later searches can find it. One row per (message, model).
type MessageIndexer struct {
	store    *store.Store
	embedder embedding.Provider
}

// NewMessageIndexer creates a message indexer.
func NewMessageIndexer(st *store.Store, embedder embedding.Provider) *MessageIndexer {
	return &MessageIndexer{store: st, embedder: embedder}
}

// IndexMessage embeds the message text and upserts the embedding together
// with the channel membership snapshot used for privacy filtering.
func (i *MessageIndexer) IndexMessage(ctx context.Context, message *store.Message, memberIDs []int32) error {
	if message.Text == "" {
		return nil
	}

	vector, err := i.embedder.Embed(ctx, message.Text)
	if err != nil {
		return fmt.Errorf("failed to embed message %s: %w", message.ID, err)
	}

	return i.store.UpsertMessageEmbedding(ctx, &store.MessageEmbedding{
		MessageID: message.ID,
		ChannelID: message.ChannelID,
		SenderID:  message.SenderID,
		MemberIDs: memberIDs,
		Text:      message.Text,
		Embedding: vector,
		Model:     i.embedder.Model(),
		CreatedTs: time.Now().Unix(),
	})
}
