// Package messaging sends messages into channels and keeps the semantic
// index of message content current.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachdesk/coachdesk/store"
)

// Indexer embeds message text and upserts the result into the vector
// index. Implementations must be safe for concurrent use.
type Indexer interface {
	IndexMessage(ctx context.Context, message *store.Message, memberIDs []int32) error
}

// Service delivers messages on behalf of an authenticated actor.
type Service struct {
	store   *store.Store
	indexer Indexer
}

// NewService creates the messaging service. indexer may be nil, in which
// case sent messages are not searchable until reindexed.
func NewService(st *store.Store, indexer Indexer) *Service {
	return &Service{store: st, indexer: indexer}
}

// SendMessage persists a message from the actor into the channel. The actor
// must be a member of the channel. Indexing the message for semantic search
// is best-effort: an indexing failure never fails the send.
func (s *Service) SendMessage(ctx context.Context, actorID int32, channelID int32, text string) (*store.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("message text cannot be empty")
	}

	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %d not found", channelID)
	}
	if !channel.HasMember(actorID) {
		return nil, fmt.Errorf("actor %d is not a member of channel %d", actorID, channelID)
	}

	now := time.Now().Unix()
	message, err := s.store.CreateMessage(ctx, &store.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		SenderID:  actorID,
		Text:      text,
		CreatedTs: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := s.store.UpdateChannel(ctx, &store.UpdateChannel{
		ID:              channelID,
		LastMessageText: &text,
		LastMessageTs:   &now,
	}); err != nil {
		slog.Warn("failed to update channel preview", "channel_id", channelID, "error", err)
	}

	if s.indexer != nil {
		if err := s.indexer.IndexMessage(ctx, message, channel.MemberIDs); err != nil {
			slog.Warn("failed to index message for search", "message_id", message.ID, "error", err)
		}
	}
	return message, nil
}
