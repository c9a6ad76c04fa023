package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
	"github.com/coachdesk/coachdesk/store/db/memory"
)

type fakeEmbedder struct {
	vector []float32
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, nil
}

func (f *fakeEmbedder) Model() string { return "test-model" }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(memory.NewDB(), &profile.Profile{Mode: "dev", Driver: "memory"})
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedEmbedding(t *testing.T, st *store.Store, messageID string, channelID int32, senderID int32, members []int32, text string, vec []float32) {
	t.Helper()
	err := st.UpsertMessageEmbedding(context.Background(), &store.MessageEmbedding{
		MessageID: messageID,
		ChannelID: channelID,
		SenderID:  senderID,
		MemberIDs: members,
		Text:      text,
		Embedding: vec,
		Model:     "test-model",
		CreatedTs: 1700000000,
	})
	require.NoError(t, err)
}

func TestSearchFiltersByRelevanceAndDedupes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mike, err := st.CreateUser(ctx, &store.User{DisplayName: "Mike Johnson"})
	require.NoError(t, err)

	actorID := int32(99)
	members := []int32{actorID, mike.ID}

	seedEmbedding(t, st, "msg-1", 1, mike.ID, members, "my shoulder hurts", []float32{1, 0})
	seedEmbedding(t, st, "msg-2", 1, mike.ID, members, "see you tomorrow", []float32{0, 1}) // orthogonal: below threshold
	seedEmbedding(t, st, "msg-3", 1, mike.ID, members, "shoulder is better", []float32{0.9, 0.4})

	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})
	results, err := r.Search(ctx, &SearchOptions{Query: "shoulder", ActorID: actorID})
	require.NoError(t, err)

	require.Len(t, results, 2)
	seen := map[string]bool{}
	for _, res := range results {
		require.GreaterOrEqual(t, res.Score, float32(0.7), "no result may fall below the relevance threshold")
		require.False(t, seen[res.MessageID], "message ids must be unique")
		seen[res.MessageID] = true
	}

	// Sorted descending by score.
	require.Equal(t, "msg-1", results[0].MessageID)
	require.Equal(t, "Mike Johnson", results[0].SenderName)
}

func TestSearchRespectsMembershipBoundary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Actor 99 is not a member of channel 2.
	seedEmbedding(t, st, "private-msg", 2, 7, []int32{7, 8}, "secret plans", []float32{1, 0})

	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})
	results, err := r.Search(ctx, &SearchOptions{Query: "plans", ActorID: 99})
	require.NoError(t, err)
	require.Empty(t, results, "caller must never see messages from channels they do not belong to")
}

func TestSearchChannelScope(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	actorID := int32(1)
	seedEmbedding(t, st, "a", 10, 2, []int32{actorID, 2}, "in channel ten", []float32{1, 0})
	seedEmbedding(t, st, "b", 11, 2, []int32{actorID, 2}, "in channel eleven", []float32{1, 0})

	channelID := int32(10)
	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})
	results, err := r.Search(ctx, &SearchOptions{Query: "channel", ActorID: actorID, ChannelID: &channelID})
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].MessageID)
}

func TestSearchUnknownSenderFallback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	actorID := int32(1)
	seedEmbedding(t, st, "a", 10, 555, []int32{actorID, 555}, "hello", []float32{1, 0})

	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})
	results, err := r.Search(ctx, &SearchOptions{Query: "hello", ActorID: actorID})
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "Unknown User", results[0].SenderName)
}

func TestSearchValidation(t *testing.T) {
	st := newTestStore(t)
	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})

	_, err := r.Search(context.Background(), &SearchOptions{Query: "", ActorID: 1})
	require.Error(t, err)

	_, err = r.Search(context.Background(), &SearchOptions{Query: "x", ActorID: 0})
	require.Error(t, err)
}

func TestSearchEmptyResultIsNotError(t *testing.T) {
	st := newTestStore(t)
	r := NewMessageRetriever(st, &fakeEmbedder{vector: []float32{1, 0}})

	results, err := r.Search(context.Background(), &SearchOptions{Query: "anything", ActorID: 3})
	require.NoError(t, err)
	require.Empty(t, results)
}
