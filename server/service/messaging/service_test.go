package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
	"github.com/coachdesk/coachdesk/store/db/memory"
)

type recordingIndexer struct {
	indexed []string
	err     error
}

func (r *recordingIndexer) IndexMessage(_ context.Context, message *store.Message, _ []int32) error {
	if r.err != nil {
		return r.err
	}
	r.indexed = append(r.indexed, message.ID)
	return nil
}

func newMessagingFixture(t *testing.T) (*store.Store, int32, int32, int32) {
	t.Helper()
	st := store.New(memory.NewDB(), &profile.Profile{Mode: "dev", Driver: "memory"})
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	trainer, err := st.CreateUser(ctx, &store.User{DisplayName: "Coach Taylor"})
	require.NoError(t, err)
	client, err := st.CreateUser(ctx, &store.User{DisplayName: "Mike Johnson"})
	require.NoError(t, err)
	channel, err := st.CreateChannel(ctx, &store.Channel{
		UID:       "ch-mike",
		MemberIDs: []int32{trainer.ID, client.ID},
	})
	require.NoError(t, err)
	return st, trainer.ID, client.ID, channel.ID
}

func TestSendMessage(t *testing.T) {
	st, trainerID, _, channelID := newMessagingFixture(t)
	indexer := &recordingIndexer{}
	svc := NewService(st, indexer)

	msg, err := svc.SendMessage(context.Background(), trainerID, channelID, "Great session today!")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, trainerID, msg.SenderID)
	require.Equal(t, []string{msg.ID}, indexer.indexed)

	// Channel preview reflects the latest message.
	channel, err := st.GetChannel(context.Background(), channelID)
	require.NoError(t, err)
	require.Equal(t, "Great session today!", channel.LastMessageText)
	require.NotZero(t, channel.LastMessageTs)
}

func TestSendMessageRejectsNonMember(t *testing.T) {
	st, _, _, channelID := newMessagingFixture(t)
	outsider, err := st.CreateUser(context.Background(), &store.User{DisplayName: "Stranger"})
	require.NoError(t, err)

	svc := NewService(st, nil)
	_, err = svc.SendMessage(context.Background(), outsider.ID, channelID, "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a member")
}

func TestSendMessageUnknownChannel(t *testing.T) {
	st, trainerID, _, _ := newMessagingFixture(t)

	svc := NewService(st, nil)
	_, err := svc.SendMessage(context.Background(), trainerID, 9999, "hello")
	require.Error(t, err)
}

func TestSendMessageEmptyText(t *testing.T) {
	st, trainerID, _, channelID := newMessagingFixture(t)

	svc := NewService(st, nil)
	_, err := svc.SendMessage(context.Background(), trainerID, channelID, "")
	require.Error(t, err)
}

func TestSendMessageSurvivesIndexerFailure(t *testing.T) {
	st, trainerID, _, channelID := newMessagingFixture(t)
	indexer := &recordingIndexer{err: errors.New("embedding provider down")}
	svc := NewService(st, indexer)

	msg, err := svc.SendMessage(context.Background(), trainerID, channelID, "see you tomorrow")
	require.NoError(t, err, "indexing is best-effort")
	require.NotNil(t, msg)

	stored, err := st.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, "see you tomorrow", stored.Text)
}
