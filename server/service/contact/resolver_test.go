package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
	"github.com/coachdesk/coachdesk/store/db/memory"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"mike", "mika", 1},
		{"mike", "mikey", 1},
		{"al", "bo", 2},
		{"josé", "jose", 1},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		query, candidate string
		want             bool
	}{
		{"Mike Johnson", "Mike Johnson", true},    // exact
		{"mike johnson", "Mike Johnson", true},    // case-insensitive
		{"Mike", "Mike Johnson", true},            // substring
		{"Mike Johnson Jr", "Mike Johnson", true}, // containment the other way
		{"Mikee Johnson", "Mike Johnson", true},   // distance 1
		{"Sarah", "Mike Johnson", false},
	}

	for _, tt := range tests {
		if got := nameMatches(tt.query, tt.candidate); got != tt.want {
			t.Errorf("nameMatches(%q, %q) = %v, want %v", tt.query, tt.candidate, got, tt.want)
		}
	}
}

func newDirectory(t *testing.T) (*store.Store, int32) {
	t.Helper()
	st := store.New(memory.NewDB(), &profile.Profile{Mode: "dev", Driver: "memory"})
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	trainer, err := st.CreateUser(ctx, &store.User{DisplayName: "Coach Taylor"})
	require.NoError(t, err)
	return st, trainer.ID
}

func addClient(t *testing.T, st *store.Store, actorID int32, name string, withChannel bool) int32 {
	t.Helper()
	ctx := context.Background()
	user, err := st.CreateUser(ctx, &store.User{DisplayName: name})
	require.NoError(t, err)
	if withChannel {
		_, err = st.CreateChannel(ctx, &store.Channel{
			UID:       "ch-" + name,
			MemberIDs: []int32{actorID, user.ID},
		})
		require.NoError(t, err)
	}
	return user.ID
}

func TestResolveExactNameSingleCandidate(t *testing.T) {
	st, actorID := newDirectory(t)
	addClient(t, st, actorID, "Sarah Lee", true)

	r := NewResolver(st)
	candidates, err := r.Resolve(context.Background(), actorID, "Sarah Lee")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "Sarah Lee", candidates[0].DisplayName)
	require.NotZero(t, candidates[0].ChannelID)
}

func TestResolveAmbiguousName(t *testing.T) {
	st, actorID := newDirectory(t)
	addClient(t, st, actorID, "Mike Johnson", true)
	addClient(t, st, actorID, "Mike Chen", true)
	addClient(t, st, actorID, "Mikey Lin", true)

	r := NewResolver(st)
	candidates, err := r.Resolve(context.Background(), actorID, "Mike")
	require.NoError(t, err)
	require.Len(t, candidates, 3, "all Mike-family names share channels with the actor")
}

func TestResolveExcludesContactsWithoutSharedChannel(t *testing.T) {
	st, actorID := newDirectory(t)
	addClient(t, st, actorID, "Mike Johnson", true)
	addClient(t, st, actorID, "Mike Chen", false) // no channel with the actor

	r := NewResolver(st)
	candidates, err := r.Resolve(context.Background(), actorID, "Mike")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "Mike Johnson", candidates[0].DisplayName)
}

func TestResolveUnknownName(t *testing.T) {
	st, actorID := newDirectory(t)
	addClient(t, st, actorID, "Sarah Lee", true)

	r := NewResolver(st)
	candidates, err := r.Resolve(context.Background(), actorID, "Zebediah")
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestResolveNeverMatchesActor(t *testing.T) {
	st, actorID := newDirectory(t)

	r := NewResolver(st)
	candidates, err := r.Resolve(context.Background(), actorID, "Coach Taylor")
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestLookup(t *testing.T) {
	st, actorID := newDirectory(t)
	reachable := addClient(t, st, actorID, "Mike Johnson", true)
	unreachable := addClient(t, st, actorID, "Mike Chen", false)

	r := NewResolver(st)

	candidate, err := r.Lookup(context.Background(), actorID, reachable)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	require.Equal(t, "Mike Johnson", candidate.DisplayName)

	candidate, err = r.Lookup(context.Background(), actorID, unreachable)
	require.NoError(t, err)
	require.Nil(t, candidate, "no shared channel means not reachable")

	candidate, err = r.Lookup(context.Background(), actorID, actorID)
	require.NoError(t, err)
	require.Nil(t, candidate)

	candidate, err = r.Lookup(context.Background(), actorID, 9999)
	require.NoError(t, err)
	require.Nil(t, candidate)
}

func TestResolveEmptyName(t *testing.T) {
	st, actorID := newDirectory(t)

	r := NewResolver(st)
	_, err := r.Resolve(context.Background(), actorID, "   ")
	require.Error(t, err)
}
