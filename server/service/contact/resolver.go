// Package contact resolves free-text names against the directory of known
// people. Resolution is scoped to the actor: a match only counts when a
// shared communication channel already exists between the actor and the
// candidate.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/coachdesk/coachdesk/store"
)

// maxEditDistance is the Levenshtein threshold for a fuzzy match.
// The threshold is length-independent, which can over-match very short
// names ("Al" vs "Bo" is distance 2); callers disambiguate via the
// selection flow rather than the resolver guessing.
const maxEditDistance = 2

// Candidate is one resolved contact, ephemeral per resolution call.
type Candidate struct {
	PersonID    int32
	DisplayName string
	Email       string
	ChannelID   int32
}

// Resolver fuzzy-matches names against the user directory.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a contact resolver.
func NewResolver(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns all directory entries matching the given name that share
// a channel with the actor. Zero, one, or many candidates are all valid
// outcomes; the caller decides how to proceed.
func (r *Resolver) Resolve(ctx context.Context, actorID int32, name string) ([]*Candidate, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	users, err := r.store.ListUsers(ctx, &store.FindUser{})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	channels, err := r.store.ListChannels(ctx, &store.FindChannel{MemberID: &actorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	candidates := []*Candidate{}
	for _, user := range users {
		if user.ID == actorID {
			continue
		}
		if !nameMatches(trimmed, user.DisplayName) {
			continue
		}
		channelID, ok := sharedChannel(channels, user.ID)
		if !ok {
			continue
		}
		candidates = append(candidates, &Candidate{
			PersonID:    user.ID,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			ChannelID:   channelID,
		})
	}
	return candidates, nil
}

// Lookup returns the candidate for a known person id, or nil when the
// person does not exist or shares no channel with the actor. Used when the
// caller already disambiguated a name to a concrete id.
func (r *Resolver) Lookup(ctx context.Context, actorID int32, personID int32) (*Candidate, error) {
	if personID == actorID {
		return nil, nil
	}

	user, err := r.store.GetUser(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", personID, err)
	}
	if user == nil {
		return nil, nil
	}

	channels, err := r.store.ListChannels(ctx, &store.FindChannel{MemberID: &actorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	channelID, ok := sharedChannel(channels, personID)
	if !ok {
		return nil, nil
	}
	return &Candidate{
		PersonID:    user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		ChannelID:   channelID,
	}, nil
}

// nameMatches tests the three match conditions: case-insensitive equality,
// substring containment in either direction, and bounded edit distance.
func nameMatches(query, candidate string) bool {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	if q == c {
		return true
	}
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return true
	}
	return levenshtein(q, c) <= maxEditDistance
}

// sharedChannel returns the id of a channel containing the given user.
// The channel list is already scoped to the actor's memberships.
func sharedChannel(channels []*store.Channel, userID int32) (int32, bool) {
	for _, ch := range channels {
		if ch.HasMember(userID) {
			return ch.ID, true
		}
	}
	return 0, false
}

// levenshtein computes edit distance with a two-row DP over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
