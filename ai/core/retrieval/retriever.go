// Package retrieval implements the semantic search pipeline over chat
// history: embed the query, search the vector index inside the caller's
// membership boundary, filter by relevance, deduplicate, and enrich with
// sender identities.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/errgroup"

	"github.com/coachdesk/coachdesk/ai/core/embedding"
	"github.com/coachdesk/coachdesk/store"
)

const (
	// Default number of results when the caller does not specify a limit.
	defaultSearchLimit = 10

	// Hard cap on results per search.
	maxSearchLimit = 50

	// Minimum cosine similarity a match must reach to be returned.
	relevanceThreshold = 0.7

	// Bound on concurrent sender lookups during enrichment.
	enrichConcurrency = 8

	// Display name used when a sender lookup fails.
	unknownSenderName = "Unknown User"
)

// SearchResult is an enriched retrieval hit.
type SearchResult struct {
	MessageID  string  `json:"message_id"`
	ChannelID  int32   `json:"channel_id"`
	SenderID   int32   `json:"sender_id"`
	SenderName string  `json:"sender_name"`
	Text       string  `json:"text"`
	CreatedTs  int64   `json:"created_ts"`
	Score      float32 `json:"score"`
}

// SearchOptions are the options for a message search.
type SearchOptions struct {
	Query     string
	ActorID   int32
	ChannelID *int32
	Limit     int
}

// MessageRetriever runs the retrieval pipeline.
type MessageRetriever struct {
	store    *store.Store
	embedder embedding.Provider
}

// NewMessageRetriever creates a message retriever.
func NewMessageRetriever(st *store.Store, embedder embedding.Provider) *MessageRetriever {
	return &MessageRetriever{store: st, embedder: embedder}
}

// Search executes the pipeline. An empty result list is a valid outcome,
// not an error.
func (r *MessageRetriever) Search(ctx context.Context, opts *SearchOptions) ([]*SearchResult, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if opts.ActorID <= 0 {
		return nil, fmt.Errorf("invalid actor id: %d", opts.ActorID)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	requestID := shortuuid.New()
	logger := slog.With("request_id", requestID, "actor_id", opts.ActorID)

	vector, err := r.embedder.Embed(ctx, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Overfetch so the relevance filter and dedup still leave a full page.
	matches, err := r.store.MessageVectorSearch(ctx, &store.MessageVectorSearchOptions{
		Vector:    vector,
		MemberID:  opts.ActorID,
		ChannelID: opts.ChannelID,
		Model:     r.embedder.Model(),
		Limit:     limit * 3,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := dedupeByMessageID(filterByScore(matches))
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}

	enriched := r.enrichSenderNames(ctx, results)

	logger.Debug("message search completed",
		"raw_matches", len(matches),
		"returned", len(enriched),
	)
	return enriched, nil
}

func filterByScore(matches []*store.MessageMatch) []*store.MessageMatch {
	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= relevanceThreshold {
			kept = append(kept, m)
		}
	}
	return kept
}

// dedupeByMessageID keeps the highest-scoring occurrence per message id.
func dedupeByMessageID(matches []*store.MessageMatch) []*SearchResult {
	best := make(map[string]*store.MessageMatch, len(matches))
	for _, m := range matches {
		if existing, ok := best[m.MessageID]; !ok || m.Score > existing.Score {
			best[m.MessageID] = m
		}
	}

	results := make([]*SearchResult, 0, len(best))
	for _, m := range best {
		results = append(results, &SearchResult{
			MessageID: m.MessageID,
			ChannelID: m.ChannelID,
			SenderID:  m.SenderID,
			Text:      m.Text,
			CreatedTs: m.CreatedTs,
			Score:     m.Score,
		})
	}
	return results
}

// enrichSenderNames resolves sender display names in parallel, one lookup
// per unique sender. Lookup failures degrade to a placeholder name rather
// than failing the search.
func (r *MessageRetriever) enrichSenderNames(ctx context.Context, results []*SearchResult) []*SearchResult {
	if len(results) == 0 {
		return results
	}

	unique := make(map[int32]struct{}, len(results))
	for _, res := range results {
		unique[res.SenderID] = struct{}{}
	}

	var mu sync.Mutex
	names := make(map[int32]string, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for senderID := range unique {
		senderID := senderID
		g.Go(func() error {
			name := unknownSenderName
			if user, err := r.store.GetUser(gctx, senderID); err == nil && user != nil {
				name = user.DisplayName
			}
			mu.Lock()
			names[senderID] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors; failures fall back to the placeholder

	for _, res := range results {
		res.SenderName = names[res.SenderID]
	}
	return results
}
