package agent

import (
	"context"
	"fmt"

	"github.com/coachdesk/coachdesk/ai/core/retrieval"
)

func (d *Dispatcher) searchMessages(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	if d.retriever == nil {
		return failureResult("message search is not configured")
	}

	query := getString(req.Parameters, "query")
	if query == "" {
		return failureResult("query is required")
	}

	opts := &retrieval.SearchOptions{
		Query:   query,
		ActorID: req.ActorID,
	}
	if limit, ok := getInt(req.Parameters, "limit"); ok {
		opts.Limit = limit
	}
	if id, ok := getInt(req.Parameters, "channel_id"); ok {
		channelID := int32(id)
		opts.ChannelID = &channelID
	}

	results, err := d.retriever.Search(ctx, opts)
	if err != nil {
		return failureResult(fmt.Sprintf("search failed: %v", err))
	}
	if d.exporter != nil {
		d.exporter.RecordRetrievalResults(len(results))
	}

	message := fmt.Sprintf("Found %d relevant message(s).", len(results))
	if len(results) == 0 {
		message = "No relevant messages found."
	}
	return successResult(results, message)
}
