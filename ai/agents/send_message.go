package agent

import (
	"context"
	"fmt"
)

func (d *Dispatcher) sendMessage(ctx context.Context, req *FunctionCallRequest) *FunctionExecutionResult {
	text := getString(req.Parameters, "text")
	if text == "" {
		return failureResult("text is required")
	}

	// The target channel comes either from an explicit channel_id or from
	// resolving the recipient's name to a shared channel.
	var channelID int32
	var recipient string
	if id, ok := getInt(req.Parameters, "channel_id"); ok {
		channelID = int32(id)
	} else {
		candidate, fail := d.contactFromParams(ctx, req.ActorID, req.Parameters, "recipient_name")
		if fail != nil {
			return fail
		}
		channelID = candidate.ChannelID
		recipient = candidate.DisplayName
	}

	message, err := d.messaging.SendMessage(ctx, req.ActorID, channelID, text)
	if err != nil {
		return failureResult(fmt.Sprintf("failed to send message: %v", err))
	}

	confirmation := "Message sent."
	if recipient != "" {
		confirmation = fmt.Sprintf("Message sent to %s.", recipient)
	}
	return successResult(map[string]any{
		"message_id": message.ID,
		"channel_id": message.ChannelID,
	}, confirmation)
}
