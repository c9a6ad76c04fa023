// Package tools declares the function schemas exposed to the LLM. The
// descriptions double as usage instructions for the model, so they spell
// out formats and preconditions explicitly.
package tools

import "github.com/coachdesk/coachdesk/ai/core/llm"

// All returns the full set of callable function schemas.
func All() []llm.ToolDescriptor {
	return []llm.ToolDescriptor{
		{
			Name: "scheduleCall",
			Description: `Schedule a call or training session with a client.

Check the confirmation: if the result reports a conflict it includes
alternative times to offer the user.

Times are ISO8601; a time without a zone offset is interpreted in the
"timezone" parameter (IANA name, default UTC).`,
			Parameters: `{
  "type": "object",
  "properties": {
    "contact_name": {"type": "string", "description": "Name of the client, as the user said it"},
    "contact_id": {"type": "integer", "description": "Exact person id, only after a selection follow-up"},
    "start_time": {"type": "string", "description": "Start time, ISO8601"},
    "duration_minutes": {"type": "integer", "description": "Length in minutes, 5-480, default 30"},
    "title": {"type": "string", "description": "Event title; defaults to 'Call with <name>'"},
    "event_kind_hint": {"type": "string", "description": "Free-text hint for the event kind, e.g. 'training session' or 'quick call'"},
    "timezone": {"type": "string", "description": "IANA timezone, default UTC"}
  },
  "required": ["contact_name", "start_time"]
}`,
		},
		{
			Name: "setReminder",
			Description: `Set a reminder for the user. Reminders may reference a client by name
and may be dated up to 7 days in the past for catch-up notes.`,
			Parameters: `{
  "type": "object",
  "properties": {
    "text": {"type": "string", "description": "Reminder text, max 500 characters"},
    "due_time": {"type": "string", "description": "Due time, ISO8601"},
    "contact_name": {"type": "string", "description": "Client the reminder is about, optional"},
    "contact_id": {"type": "integer", "description": "Exact person id, only after a selection follow-up"},
    "timezone": {"type": "string", "description": "IANA timezone, default UTC"}
  },
  "required": ["text", "due_time"]
}`,
		},
		{
			Name: "sendMessage",
			Description: `Send a chat message to a client on behalf of the user. Address the
recipient by name, or by channel_id when the channel is already known.`,
			Parameters: `{
  "type": "object",
  "properties": {
    "recipient_name": {"type": "string", "description": "Name of the recipient"},
    "contact_id": {"type": "integer", "description": "Exact person id, only after a selection follow-up"},
    "channel_id": {"type": "integer", "description": "Target channel id, overrides name resolution"},
    "text": {"type": "string", "description": "Message body"}
  },
  "required": ["text"]
}`,
		},
		{
			Name: "searchMessages",
			Description: `Search past chat messages semantically. Returns the most relevant
messages the user is allowed to see, newest scores first.`,
			Parameters: `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "What to look for, natural language"},
    "channel_id": {"type": "integer", "description": "Restrict to one channel, optional"},
    "limit": {"type": "integer", "description": "Max results, default 10, max 50"}
  },
  "required": ["query"]
}`,
		},
		{
			Name: "rescheduleEvent",
			Description: `Move an existing calendar event to a new time. The event keeps its
duration unless duration_minutes is given. Conflicts against other events
are re-checked; the event never conflicts with itself.`,
			Parameters: `{
  "type": "object",
  "properties": {
    "event_id": {"type": "integer", "description": "Id of the event to move"},
    "new_start_time": {"type": "string", "description": "New start time, ISO8601"},
    "duration_minutes": {"type": "integer", "description": "New length in minutes, optional"},
    "timezone": {"type": "string", "description": "IANA timezone, defaults to the event's own"}
  },
  "required": ["event_id", "new_start_time"]
}`,
		},
		{
			Name: "cancelEvent",
			Description: `Cancel an existing calendar event. The event stays in the calendar
with cancelled status and frees its slot.`,
			Parameters: `{
  "type": "object",
  "properties": {
    "event_id": {"type": "integer", "description": "Id of the event to cancel"}
  },
  "required": ["event_id"]
}`,
		},
	}
}
