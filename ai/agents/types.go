// Package agent executes assistant function calls: it routes each call to
// the matching business service, enforces validation and authorization, and
// always answers with a uniform result envelope.
package agent

// Sentinel error codes surfaced in FunctionExecutionResult.Error. The chat
// layer recognizes these and renders an interactive follow-up instead of a
// plain failure message.
const (
	// ErrSelectionRequired means a name matched several people and the
	// caller must pick one. Data carries a SelectionRequest.
	ErrSelectionRequired = "SELECTION_REQUIRED"

	// ErrConflictDetected means the requested slot overlaps existing
	// calendar entries. Data carries a ConflictReport.
	ErrConflictDetected = "CONFLICT_DETECTED"
)

// FunctionCallRequest is one function call extracted from an LLM response.
type FunctionCallRequest struct {
	FunctionName   string         `json:"function_name"`
	Parameters     map[string]any `json:"parameters"`
	ActorID        int32          `json:"actor_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// FunctionExecutionResult is the uniform envelope every dispatch returns.
// Error is empty on success; Message is human-readable either way.
type FunctionExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SelectionOption is one choice offered to disambiguate a name.
type SelectionOption struct {
	ID       int32  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// SelectionRequest asks the user to pick between several matched contacts.
type SelectionRequest struct {
	Prompt  string            `json:"prompt"`
	Options []SelectionOption `json:"options"`
}

// ConflictingEntry describes one calendar entry blocking a requested slot.
type ConflictingEntry struct {
	ID    int32  `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ConflictReport carries the blocking entries plus alternative start times
// the caller can offer instead.
type ConflictReport struct {
	Conflicts    []ConflictingEntry `json:"conflicts"`
	Alternatives []string           `json:"alternatives"`
}

func successResult(data any, message string) *FunctionExecutionResult {
	return &FunctionExecutionResult{Success: true, Data: data, Message: message}
}

func failureResult(message string) *FunctionExecutionResult {
	return &FunctionExecutionResult{Success: false, Message: message, Error: message}
}

func sentinelResult(code string, data any, message string) *FunctionExecutionResult {
	return &FunctionExecutionResult{Success: false, Data: data, Message: message, Error: code}
}
