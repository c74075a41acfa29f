package llm

import "encoding/json"

// Message represents a chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a tool that can be advertised to the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable function including its parameters schema.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Increment is one streamed unit from a completion backend. Exactly one
// concern is populated per increment: plain text, a tool-call fragment
// (name and/or partial argument text, as it arrives on the wire), or a
// terminal error. Stream end is signalled by channel close.
type Increment struct {
	Text string

	// ToolName is set on the fragment that first carries the call's
	// function name; later fragments of the same call leave it empty.
	ToolName string
	// ToolArgs is a raw argument fragment. Fragments concatenate into a
	// JSON document that is only valid once the call is complete.
	ToolArgs string
	// ToolDone marks the backend's explicit end-of-tool-calls signal,
	// where the protocol provides one.
	ToolDone bool

	Err error
}
