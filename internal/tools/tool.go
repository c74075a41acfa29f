// internal/tools/tool.go
package tools

import (
	"context"
	"encoding/json"

	"github.com/user/relayagent/pkg/llm"
)

// Control classifies the conversation-level effect of a tool. The
// dispatcher maps it to an outcome kind; nothing dispatches on tool names.
type Control int

const (
	// ControlNone is an ordinary tool: its result feeds back to the model.
	ControlNone Control = iota
	// ControlHandoff ends model-driven dialogue in favor of a human. A
	// tool declaring it must return types.HandoffPayload from Execute.
	ControlHandoff
	// ControlLanguage switches TTS/transcription language mid-stream. A
	// tool declaring it must return types.LanguagePayload from Execute.
	ControlLanguage
)

// CallContext carries per-conversation side data available to executors.
type CallContext struct {
	// PartyKey identifies the counterparty, usually a phone number.
	PartyKey string
	// CallSID is the voice call identifier, empty for text conversations.
	CallSID string
	IsVoice bool
}

// Tool defines the interface for an executable tool.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Control() Control
	Execute(ctx context.Context, args json.RawMessage, call CallContext) (any, error)
}

// Registry holds registered tools and provides lookup. It is populated at
// startup and read-only afterwards.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, replacing any previous tool with
// the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// AsLLMTools converts registered tools to the schema format advertised to
// the completion backend.
func (r *Registry) AsLLMTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}
