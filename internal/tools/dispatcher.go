// internal/tools/dispatcher.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/relayagent/internal/types"
)

// OutcomeKind is the closed set of conversation-level effects a dispatched
// tool call can have.
type OutcomeKind int

const (
	// OutcomeResult is an ordinary result the model should read and react to.
	OutcomeResult OutcomeKind = iota
	// OutcomeHandoff terminates the current turn in favor of a human.
	OutcomeHandoff
	// OutcomeLanguage changes the conversation language without ending the turn.
	OutcomeLanguage
)

// Outcome is the normalized result of one dispatched tool call. A failed
// call is never fatal to the conversation: OK is false, Err describes the
// failure, and the kind collapses to OutcomeResult.
type Outcome struct {
	Kind OutcomeKind
	OK   bool
	Data any
	Err  string
}

const continuePrompt = "Please continue the conversation based on the gathered information."

// Dispatcher resolves tool names against a registry, invokes executors,
// records results in the conversation history, and mirrors activity to the
// best-effort side channel.
type Dispatcher struct {
	registry *Registry
	notifier types.Notifier
}

// NewDispatcher creates a Dispatcher over the given registry and side channel.
func NewDispatcher(registry *Registry, notifier types.Notifier) *Dispatcher {
	return &Dispatcher{registry: registry, notifier: notifier}
}

// Dispatch executes one tool call and appends the outcome to history.
// On success a system message with the serialized result plus a
// continuation prompt are appended; on failure a system message describing
// the failure is appended so the model can adapt. A successful handoff
// appends no continuation prompt since the turn ends there.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage, call CallContext, history types.History) Outcome {
	slog.Info("tool call", "tool", name, "party", call.PartyKey, "args", string(args))
	d.notifier.Notify(ctx, types.Notification{
		Sender:      "system:tool",
		Type:        "string",
		Message:     fmt.Sprintf("Executing %s with args: %s", name, args),
		PhoneNumber: call.PartyKey,
	})

	out := d.invoke(ctx, name, args, call)

	if out.OK {
		data, err := json.Marshal(out.Data)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", out.Data))
		}
		slog.Info("tool result", "tool", name, "party", call.PartyKey, "success", true)
		d.notifier.Notify(ctx, types.Notification{
			Sender:      "system:tool",
			Type:        "string",
			Message:     fmt.Sprintf("Tool %s succeeded: %s", name, data),
			PhoneNumber: call.PartyKey,
		})
		history.Append(types.Message{
			Role:    types.RoleSystem,
			Content: fmt.Sprintf("Tool call %s succeeded with data: %s", name, data),
		})
		if out.Kind == OutcomeHandoff {
			return out
		}
	} else {
		slog.Warn("tool result", "tool", name, "party", call.PartyKey, "success", false, "error", out.Err)
		d.notifier.Notify(ctx, types.Notification{
			Sender:      "system:tool",
			Type:        "string",
			Message:     fmt.Sprintf("Tool %s failed: %s", name, out.Err),
			PhoneNumber: call.PartyKey,
		})
		history.Append(types.Message{
			Role:    types.RoleSystem,
			Content: fmt.Sprintf("Tool call %s failed: %s", name, out.Err),
		})
	}

	history.Append(types.Message{Role: types.RoleSystem, Content: continuePrompt})
	return out
}

// invoke runs the executor and normalizes its result into an Outcome.
func (d *Dispatcher) invoke(ctx context.Context, name string, args json.RawMessage, call CallContext) Outcome {
	tool, ok := d.registry.Get(name)
	if !ok {
		return Outcome{Kind: OutcomeResult, Err: fmt.Sprintf("unknown tool: %s", name)}
	}

	kind := OutcomeResult
	switch tool.Control() {
	case ControlHandoff:
		kind = OutcomeHandoff
	case ControlLanguage:
		kind = OutcomeLanguage
	}

	data, err := tool.Execute(ctx, args, call)
	if err != nil {
		return Outcome{Kind: OutcomeResult, Err: err.Error()}
	}
	return Outcome{Kind: kind, OK: true, Data: data}
}
