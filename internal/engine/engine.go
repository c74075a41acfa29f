// internal/engine/engine.go
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/user/relayagent/internal/tools"
	"github.com/user/relayagent/internal/types"
	"github.com/user/relayagent/pkg/llm"
)

// DefaultFlushRunes is the pending-chunk size that forces a text flush.
// It trades emission latency against per-token event overhead and is a
// tunable, not an invariant.
const DefaultFlushRunes = 10

const apologyMessage = "I apologize, but I encountered an error. Could you please try again?"

// Emitter receives the engine's conversation-level events. Implementations
// forward them to whatever transport is attached.
type Emitter interface {
	Text(chunk string, final bool, full string)
	Handoff(p types.HandoffPayload)
	Language(p types.LanguagePayload)
}

// Engine drives one model-completion turn at a time against a conversation
// history, streaming text out through the emitter and executing
// model-requested tool calls inline.
//
// Tool-call argument completion is detected by attempting a JSON parse of
// the accumulated fragment buffer after every append: a parse failure
// means "keep buffering", a parse success promotes the candidate to a
// dispatched call. A valid-JSON prefix of a longer document would fool
// this heuristic; the backend's explicit end-of-tool-calls signal is
// honored as a hard boundary where available.
type Engine struct {
	provider   llm.Provider
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	history    types.History
	emitter    Emitter
	call       func() tools.CallContext
	flushRunes int

	seq atomic.Uint64

	mu        sync.Mutex
	current   *turn
	currentID string
}

// turn is one in-flight completion request.
type turn struct {
	id     string
	cancel context.CancelFunc
}

// New creates an Engine bound to one conversation's history and emitter.
// call supplies the conversation's current side data to tool executors.
func New(
	provider llm.Provider,
	registry *tools.Registry,
	dispatcher *tools.Dispatcher,
	history types.History,
	emitter Emitter,
	call func() tools.CallContext,
	flushRunes int,
) *Engine {
	if flushRunes <= 0 {
		flushRunes = DefaultFlushRunes
	}
	return &Engine{
		provider:   provider,
		registry:   registry,
		dispatcher: dispatcher,
		history:    history,
		emitter:    emitter,
		call:       call,
		flushRunes: flushRunes,
	}
}

// nextResponseID allocates a response identity unique for the process
// lifetime: a monotonic sequence number with a random suffix.
func (e *Engine) nextResponseID() string {
	return fmt.Sprintf("%d-%s", e.seq.Add(1), uuid.NewString()[:8])
}

// isCurrent reports whether id is still the conversation's authoritative
// response identity.
func (e *Engine) isCurrent(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentID == id
}

// clear drops the in-flight marker if t still owns it and releases the
// turn's context.
func (e *Engine) clear(t *turn) {
	e.mu.Lock()
	if e.current == t {
		e.current = nil
	}
	e.mu.Unlock()
	t.cancel()
}

// Cancel aborts the in-flight turn, if any. Used when a conversation is
// closed or evicted.
func (e *Engine) Cancel() {
	e.mu.Lock()
	t := e.current
	e.mu.Unlock()
	if t != nil {
		t.cancel()
	}
}

// Run executes one completion turn. A user-initiated turn (isUserTurn)
// preempts any in-flight request; a continuation turn never cancels.
// Run returns when the turn completes, is cancelled, or fails; failures
// other than cancellation are absorbed into the conversation as an apology
// message and the conversation stays usable.
func (e *Engine) Run(ctx context.Context, isUserTurn bool) {
	party := e.call().PartyKey

	e.mu.Lock()
	if e.current != nil && isUserTurn {
		e.current.cancel()
		slog.Info("cancelled previous request due to new prompt", "party", party)
	}
	turnCtx, cancel := context.WithCancel(ctx)
	t := &turn{id: e.nextResponseID(), cancel: cancel}
	e.current = t
	e.currentID = t.id
	e.mu.Unlock()

	defer e.clear(t)

	incs, err := e.provider.Stream(turnCtx, e.promptMessages(), e.registry.AsLLMTools())
	if err != nil {
		e.fail(turnCtx, party, err)
		return
	}

	var (
		fullText string
		pending  string
		toolName string
		toolBuf  string
		sawTool  bool
	)

	for inc := range incs {
		if turnCtx.Err() != nil {
			slog.Info("request was cancelled, stopping processing", "party", party, "response_id", t.id)
			return
		}
		if inc.Err != nil {
			e.fail(turnCtx, party, inc.Err)
			return
		}

		if inc.ToolName != "" || inc.ToolArgs != "" || inc.ToolDone {
			sawTool = true
			if toolName == "" && inc.ToolName != "" {
				toolName = inc.ToolName
			}
			toolBuf += inc.ToolArgs

			if toolName != "" && toolBuf != "" && json.Valid([]byte(toolBuf)) {
				stop := e.dispatchCall(turnCtx, t.id, toolName, toolBuf)
				toolName, toolBuf = "", ""
				if stop {
					return
				}
			} else if inc.ToolDone && toolBuf != "" {
				slog.Warn("tool call arguments never became valid JSON, dropping",
					"party", party, "tool", toolName, "buffered", len(toolBuf))
				toolName, toolBuf = "", ""
			}
			continue
		}

		if inc.Text != "" {
			pending += inc.Text
			fullText += inc.Text

			// Flush on size or sentence-ending punctuation so TTS latency
			// stays bounded without emitting every token.
			if utf8.RuneCountInString(pending) >= e.flushRunes || strings.ContainsAny(inc.Text, ".?") {
				if e.isCurrent(t.id) {
					e.emitter.Text(pending, false, "")
				} else {
					slog.Info("ignoring text chunk from superseded response", "party", party, "response_id", t.id)
				}
				pending = ""
			}
		}
	}

	if turnCtx.Err() != nil {
		slog.Info("request was cancelled, stopping processing", "party", party, "response_id", t.id)
		return
	}

	if toolBuf != "" {
		slog.Warn("stream ended with incomplete tool call arguments, dropping",
			"party", party, "tool", toolName, "buffered", len(toolBuf))
	}

	if pending != "" && e.isCurrent(t.id) {
		e.emitter.Text(pending, false, "")
	}

	if fullText != "" && e.isCurrent(t.id) {
		e.emitter.Text("", true, fullText)
	} else if sawTool && e.isCurrent(t.id) {
		// The turn produced only tool calls: let the model continue
		// reasoning over the results just appended. Continuations never
		// cancel the exchange they extend.
		e.Run(ctx, false)
	}

	if fullText != "" || sawTool {
		e.history.Append(types.Message{Role: types.RoleAssistant, Content: fullText})
	}
}

// dispatchCall promotes a complete tool-call candidate to a dispatched
// call. It returns true when the turn must stop (successful handoff).
func (e *Engine) dispatchCall(ctx context.Context, turnID, name, args string) bool {
	out := e.dispatcher.Dispatch(ctx, name, json.RawMessage(args), e.call(), e.history)
	if !out.OK {
		return false
	}

	switch out.Kind {
	case tools.OutcomeHandoff:
		if e.isCurrent(turnID) {
			e.emitter.Handoff(handoffPayload(out.Data))
		}
		return true
	case tools.OutcomeLanguage:
		if p, ok := out.Data.(types.LanguagePayload); ok && e.isCurrent(turnID) {
			e.emitter.Language(p)
		}
	}
	return false
}

// fail handles a backend failure. Cancellation is expected and silent;
// anything else is logged and surfaced to the conversation as an apology
// so the next turn can proceed.
func (e *Engine) fail(ctx context.Context, party string, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		slog.Info("request was aborted", "party", party)
		return
	}
	slog.Error("conversation turn failed", "party", party, "error", err)
	e.history.Append(types.Message{Role: types.RoleAssistant, Content: apologyMessage})
}

// promptMessages converts the history snapshot to the provider format.
func (e *Engine) promptMessages() []llm.Message {
	msgs := e.history.Messages()
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// handoffPayload coerces a handoff tool's result. Tools declaring
// ControlHandoff return types.HandoffPayload; anything else is wrapped so
// the event still carries a reason.
func handoffPayload(data any) types.HandoffPayload {
	if p, ok := data.(types.HandoffPayload); ok {
		return p
	}
	return types.HandoffPayload{
		Reason:     fmt.Sprintf("%v", data),
		ReasonCode: "live_agent_request",
	}
}
