// internal/tools/dispatcher_test.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/user/relayagent/internal/types"
)

type memHistory struct {
	mu   sync.Mutex
	msgs []types.Message
}

func (h *memHistory) Append(m types.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, m)
}

func (h *memHistory) Messages() []types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.Message(nil), h.msgs...)
}

func (h *memHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

type memNotifier struct {
	mu    sync.Mutex
	notes []types.Notification
}

func (n *memNotifier) Notify(_ context.Context, note types.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *memNotifier) sent() []types.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Notification(nil), n.notes...)
}

type fixedTool struct {
	name    string
	control Control
	result  any
	err     error
}

func (t *fixedTool) Name() string                { return t.name }
func (t *fixedTool) Description() string         { return "fixed" }
func (t *fixedTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *fixedTool) Control() Control            { return t.control }
func (t *fixedTool) Execute(context.Context, json.RawMessage, CallContext) (any, error) {
	return t.result, t.err
}

func testCall() CallContext {
	return CallContext{PartyKey: "+15550001111", CallSID: "CA1", IsVoice: true}
}

func TestDispatchSuccessRecordsResultAndContinue(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "lookup", result: map[string]int{"n": 7}})
	notifier := &memNotifier{}
	d := NewDispatcher(reg, notifier)
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "lookup", json.RawMessage(`{}`), testCall(), h)

	if !out.OK || out.Kind != OutcomeResult {
		t.Fatalf("unexpected outcome %+v", out)
	}
	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected result + continue prompt, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, `Tool call lookup succeeded with data: {"n":7}`) {
		t.Errorf("unexpected result message %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[1].Content, "continue the conversation") {
		t.Errorf("missing continuation prompt, got %q", msgs[1].Content)
	}

	notes := notifier.sent()
	if len(notes) != 2 {
		t.Fatalf("expected executing + succeeded notifications, got %+v", notes)
	}
	if !strings.Contains(notes[0].Message, "Executing lookup") {
		t.Errorf("unexpected first notification %q", notes[0].Message)
	}
}

func TestDispatchFailureRecordsErrorAndContinue(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "lookup", err: errors.New("boom")})
	d := NewDispatcher(reg, &memNotifier{})
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "lookup", json.RawMessage(`{}`), testCall(), h)

	if out.OK {
		t.Fatal("expected failed outcome")
	}
	if out.Kind != OutcomeResult {
		t.Errorf("failures must collapse to a plain result, got %v", out.Kind)
	}
	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected failure + continue prompt, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "Tool call lookup failed: boom") {
		t.Errorf("unexpected failure message %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[1].Content, "continue the conversation") {
		t.Errorf("missing continuation prompt, got %q", msgs[1].Content)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d := NewDispatcher(NewRegistry(), &memNotifier{})
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "ghost", json.RawMessage(`{}`), testCall(), h)

	if out.OK {
		t.Fatal("expected failure for unknown tool")
	}
	if out.Err != "unknown tool: ghost" {
		t.Errorf("unexpected error %q", out.Err)
	}
	if h.Len() != 2 {
		t.Errorf("unknown tool must still record failure + continue, got %+v", h.Messages())
	}
}

func TestDispatchHandoffSkipsContinuePrompt(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{
		name:    "transfer_to_agent",
		control: ControlHandoff,
		result:  types.HandoffPayload{CallSID: "CA1", Reason: "asked", ReasonCode: "live_agent_request"},
	})
	d := NewDispatcher(reg, &memNotifier{})
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "transfer_to_agent", json.RawMessage(`{}`), testCall(), h)

	if !out.OK || out.Kind != OutcomeHandoff {
		t.Fatalf("unexpected outcome %+v", out)
	}
	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("handoff must not append a continuation prompt, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "Tool call transfer_to_agent succeeded") {
		t.Errorf("unexpected message %q", msgs[0].Content)
	}
}

func TestDispatchFailedHandoffStillContinues(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{name: "transfer_to_agent", control: ControlHandoff, err: errors.New("no sid")})
	d := NewDispatcher(reg, &memNotifier{})
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "transfer_to_agent", json.RawMessage(`{}`), testCall(), h)

	if out.OK {
		t.Fatal("expected failure")
	}
	if out.Kind != OutcomeResult {
		t.Errorf("failed handoff must not surface as a handoff, got %v", out.Kind)
	}
	if h.Len() != 2 {
		t.Errorf("failed handoff keeps the conversation going, got %+v", h.Messages())
	}
}

func TestDispatchLanguageOutcome(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fixedTool{
		name:    "switch_language",
		control: ControlLanguage,
		result:  types.LanguagePayload{TTSLanguage: "de-DE", TranscriptionLanguage: "de-DE"},
	})
	d := NewDispatcher(reg, &memNotifier{})
	h := &memHistory{}

	out := d.Dispatch(context.Background(), "switch_language", json.RawMessage(`{}`), testCall(), h)

	if !out.OK || out.Kind != OutcomeLanguage {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if h.Len() != 2 {
		t.Errorf("language switch appends result + continue, got %+v", h.Messages())
	}
}
