// internal/convo/conversation.go
package convo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/relayagent/internal/engine"
	"github.com/user/relayagent/internal/tools"
	"github.com/user/relayagent/internal/types"
	"github.com/user/relayagent/pkg/llm"
)

// Deps are the collaborators every Conversation is constructed with.
type Deps struct {
	Provider   llm.Provider
	Tools      *tools.Registry
	Dispatcher *tools.Dispatcher
	Notifier   types.Notifier

	// MessageLimit is the per-conversation safety ceiling (default 300).
	MessageLimit int
	// FlushRunes tunes the engine's text flush threshold (default 10).
	FlushRunes int
}

// Conversation binds one message store and one streaming engine to one
// external party. All inbound events for the same key must be serialized
// by the caller (see Queue); events for different keys are independent.
type Conversation struct {
	ID      string
	Key     string
	IsVoice bool

	store  *Store
	engine *engine.Engine
	deps   Deps

	mu        sync.RWMutex
	hooks     types.Hooks
	callSID   string
	expiresAt time.Time
	createdAt time.Time
}

// NewConversation creates a Conversation for the given party key with a
// fresh message store and engine.
func NewConversation(key string, voice bool, deps Deps) *Conversation {
	c := &Conversation{
		ID:        uuid.New().String(),
		Key:       key,
		IsVoice:   voice,
		deps:      deps,
		createdAt: time.Now(),
	}
	c.store = NewStore(deps.MessageLimit, c.onMessageLimit)
	c.engine = engine.New(
		deps.Provider,
		deps.Tools,
		deps.Dispatcher,
		c.store,
		(*conversationEmitter)(c),
		c.callContext,
		deps.FlushRunes,
	)
	return c
}

// SetHooks rebinds the transport event hooks, e.g. when a text thread
// upgrades to a voice call with a live websocket.
func (c *Conversation) SetHooks(h types.Hooks) {
	c.mu.Lock()
	c.hooks = h
	c.mu.Unlock()
}

// SetCallSID records the voice call identifier from transport setup.
func (c *Conversation) SetCallSID(sid string) {
	c.mu.Lock()
	c.callSID = sid
	c.mu.Unlock()
}

// callContext supplies per-call side data to tool executors.
func (c *Conversation) callContext() tools.CallContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tools.CallContext{
		PartyKey: c.Key,
		CallSID:  c.callSID,
		IsVoice:  c.IsVoice,
	}
}

// History exposes the conversation's message store.
func (c *Conversation) History() types.History { return c.store }

// AddUserMessage appends a user message.
func (c *Conversation) AddUserMessage(content string) {
	c.store.Append(types.Message{Role: types.RoleUser, Content: content})
}

// AddSystemMessage appends a system message.
func (c *Conversation) AddSystemMessage(content string) {
	c.store.Append(types.Message{Role: types.RoleSystem, Content: content})
}

// Begin announces the conversation to the side channel and seeds the
// system prompt: the party's number plus the operator-authored
// instructions and context documents, when present.
func (c *Conversation) Begin(ctx context.Context, instructions, contextDoc string) {
	c.deps.Notifier.Notify(ctx, types.Notification{
		Sender:      "begin",
		Type:        "string",
		Message:     c.Key,
		PhoneNumber: c.Key,
	})

	c.AddSystemMessage(fmt.Sprintf("The customer's phone number is %s.", c.Key))
	if instructions != "" {
		c.AddSystemMessage(instructions)
	}
	if contextDoc != "" {
		c.AddSystemMessage(contextDoc)
	}
}

// Run executes one engine turn. isUserTurn preempts any in-flight turn;
// continuations do not.
func (c *Conversation) Run(ctx context.Context, isUserTurn bool) {
	c.engine.Run(ctx, isUserTurn)
}

// Touch renews the expiry window.
func (c *Conversation) Touch(ttl time.Duration) {
	c.mu.Lock()
	c.expiresAt = time.Now().Add(ttl)
	c.mu.Unlock()
}

// Expired reports whether the conversation's expiry has passed.
func (c *Conversation) Expired(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return now.After(c.expiresAt)
}

// ExpiresAt returns the current expiry timestamp.
func (c *Conversation) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

// Close cancels any in-flight turn and detaches hooks. The registry calls
// it on explicit close and on eviction.
func (c *Conversation) Close() {
	c.engine.Cancel()
	c.SetHooks(types.Hooks{})
}

// onMessageLimit fires the safety-ceiling circuit breaker as a handoff.
func (c *Conversation) onMessageLimit(count int) {
	c.emitHandoff(types.HandoffPayload{
		Reason:       "Conversation exceeded maximum message limit for safety",
		ReasonCode:   "message_limit_exceeded",
		MessageCount: count,
	})
}

func (c *Conversation) emitHandoff(p types.HandoffPayload) {
	c.mu.RLock()
	fn := c.hooks.OnHandoff
	c.mu.RUnlock()
	if fn != nil {
		fn(p)
	}
}

// conversationEmitter adapts Conversation to the engine's emitter,
// forwarding events to whatever hooks are currently bound.
type conversationEmitter Conversation

func (e *conversationEmitter) Text(chunk string, final bool, full string) {
	c := (*Conversation)(e)
	c.mu.RLock()
	fn := c.hooks.OnText
	c.mu.RUnlock()
	if fn != nil {
		fn(chunk, final, full)
	}
}

func (e *conversationEmitter) Handoff(p types.HandoffPayload) {
	(*Conversation)(e).emitHandoff(p)
}

func (e *conversationEmitter) Language(p types.LanguagePayload) {
	c := (*Conversation)(e)
	c.mu.RLock()
	fn := c.hooks.OnLanguage
	c.mu.RUnlock()
	if fn != nil {
		fn(p)
	}
}
