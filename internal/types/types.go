// internal/types/types.go
package types

import "context"

// Role tags a conversation message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation history. Messages are immutable
// once appended; order is chronological.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the append-only message log a conversation owns. Append never
// fails: breaching the safety ceiling is reported through the store's
// handoff callback, not an error.
type History interface {
	Append(msg Message)
	Messages() []Message
	Len() int
}

// HandoffPayload carries the reason a conversation is being handed off to
// a human or terminated.
type HandoffPayload struct {
	CallSID      string `json:"call_sid,omitempty"`
	Reason       string `json:"reason"`
	ReasonCode   string `json:"reason_code"`
	Summary      string `json:"conversation_summary,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

// LanguagePayload carries the result of a language switch.
type LanguagePayload struct {
	Message               string `json:"message"`
	TTSLanguage           string `json:"tts_language"`
	TranscriptionLanguage string `json:"transcription_language"`
	Warning               string `json:"warning,omitempty"`
}

// Hooks are the per-conversation events a transport adapter subscribes to.
// Any field may be nil.
type Hooks struct {
	// OnText is called per flushed chunk (final=false) and once at turn
	// completion (final=true, full carries the whole reply).
	OnText func(chunk string, final bool, full string)
	// OnHandoff terminates the caller's expectation of further text from
	// the current turn.
	OnHandoff func(p HandoffPayload)
	// OnLanguage signals a TTS/transcription language change mid-turn.
	OnLanguage func(p LanguagePayload)
}

// Notification is one best-effort side-channel event.
type Notification struct {
	Sender      string `json:"sender"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
}

// Notifier is the best-effort side channel. Failures are logged by the
// implementation and never affect conversation control flow.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
