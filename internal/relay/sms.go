// internal/relay/sms.go
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/relayagent/internal/types"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// handleSMS is the Twilio messaging webhook. Each inbound message is
// queued on the sender's lane so messages from one party run in order
// while different parties proceed in parallel. The webhook itself
// returns an empty TwiML reply immediately; the agent's answer goes out
// through the REST API when the turn finishes.
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	to := r.PostFormValue("To")

	if from == "" || body == "" {
		slog.Error("sms webhook missing required fields", "from", from)
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	medium := "sms"
	if strings.Contains(from, "whatsapp:") || strings.Contains(to, "whatsapp:") {
		medium = "whatsapp"
	}
	slog.Info("inbound text received", "from", from, "medium", medium)

	err := s.queue.Enqueue(from, func(ctx context.Context) {
		s.processText(ctx, from, to, body, medium)
	})
	if err != nil {
		slog.Error("sms enqueue failed", "from", from, "error", err)
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, emptyTwiML)
}

// processText runs one inbound text through the conversation engine.
func (s *Server) processText(ctx context.Context, from, to, body, medium string) {
	conv, created := s.registry.GetOrCreate(from, false)
	if created {
		conv.SetHooks(types.Hooks{
			OnText: func(_ string, final bool, full string) {
				if !final || full == "" {
					return
				}
				s.replyText(ctx, from, full)
			},
			OnHandoff: func(p types.HandoffPayload) {
				slog.Info("text conversation flagged for handoff",
					"party", from, "reason_code", p.ReasonCode)
			},
			OnLanguage: func(p types.LanguagePayload) {
				slog.Info("language switch on text thread ignored", "party", from)
			},
		})
		conv.Begin(ctx, s.prompts.Instructions, s.prompts.Context)
		conv.AddSystemMessage(fmt.Sprintf(
			"The agent's phone number is %s. This is a %s conversation.", to, medium))
	}

	conv.AddUserMessage(body)
	conv.Run(ctx, true)
}

// replyText delivers the agent's answer over the Twilio REST API.
func (s *Server) replyText(ctx context.Context, to, body string) {
	if s.sender == nil || !s.sender.Configured() {
		slog.Warn("no outbound messaging configured, dropping reply", "to", to)
		return
	}
	sid, err := s.sender.SendMessage(ctx, to, body)
	if err != nil {
		slog.Error("outbound text failed", "to", to, "error", err)
		return
	}
	slog.Info("outbound text sent", "to", to, "sid", sid)
}
