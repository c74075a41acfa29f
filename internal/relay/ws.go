// internal/relay/ws.go
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/user/relayagent/internal/types"
)

// inboundFrame covers every ConversationRelay message type in one shape;
// the type field decides which of the remaining fields carry data.
type inboundFrame struct {
	Type string `json:"type"`

	// setup
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Direction string `json:"direction,omitempty"`
	CallSID   string `json:"callSid,omitempty"`

	// prompt
	VoicePrompt string `json:"voicePrompt,omitempty"`

	// dtmf
	Digit string `json:"digit,omitempty"`

	// message
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`

	// error
	Description string `json:"description,omitempty"`
}

type textFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

type handoffFrame struct {
	Type string               `json:"type"`
	Data types.HandoffPayload `json:"data"`
}

type languageFrame struct {
	Type                  string `json:"type"`
	TTSLanguage           string `json:"ttsLanguage,omitempty"`
	TranscriptionLanguage string `json:"transcriptionLanguage,omitempty"`
}

// relaySession is the per-connection state for one websocket.
type relaySession struct {
	conn *websocket.Conn

	// writeMu serializes writers; gorilla permits one concurrent writer.
	writeMu sync.Mutex

	party string
}

func (rs *relaySession) send(v any) {
	rs.writeMu.Lock()
	defer rs.writeMu.Unlock()
	if err := rs.conn.WriteJSON(v); err != nil {
		slog.Error("relay write failed", "party", rs.party, "error", err)
	}
}

// handleRelay speaks the Twilio ConversationRelay websocket protocol: a
// setup frame binds the socket to a conversation, prompt/dtmf frames feed
// user turns, and engine output streams back as text token frames.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sess := &relaySession{conn: conn}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Error("relay read failed", "party", sess.party, "error", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			slog.Warn("relay frame not JSON", "party", sess.party, "error", err)
			continue
		}

		switch frame.Type {
		case "setup":
			s.handleSetup(ctx, sess, frame)
		case "prompt":
			slog.Info("voice prompt received", "party", sess.party, "prompt", frame.VoicePrompt)
			s.runUserTurn(ctx, sess, frame.VoicePrompt)
		case "message":
			content := frame.Content
			if content == "" {
				content = frame.Message
			}
			s.runUserTurn(ctx, sess, content)
		case "dtmf":
			slog.Info("dtmf received", "party", sess.party, "digit", frame.Digit)
			s.runUserTurn(ctx, sess, "DTMF: "+frame.Digit)
		case "interrupt":
			slog.Info("caller interrupted playback", "party", sess.party)
			if conv, ok := s.registry.Get(sess.party); ok {
				// A fresh user turn preempts the interrupted one.
				go conv.Run(ctx, true)
			}
		case "info":
			slog.Debug("relay info frame", "party", sess.party)
		case "error":
			slog.Error("relay error frame", "party", sess.party, "description", frame.Description)
		default:
			slog.Warn("unknown relay frame", "party", sess.party, "type", frame.Type)
		}
	}

	if sess.party != "" {
		s.registry.Close(sess.party)
	}
}

// handleSetup binds the socket to a fresh voice conversation for the
// customer leg and kicks off the greeting turn. A setup frame always
// starts over: any text thread for the same party is replaced.
func (s *Server) handleSetup(ctx context.Context, sess *relaySession, frame inboundFrame) {
	party := frame.From
	if frame.Direction == "outbound-api" || frame.Direction == "outbound-dial" {
		party = frame.To
	}
	if party == "" {
		slog.Error("setup frame missing customer number", "direction", frame.Direction)
		return
	}
	sess.party = party

	s.registry.Close(party)
	conv, _ := s.registry.GetOrCreate(party, true)
	conv.SetCallSID(frame.CallSID)
	conv.SetHooks(types.Hooks{
		OnText: func(chunk string, final bool, _ string) {
			sess.send(textFrame{Type: "text", Token: chunk, Last: final})
		},
		OnHandoff: func(p types.HandoffPayload) {
			sess.send(handoffFrame{Type: "handoff", Data: p})
		},
		OnLanguage: func(p types.LanguagePayload) {
			sess.send(languageFrame{
				Type:                  "language",
				TTSLanguage:           p.TTSLanguage,
				TranscriptionLanguage: p.TranscriptionLanguage,
			})
		},
	})

	slog.Info("call session started", "party", party, "call_sid", frame.CallSID, "direction", frame.Direction)

	conv.Begin(ctx, s.prompts.Instructions, s.prompts.Context)
	go conv.Run(ctx, true)
}

// runUserTurn records a user utterance and starts a turn in the
// background so the read loop keeps seeing frames; a newer prompt then
// preempts the in-flight turn through the engine.
func (s *Server) runUserTurn(ctx context.Context, sess *relaySession, content string) {
	if sess.party == "" {
		slog.Warn("prompt before setup, dropping")
		return
	}
	conv, ok := s.registry.Get(sess.party)
	if !ok {
		slog.Warn("prompt for closed conversation", "party", sess.party)
		return
	}
	conv.AddUserMessage(content)
	s.registry.Touch(sess.party)
	go conv.Run(ctx, true)
}
