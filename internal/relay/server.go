// internal/relay/server.go
package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/relayagent/internal/convo"
	"github.com/user/relayagent/internal/prompt"
	"github.com/user/relayagent/internal/twilio"
)

// Server fronts the conversation engine for Twilio: a ConversationRelay
// websocket for voice, an SMS webhook for text, plus health and stats.
type Server struct {
	registry *convo.Registry
	queue    *convo.Queue
	prompts  *prompt.Data
	sender   *twilio.Client
	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

// NewServer creates a relay Server over the given conversation registry.
// sender delivers outbound SMS replies and may be unconfigured in dev.
func NewServer(registry *convo.Registry, queue *convo.Queue, prompts *prompt.Data, sender *twilio.Client) *Server {
	s := &Server{
		registry: registry,
		queue:    queue,
		prompts:  prompts,
		sender:   sender,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Twilio connects from its own origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /conversation-relay", s.handleRelay)
	s.mux.HandleFunc("POST /text", s.handleSMS)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.registry.Snapshot())
}
