// internal/convo/store.go
package convo

import (
	"log/slog"
	"sync"

	"github.com/user/relayagent/internal/types"
)

// DefaultMessageLimit is the hard safety ceiling on stored messages per
// conversation. It is a circuit breaker against runaway tool/continuation
// loops, not a correctness bound.
const DefaultMessageLimit = 300

// Store is the append-only, role-tagged message log owned by exactly one
// Conversation. Append never drops a message; crossing the ceiling fires
// the onLimit callback instead so the surrounding system can end the
// interaction gracefully.
type Store struct {
	mu      sync.RWMutex
	msgs    []types.Message
	limit   int
	onLimit func(count int)
}

// NewStore creates a Store with the given ceiling. onLimit may be nil;
// limit <= 0 selects DefaultMessageLimit.
func NewStore(limit int, onLimit func(count int)) *Store {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return &Store{limit: limit, onLimit: onLimit}
}

// Append adds a message to the log. If the ceiling is exceeded the message
// is still stored and onLimit fires with the new count.
func (s *Store) Append(msg types.Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	count := len(s.msgs)
	s.mu.Unlock()

	if count > s.limit {
		slog.Error("message ceiling exceeded", "count", count, "limit", s.limit)
		if s.onLimit != nil {
			s.onLimit(count)
		}
	}
}

// Messages returns a snapshot of the log in chronological order.
func (s *Store) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

var _ types.History = (*Store)(nil)
