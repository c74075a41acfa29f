// internal/convo/store_test.go
package convo

import (
	"fmt"
	"testing"

	"github.com/user/relayagent/internal/types"
)

func TestStoreAppendAndSnapshot(t *testing.T) {
	s := NewStore(0, nil)
	s.Append(types.Message{Role: types.RoleSystem, Content: "a"})
	s.Append(types.Message{Role: types.RoleUser, Content: "b"})
	s.Append(types.Message{Role: types.RoleAssistant, Content: "c"})

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "a" || msgs[1].Content != "b" || msgs[2].Content != "c" {
		t.Errorf("messages out of order: %+v", msgs)
	}

	// Snapshot must not alias internal state.
	msgs[0].Content = "mutated"
	if s.Messages()[0].Content != "a" {
		t.Error("snapshot aliases the store")
	}
}

func TestStoreCeilingNeverDrops(t *testing.T) {
	var fired []int
	s := NewStore(5, func(count int) { fired = append(fired, count) })

	for i := 0; i < 8; i++ {
		s.Append(types.Message{Role: types.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	if got := s.Len(); got != 8 {
		t.Fatalf("ceiling must not drop messages: got %d of 8", got)
	}
	// Fires on every append past the ceiling.
	if len(fired) != 3 || fired[0] != 6 || fired[2] != 8 {
		t.Errorf("expected onLimit at counts 6,7,8, got %v", fired)
	}
}

func TestStoreDefaultLimit(t *testing.T) {
	s := NewStore(-1, nil)
	if s.limit != DefaultMessageLimit {
		t.Errorf("expected default limit %d, got %d", DefaultMessageLimit, s.limit)
	}
}
