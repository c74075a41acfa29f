// internal/convo/convo_test.go
package convo

import (
	"context"
	"sync"

	"github.com/user/relayagent/internal/tools"
	"github.com/user/relayagent/internal/types"
	"github.com/user/relayagent/pkg/llm"
)

// stubProvider returns an immediately-finished stream; conversation tests
// exercise lifecycle, not completion semantics.
type stubProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Stream(context.Context, []llm.Message, []llm.Tool) (<-chan llm.Increment, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	ch := make(chan llm.Increment)
	close(ch)
	return ch, nil
}

type stubNotifier struct {
	mu    sync.Mutex
	notes []types.Notification
}

func (n *stubNotifier) Notify(_ context.Context, note types.Notification) {
	n.mu.Lock()
	n.notes = append(n.notes, note)
	n.mu.Unlock()
}

func (n *stubNotifier) sent() []types.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Notification(nil), n.notes...)
}

func testDeps() Deps {
	reg := tools.NewRegistry()
	notifier := &stubNotifier{}
	return Deps{
		Provider:   &stubProvider{},
		Tools:      reg,
		Dispatcher: tools.NewDispatcher(reg, notifier),
		Notifier:   notifier,
	}
}
