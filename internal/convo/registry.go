// internal/convo/registry.go
package convo

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RegistryConfig tunes conversation lifetimes and eviction.
type RegistryConfig struct {
	// VoiceTTL is the idle window for voice conversations; calls have an
	// inherent end signal, so it is shorter than the text window.
	VoiceTTL time.Duration
	// TextTTL is the idle window for SMS/text threads.
	TextTTL time.Duration
	// SweepEvery is the eviction scan interval.
	SweepEvery time.Duration
}

// DefaultRegistryConfig mirrors production tuning: 30 minute voice window,
// 60 minute text window, sweep every 10 minutes.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		VoiceTTL:   30 * time.Minute,
		TextTTL:    60 * time.Minute,
		SweepEvery: 10 * time.Minute,
	}
}

// Registry maps party keys to live Conversations and bounds memory via
// time-to-live eviction. It is explicitly constructed and injected; there
// is no process-wide instance.
type Registry struct {
	deps Deps
	cfg  RegistryConfig

	mu     sync.RWMutex
	convos map[string]*Conversation

	cron *cron.Cron
}

// NewRegistry creates a Registry. It fails fast on missing backend
// configuration so a misconfigured process never limps into a call.
func NewRegistry(deps Deps, cfg RegistryConfig) (*Registry, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("registry: completion provider is required")
	}
	if deps.Tools == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("registry: tool registry and dispatcher are required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("registry: notifier is required")
	}
	if cfg.VoiceTTL <= 0 || cfg.TextTTL <= 0 || cfg.SweepEvery <= 0 {
		def := DefaultRegistryConfig()
		if cfg.VoiceTTL <= 0 {
			cfg.VoiceTTL = def.VoiceTTL
		}
		if cfg.TextTTL <= 0 {
			cfg.TextTTL = def.TextTTL
		}
		if cfg.SweepEvery <= 0 {
			cfg.SweepEvery = def.SweepEvery
		}
	}
	return &Registry{
		deps:   deps,
		cfg:    cfg,
		convos: make(map[string]*Conversation),
		cron:   cron.New(),
	}, nil
}

// Start schedules the periodic eviction sweep.
func (r *Registry) Start() error {
	_, err := r.cron.AddFunc("@every "+r.cfg.SweepEvery.String(), func() { r.Sweep() })
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the sweep scheduler and closes all conversations.
func (r *Registry) Stop() {
	r.cron.Stop()

	r.mu.Lock()
	convos := r.convos
	r.convos = make(map[string]*Conversation)
	r.mu.Unlock()

	for _, c := range convos {
		c.Close()
	}
}

// ttl returns the idle window for a conversation kind.
func (r *Registry) ttl(voice bool) time.Duration {
	if voice {
		return r.cfg.VoiceTTL
	}
	return r.cfg.TextTTL
}

// GetOrCreate returns the live Conversation for key, constructing one when
// none exists or the existing one has expired. The returned flag reports
// whether a new Conversation was created. Either way the expiry is renewed.
func (r *Registry) GetOrCreate(key string, voice bool) (*Conversation, bool) {
	now := time.Now()

	r.mu.Lock()
	existing, ok := r.convos[key]
	if ok && !existing.Expired(now) {
		r.mu.Unlock()
		existing.Touch(r.ttl(existing.IsVoice))
		return existing, false
	}
	c := NewConversation(key, voice, r.deps)
	r.convos[key] = c
	r.mu.Unlock()

	if ok {
		existing.Close()
	}
	c.Touch(r.ttl(voice))
	slog.Info("conversation created", "party", key, "voice", voice)
	return c, true
}

// Get returns the live, unexpired Conversation for key.
func (r *Registry) Get(key string) (*Conversation, bool) {
	r.mu.RLock()
	c, ok := r.convos[key]
	r.mu.RUnlock()
	if !ok || c.Expired(time.Now()) {
		return nil, false
	}
	return c, true
}

// Touch renews the expiry for key's conversation, if present.
func (r *Registry) Touch(key string) {
	if c, ok := r.Get(key); ok {
		c.Touch(r.ttl(c.IsVoice))
	}
}

// Close removes key's conversation immediately regardless of expiry.
func (r *Registry) Close(key string) {
	r.mu.Lock()
	c, ok := r.convos[key]
	if ok {
		delete(r.convos, key)
	}
	r.mu.Unlock()

	if ok {
		c.Close()
		slog.Info("conversation closed", "party", key)
	}
}

// Sweep evicts expired conversations and returns how many were removed.
// Candidates are collected under a read lock so lookups are never blocked
// behind the scan; each removal re-checks expiry under the write lock.
func (r *Registry) Sweep() int {
	now := time.Now()

	r.mu.RLock()
	var expired []string
	for key, c := range r.convos {
		if c.Expired(now) {
			expired = append(expired, key)
		}
	}
	total := len(r.convos)
	r.mu.RUnlock()

	slog.Info("starting cleanup check", "active", total)

	removed := 0
	for _, key := range expired {
		r.mu.Lock()
		c, ok := r.convos[key]
		if ok && c.Expired(now) {
			delete(r.convos, key)
		} else {
			ok = false
		}
		r.mu.Unlock()

		if ok {
			slog.Info("closing expired conversation", "party", key)
			c.Close()
			removed++
		}
	}

	slog.Info("cleanup complete", "removed", removed)
	return removed
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.convos)
}

// Stats summarizes registry occupancy for the stats endpoint.
type Stats struct {
	Active int `json:"active_conversations"`
	Voice  int `json:"voice"`
	Text   int `json:"text"`
}

// Snapshot returns current occupancy counts.
func (r *Registry) Snapshot() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{Active: len(r.convos)}
	for _, c := range r.convos {
		if c.IsVoice {
			s.Voice++
		} else {
			s.Text++
		}
	}
	return s
}
