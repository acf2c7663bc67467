package session

import (
	"fmt"
	"sync"

	"github.com/helmsman-ai/helmsman/core"
)

// DefaultMaxMessages caps each session at 20 entries (10 user/assistant turns).
const DefaultMaxMessages = 20

// Options configure a Manager.
type Options struct {
	// MaxMessages bounds the per-session history length in entries (two per
	// turn). Values below 2 fall back to DefaultMaxMessages.
	MaxMessages int
}

// Manager keeps the per-(channel, channel id) bounded rolling history. It is
// safe for concurrent use. Concurrent appends to the same session may
// interleave between invocations; each individual Append is atomic and pair
// alignment is always preserved.
type Manager struct {
	mu       sync.RWMutex
	max      int
	sessions map[string][]core.Message
}

// NewManager constructs an empty session Manager.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{MaxMessages: DefaultMaxMessages}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxMessages < 2 {
		opts.MaxMessages = DefaultMaxMessages
	}
	return &Manager{max: opts.MaxMessages, sessions: make(map[string][]core.Message)}
}

func key(channel, channelID string) string {
	return fmt.Sprintf("%s:%s", channel, channelID)
}

// Get returns a copy of the ordered history for the session, creating an
// empty one on first access. A session is never absent once requested.
func (m *Manager) Get(channel, channelID string) []core.Message {
	k := key(channel, channelID)

	m.mu.Lock()
	defer m.mu.Unlock()
	hist, ok := m.sessions[k]
	if !ok {
		m.sessions[k] = nil
		return []core.Message{}
	}
	out := make([]core.Message, len(hist))
	copy(out, hist)
	return out
}

// Append adds one (user, assistant) turn as exactly two entries in order. If
// the history then exceeds the cap, the oldest surplus entries are evicted
// from the front; since exactly two entries are added per call, eviction
// always removes whole turns and pair alignment is preserved.
func (m *Manager) Append(channel, channelID, userText, assistantText string) {
	k := key(channel, channelID)

	m.mu.Lock()
	defer m.mu.Unlock()
	hist := append(m.sessions[k],
		core.UserMessage(userText),
		core.AssistantMessage(assistantText),
	)
	if excess := len(hist) - m.max; excess > 0 {
		hist = hist[excess:]
	}
	m.sessions[k] = hist
}

// Clear removes the session's history and returns the number of entries
// removed. The session remains retrievable afterward (empty, not absent).
func (m *Manager) Clear(channel, channelID string) int {
	k := key(channel, channelID)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := len(m.sessions[k])
	m.sessions[k] = nil
	return removed
}
