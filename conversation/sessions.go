// Package conversation answers questions over retrieved recipes.
//
// Chat history is owned by a Sessions value that the caller creates and passes
// into every Ask call; nothing is held in package state. Each session keeps
// its own bounded transcript.
package conversation

import (
	"slices"
	"sync"

	"github.com/poiesic/larder/ai"
)

// DefaultMaxMessages bounds the history replayed to the responder.
const DefaultMaxMessages = 20

// History is the transcript of one session.
type History struct {
	mu       sync.Mutex
	messages []ai.Message
	max      int
}

// Messages returns a copy of the transcript, oldest first.
func (h *History) Messages() []ai.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.messages)
}

// Append adds messages, dropping the oldest ones beyond the limit.
func (h *History) Append(messages ...ai.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, messages...)
	if h.max > 0 && len(h.messages) > h.max {
		h.messages = slices.Clone(h.messages[len(h.messages)-h.max:])
	}
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Sessions maps session ids to their histories.
type Sessions struct {
	mu          sync.Mutex
	histories   map[string]*History
	maxMessages int
}

// NewSessions creates an empty session map. maxMessages <= 0 uses DefaultMaxMessages.
func NewSessions(maxMessages int) *Sessions {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Sessions{
		histories:   make(map[string]*History),
		maxMessages: maxMessages,
	}
}

// Get returns the history of id, creating it on first use.
func (s *Sessions) Get(id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[id]
	if !ok {
		h = &History{max: s.maxMessages}
		s.histories[id] = h
	}
	return h
}

// Reset forgets the history of id.
func (s *Sessions) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, id)
}
