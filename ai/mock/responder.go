package mock

import (
	"context"
	"sync"

	"github.com/poiesic/larder/ai"
)

// MockResponder is a test double for ai.Responder. By default it echoes the
// last human message.
type MockResponder struct {
	// RespondFunc is called by Respond if set.
	RespondFunc func(ctx context.Context, messages []ai.Message) (string, error)

	mu       sync.Mutex
	received [][]ai.Message
}

// NewMockResponder creates a mock responder with echo behavior.
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// Respond records the transcript and returns a reply.
func (m *MockResponder) Respond(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	m.received = append(m.received, append([]ai.Message(nil), messages...))
	m.mu.Unlock()

	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, messages)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.RoleHuman {
			return "echo: " + messages[i].Content, nil
		}
	}
	return "", nil
}

// Received returns every transcript passed to Respond.
func (m *MockResponder) Received() [][]ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ai.Message(nil), m.received...)
}
