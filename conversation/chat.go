package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/core"
)

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrResponderRequired is returned when a responder is not provided.
	ErrResponderRequired = errors.New("responder required")

	// ErrSessionsRequired is returned when Ask is called without a session map.
	ErrSessionsRequired = errors.New("sessions required")
)

const systemPrompt = `당신은 한국 가정식 요리를 친절하게 알려주는 요리 도우미입니다.
아래 레시피 자료만 근거로 답하고, 자료에 없는 내용은 모른다고 말하세요.
답변 끝에 참고한 레시피의 출처 URL을 적어 주세요.

[레시피 자료]
%s`

// Retriever finds parent documents relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*core.ParentDocument, error)
}

// Answer is a reply and the documents it was grounded on.
type Answer struct {
	Text    string
	Sources []*core.ParentDocument
}

// Chat answers questions with retrieved context.
type Chat struct {
	retriever Retriever
	responder ai.Responder
	k         int
	logger    *slog.Logger
}

// NewChat creates a Chat that retrieves k documents per question.
func NewChat(retriever Retriever, responder ai.Responder, k int, logger *slog.Logger) (*Chat, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if responder == nil {
		return nil, ErrResponderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{
		retriever: retriever,
		responder: responder,
		k:         k,
		logger:    logger.With("component", "chat"),
	}, nil
}

// Ask answers question in the given session and records the exchange in its history.
// A failed retrieval or response leaves the history unchanged.
func (c *Chat) Ask(ctx context.Context, sessions *Sessions, sessionID, question string) (*Answer, error) {
	if sessions == nil {
		return nil, ErrSessionsRequired
	}

	docs, err := c.retriever.Retrieve(ctx, question, c.k)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	history := sessions.Get(sessionID)
	past := history.Messages()

	messages := make([]ai.Message, 0, len(past)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: fmt.Sprintf(systemPrompt, FormatContext(docs))})
	messages = append(messages, past...)
	messages = append(messages, ai.Message{Role: ai.RoleHuman, Content: question})

	reply, err := c.responder.Respond(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	history.Append(
		ai.Message{Role: ai.RoleHuman, Content: question},
		ai.Message{Role: ai.RoleAI, Content: reply},
	)
	c.logger.Debug("answered question", "session", sessionID, "sources", len(docs), "history", history.Len())

	return &Answer{Text: reply, Sources: docs}, nil
}

// FormatContext renders documents as the context block of the system prompt.
func FormatContext(docs []*core.ParentDocument) string {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(doc.Content)
		if doc.Metadata.URL != "" {
			b.WriteString("\n출처: ")
			b.WriteString(doc.Metadata.URL)
		}
	}
	return b.String()
}
