package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/ai/mock"
	"github.com/poiesic/larder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	docs []*core.ParentDocument
	err  error
	k    int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]*core.ParentDocument, error) {
	s.k = k
	return s.docs, s.err
}

var kimchi = &core.ParentDocument{
	DocID:    "doc-1",
	Content:  "요리 제목: 김치찌개",
	Metadata: core.ParentMetadata{Title: "김치찌개", URL: "https://example.com/recipe/1"},
}

func TestNewChat_RequiredDependencies(t *testing.T) {
	_, err := NewChat(nil, mock.NewMockResponder(), 3, nil)
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewChat(&stubRetriever{}, nil, 3, nil)
	assert.ErrorIs(t, err, ErrResponderRequired)
}

func TestAsk(t *testing.T) {
	retriever := &stubRetriever{docs: []*core.ParentDocument{kimchi}}
	responder := mock.NewMockResponder()
	chat, err := NewChat(retriever, responder, 3, nil)
	require.NoError(t, err)

	sessions := NewSessions(0)
	answer, err := chat.Ask(context.Background(), sessions, "s1", "김치찌개 어떻게 만들어?")
	require.NoError(t, err)

	assert.Equal(t, "echo: 김치찌개 어떻게 만들어?", answer.Text)
	assert.Equal(t, []*core.ParentDocument{kimchi}, answer.Sources)
	assert.Equal(t, 3, retriever.k)

	sent := responder.Received()
	require.Len(t, sent, 1)
	require.Len(t, sent[0], 2)
	assert.Equal(t, ai.RoleSystem, sent[0][0].Role)
	assert.Contains(t, sent[0][0].Content, "요리 제목: 김치찌개")
	assert.Contains(t, sent[0][0].Content, "출처: https://example.com/recipe/1")

	assert.Equal(t, []ai.Message{
		{Role: ai.RoleHuman, Content: "김치찌개 어떻게 만들어?"},
		{Role: ai.RoleAI, Content: "echo: 김치찌개 어떻게 만들어?"},
	}, sessions.Get("s1").Messages())
}

func TestAsk_HistoryIsPerSession(t *testing.T) {
	responder := mock.NewMockResponder()
	chat, err := NewChat(&stubRetriever{}, responder, 3, nil)
	require.NoError(t, err)
	sessions := NewSessions(0)
	ctx := context.Background()

	_, err = chat.Ask(ctx, sessions, "a", "첫 질문")
	require.NoError(t, err)
	_, err = chat.Ask(ctx, sessions, "b", "다른 세션")
	require.NoError(t, err)
	_, err = chat.Ask(ctx, sessions, "a", "두 번째 질문")
	require.NoError(t, err)

	sent := responder.Received()
	require.Len(t, sent, 3)
	assert.Len(t, sent[1], 2, "session b starts empty")
	assert.Len(t, sent[2], 4, "session a replays its first exchange")
	assert.Equal(t, "첫 질문", sent[2][1].Content)

	sessions.Reset("a")
	assert.Equal(t, 0, sessions.Get("a").Len())
	assert.Equal(t, 2, sessions.Get("b").Len())
}

func TestAsk_FailuresLeaveHistoryUntouched(t *testing.T) {
	sessions := NewSessions(0)
	ctx := context.Background()

	chat, err := NewChat(&stubRetriever{err: core.ErrIndexNotFound}, mock.NewMockResponder(), 3, nil)
	require.NoError(t, err)
	_, err = chat.Ask(ctx, sessions, "s", "질문")
	assert.ErrorIs(t, err, core.ErrIndexNotFound)

	responder := mock.NewMockResponder()
	responder.RespondFunc = func(context.Context, []ai.Message) (string, error) {
		return "", errors.New("rate limited")
	}
	chat, err = NewChat(&stubRetriever{}, responder, 3, nil)
	require.NoError(t, err)
	_, err = chat.Ask(ctx, sessions, "s", "질문")
	assert.ErrorContains(t, err, "rate limited")

	assert.Equal(t, 0, sessions.Get("s").Len())

	_, err = chat.Ask(ctx, nil, "s", "질문")
	assert.ErrorIs(t, err, ErrSessionsRequired)
}

func TestHistory_Bounded(t *testing.T) {
	sessions := NewSessions(4)
	h := sessions.Get("s")
	for i := 0; i < 5; i++ {
		h.Append(ai.Message{Role: ai.RoleHuman, Content: fmt.Sprint(i)})
	}

	messages := h.Messages()
	require.Len(t, messages, 4)
	assert.Equal(t, "1", messages[0].Content)
	assert.Equal(t, "4", messages[3].Content)
}

func TestSessions_Concurrent(t *testing.T) {
	sessions := NewSessions(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions.Get(fmt.Sprintf("s%d", i%2)).Append(ai.Message{Role: ai.RoleHuman, Content: "x"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, sessions.Get("s0").Len())
	assert.Equal(t, 4, sessions.Get("s1").Len())
}

func TestFormatContext(t *testing.T) {
	other := &core.ParentDocument{DocID: "doc-2", Content: "요리 제목: 된장찌개"}
	assert.Equal(t,
		"요리 제목: 김치찌개\n출처: https://example.com/recipe/1\n\n---\n\n요리 제목: 된장찌개",
		FormatContext([]*core.ParentDocument{kimchi, other}))
	assert.Empty(t, FormatContext(nil))
}
