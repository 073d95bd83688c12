package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/larder/conversation"
	"github.com/poiesic/larder/core"
)

const (
	sessionID = "user_session_01"
	exitWord  = "그만"
	resetWord = "초기화"
)

// chatLoop reads one question per line until EOF or the exit word. The reset
// word clears the session history.
// Service failures are reported and the loop continues; a missing parent
// or missing index ends it.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, chat *conversation.Chat, sessions *conversation.Sessions) error {
	fmt.Fprintf(out, "레시피에 대해 물어보세요. 끝내려면 '%s', 대화 기록을 지우려면 '%s'를 입력하세요.\n", exitWord, resetWord)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "질문> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == exitWord {
			fmt.Fprintln(out, "대화를 종료합니다.")
			return nil
		}
		if question == resetWord {
			sessions.Reset(sessionID)
			fmt.Fprintln(out, "대화 기록을 지웠습니다.")
			continue
		}

		answer, err := chat.Ask(ctx, sessions, sessionID, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, core.ErrMissingParent) || errors.Is(err, core.ErrIndexNotFound) {
				return err
			}
			slog.Warn("question failed", "err", err)
			fmt.Fprintf(out, "답변을 만들지 못했습니다: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s\n\n", answer.Text)
	}
}
