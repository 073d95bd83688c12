package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/ai/mock"
	"github.com/poiesic/larder/config"
	"github.com/poiesic/larder/conversation"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testShard = `[
	{"id":"1","title":"백종원 김치찌개 만들기","ingredients":"김치,,\n돼지고기","steps":"볶는다","url":"u1"},
	{"id":"2","title":"김치찌개","ingredients":"김치","steps":"끓인다","url":"u2"},
	{"id":"3","title":"[초간단] 계란말이","ingredients":"계란","steps":"부친다","url":"u3"}
]`

func writeShards(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes_1.json"), []byte(testShard), 0644))
	return dir
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level has default value of info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
				break
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
	})

	t.Run("until-step defaults to run", func(t *testing.T) {
		cmd := findCommand(t, app, "run")
		var stepFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "until-step" {
				stepFlag = f
				break
			}
		}
		require.NotNil(t, stepFlag)
		assert.Equal(t, stepRun, stepFlag.Value)
	})

	t.Run("all pipeline commands exist", func(t *testing.T) {
		for _, name := range []string{"preprocess", "index", "query", "chat", "run"} {
			assert.NotNil(t, findCommand(t, app, name))
		}
	})
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		step    string
		wantErr bool
	}{
		{step: "preprocess"},
		{step: "index"},
		{step: "run"},
		{step: "chat", wantErr: true},
		{step: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			got, err := parseStep(tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.step, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := newLogger("verbose")
	assert.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("LARDER_API_KEY", "")
	t.Setenv("UPSTAGE_API_KEY", "up-key")
	assert.Equal(t, "up-key", apiKey())

	t.Setenv("LARDER_API_KEY", "larder-key")
	assert.Equal(t, "larder-key", apiKey())
}

func TestLoadConfig(t *testing.T) {
	inspect := func(cfg **config.Config) *cli.App {
		app := newApp()
		app.Commands = []*cli.Command{
			{
				Name:  "inspect",
				Flags: []cli.Flag{thresholdFlag()},
				Action: func(c *cli.Context) error {
					loaded, err := loadConfig(c)
					*cfg = loaded
					return err
				},
			},
		}
		return app
	}

	t.Run("defaults with flag overrides", func(t *testing.T) {
		var cfg *config.Config
		indexDir := filepath.Join(t.TempDir(), "idx")
		err := inspect(&cfg).Run([]string{"larder", "--index-dir", indexDir, "inspect", "--threshold", "0.5"})
		require.NoError(t, err)

		assert.Equal(t, indexDir, cfg.Index.Path)
		assert.Equal(t, 0.5, cfg.Dedup.Threshold)
		assert.Equal(t, config.DefaultShardDir, cfg.Corpus.ShardDir)
	})

	t.Run("flags override the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "larder.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: info\ndedup:\n  threshold: 0.9\nretrieval:\n  k: 6\n"), 0644))

		var cfg *config.Config
		err := inspect(&cfg).Run([]string{"larder", "--config", path, "inspect", "--threshold", "0.6"})
		require.NoError(t, err)

		assert.Equal(t, 0.6, cfg.Dedup.Threshold)
		assert.Equal(t, 6, cfg.Retrieval.K)
	})

	t.Run("invalid override", func(t *testing.T) {
		var cfg *config.Config
		err := inspect(&cfg).Run([]string{"larder", "inspect", "--threshold", "1.5"})
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("explicit env file must exist", func(t *testing.T) {
		var cfg *config.Config
		err := inspect(&cfg).Run([]string{"larder", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "inspect"})
		assert.Error(t, err)
	})
}

func TestPreprocessCommand(t *testing.T) {
	shards := writeShards(t)
	cleaned := filepath.Join(t.TempDir(), "out", "cleaned.json")
	args := []string{"larder", "--shard-dir", shards, "--cleaned-file", cleaned, "preprocess"}

	run := func(extra ...string) string {
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		require.NoError(t, app.Run(append(args, extra...)))
		return out.String()
	}

	assert.Contains(t, run(), "Loaded 3 records, removed 1 duplicates, wrote 2")

	records, err := corpus.LoadCleaned(cleaned)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Contains(t, run(), "skipping preprocessing")
	assert.Contains(t, run("--force"), "wrote 2")
}

func TestRunCommand(t *testing.T) {
	t.Setenv("LARDER_API_KEY", "")
	t.Setenv("UPSTAGE_API_KEY", "")

	t.Run("stops after preprocess without an API key", func(t *testing.T) {
		shards := writeShards(t)
		cleaned := filepath.Join(t.TempDir(), "cleaned.json")

		var errOut bytes.Buffer
		app := newApp()
		app.ErrWriter = &errOut
		err := app.Run([]string{"larder", "--shard-dir", shards, "--cleaned-file", cleaned,
			"run", "--until-step", "preprocess", "--threshold", "0.75"})
		require.NoError(t, err)
		assert.Contains(t, errOut.String(), "wrote 2")

		exists, err := corpus.Exists(cleaned)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("index step requires an API key", func(t *testing.T) {
		shards := writeShards(t)
		cleaned := filepath.Join(t.TempDir(), "cleaned.json")

		app := newApp()
		app.ErrWriter = &bytes.Buffer{}
		err := app.Run([]string{"larder", "--shard-dir", shards, "--cleaned-file", cleaned,
			"--index-dir", filepath.Join(t.TempDir(), "index"), "run", "--until-step", "index"})
		assert.ErrorIs(t, err, errMissingAPIKey)
	})

	t.Run("invalid step", func(t *testing.T) {
		err := newApp().Run([]string{"larder", "run", "--until-step", "serve"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid step")
	})
}

func TestIndexCommand_MissingAPIKey(t *testing.T) {
	t.Setenv("LARDER_API_KEY", "")
	t.Setenv("UPSTAGE_API_KEY", "")

	err := newApp().Run([]string{"larder", "--index-dir", filepath.Join(t.TempDir(), "index"), "index"})
	assert.ErrorIs(t, err, errMissingAPIKey)
}

func TestQueryCommand_RequiresQuestion(t *testing.T) {
	err := newApp().Run([]string{"larder", "query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is required")
}

type stubRetriever struct {
	docs []*core.ParentDocument
	err  error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]*core.ParentDocument, error) {
	return s.docs, s.err
}

func TestChatLoop(t *testing.T) {
	docs := []*core.ParentDocument{{
		DocID:    "doc-1",
		Content:  "요리 제목: 김치찌개",
		Metadata: core.ParentMetadata{Title: "김치찌개", URL: "u1"},
	}}

	t.Run("answers until the exit word", func(t *testing.T) {
		responder := mock.NewMockResponder()
		chat, err := conversation.NewChat(&stubRetriever{docs: docs}, responder, 4, nil)
		require.NoError(t, err)
		sessions := conversation.NewSessions(conversation.DefaultMaxMessages)

		var out bytes.Buffer
		in := strings.NewReader("김치찌개 어떻게 끓여?\n\n그만\n무시되는 질문\n")
		require.NoError(t, chatLoop(context.Background(), in, &out, chat, sessions))

		assert.Contains(t, out.String(), "echo: 김치찌개 어떻게 끓여?")
		assert.Contains(t, out.String(), "대화를 종료합니다.")
		assert.Len(t, responder.Received(), 1)
		assert.Equal(t, 2, sessions.Get(sessionID).Len())
	})

	t.Run("reset word clears the history", func(t *testing.T) {
		responder := mock.NewMockResponder()
		chat, err := conversation.NewChat(&stubRetriever{docs: docs}, responder, 4, nil)
		require.NoError(t, err)
		sessions := conversation.NewSessions(conversation.DefaultMaxMessages)

		var out bytes.Buffer
		in := strings.NewReader("첫 질문\n초기화\n두 번째 질문\n")
		require.NoError(t, chatLoop(context.Background(), in, &out, chat, sessions))

		assert.Contains(t, out.String(), "대화 기록을 지웠습니다.")
		sent := responder.Received()
		require.Len(t, sent, 2)
		assert.Len(t, sent[1], len(sent[0]), "second question starts without the first exchange")
		assert.Equal(t, 2, sessions.Get(sessionID).Len())
	})

	t.Run("end of input", func(t *testing.T) {
		chat, err := conversation.NewChat(&stubRetriever{docs: docs}, mock.NewMockResponder(), 4, nil)
		require.NoError(t, err)

		var out bytes.Buffer
		err = chatLoop(context.Background(), strings.NewReader("질문\n"), &out, chat, conversation.NewSessions(2))
		assert.NoError(t, err)
	})

	t.Run("service failures do not end the loop", func(t *testing.T) {
		responder := mock.NewMockResponder()
		responder.RespondFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
			return "", errors.New("service unavailable")
		}
		chat, err := conversation.NewChat(&stubRetriever{docs: docs}, responder, 4, nil)
		require.NoError(t, err)

		var out bytes.Buffer
		err = chatLoop(context.Background(), strings.NewReader("하나\n둘\n"), &out, chat, conversation.NewSessions(2))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out.String(), "답변을 만들지 못했습니다"))
	})

	t.Run("missing parent ends the loop", func(t *testing.T) {
		chat, err := conversation.NewChat(&stubRetriever{err: core.ErrMissingParent}, mock.NewMockResponder(), 4, nil)
		require.NoError(t, err)

		var out bytes.Buffer
		err = chatLoop(context.Background(), strings.NewReader("질문\n"), &out, chat, conversation.NewSessions(2))
		assert.ErrorIs(t, err, core.ErrMissingParent)
	})
}

func TestPrintingMonitor(t *testing.T) {
	var out bytes.Buffer
	m := newPrintingMonitor(&out)

	chunk := &core.ChildChunk{DocID: "doc-1", Ordinal: 0, Content: "요리 제목: 김치찌개"}
	match := &core.ChunkMatch{Chunk: chunk, Score: 0.9}
	parent := &core.ParentDocument{DocID: "doc-1", Metadata: core.ParentMetadata{Title: "김치찌개"}}

	m.Start("김치찌개", 4)
	m.AfterEmbedding(384)
	m.AfterChildSearch([]*core.ChunkMatch{match, match})
	m.ParentResolved(match, parent, false)
	m.ParentResolved(match, parent, true)
	m.Finish([]core.RetrievedDocument{{Document: parent, Score: 0.9}})

	text := out.String()
	assert.Contains(t, text, `[query] "김치찌개" k=4`)
	assert.Contains(t, text, "[embed] dimension=384")
	assert.Contains(t, text, "[search] 2 child chunks")
	assert.Contains(t, text, "[parent] doc-1 김치찌개")
	assert.Contains(t, text, "[parent] doc-1 (duplicate)")
	assert.Contains(t, text, "[done] 1 parents")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "짧은", preview("짧은", 5))
	assert.Equal(t, "가나...", preview("가나다라", 2))
}
