package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/checkpoint"
	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
	"github.com/pr0ta9/Genesis-sub000/pkg/graph"
	"github.com/pr0ta9/Genesis-sub000/pkg/llm"
	"github.com/pr0ta9/Genesis-sub000/pkg/pathgen"
	"github.com/pr0ta9/Genesis-sub000/pkg/registry"
	"github.com/pr0ta9/Genesis-sub000/pkg/repo/sqlstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

type fakeLLM struct{ responses map[string]string }

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Result, error) {
	body := f.responses[opts.SchemaName]
	if opts.OnToken != nil {
		opts.OnToken(body)
	}
	return llm.Result{Content: body}, nil
}

type fakeLister struct{}

func (f *fakeLister) ListByInputType(tag workflow.Type) []toolspec.ToolMetadata { return nil }

type fakeVector struct{}

func (f *fakeVector) Search(ctx context.Context, query string, limit int) ([]vectorstore.Match, error) {
	return nil, nil
}
func (f *fakeVector) Save(ctx context.Context, p vectorstore.Precedent) (string, error) {
	return p.UID, nil
}
func (f *fakeVector) Delete(ctx context.Context, uids []string) error { return nil }
func (f *fakeVector) ListAll(ctx context.Context) ([]vectorstore.Precedent, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	db, err := sqlstore.Open(context.Background(), root+"/genesis.db")
	require.NoError(t, err)

	classify := `{"objective":"greet","input_type":"Text","output_type":"Text","is_complex":false,"reasoning":"hi"}`
	finalize := `{"response":"Hello!","is_complete":true,"summary":"greeted","reasoning":"done"}`
	llmClient := &fakeLLM{responses: map[string]string{"classify_result": classify, "finalize_result": finalize}}

	ex := executor.New(executor.Config{ProjectRoot: root, IsolationMode: executor.IsolationNone})
	ckpt, err := checkpoint.NewManager(&checkpoint.Config{})
	require.NoError(t, err)

	deps := &graph.Deps{
		LLM:         llmClient,
		Vector:      &fakeVector{},
		PathGen:     pathgen.New(&fakeLister{}),
		Executor:    ex,
		Checkpoints: ckpt,
	}

	return New(&Server{
		Chats:       sqlstore.NewChatStore(db),
		Messages:    sqlstore.NewMessageStore(db),
		States:      sqlstore.NewStateStore(db),
		Vector:      &fakeVector{},
		Tools:       registry.NewToolRegistry(),
		Checkpoints: ckpt,
		Graph:       graph.New(deps),
		ProjectRoot: root,
		LLMProvider: "openai",
		LLMModel:    "gpt-4o-mini",
	})
}

func TestListModelsReportsConfiguredProvider(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "openai", body["provider"])
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestPrecedentsListAndDeleteAll(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/precedents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/precedents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkspaceInfoOnEmptyProject(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/workspace", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Directories []any `json:"directories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Directories)
}

func TestChatCRUD(t *testing.T) {
	s := newTestServer(t)

	body := bytes.NewBufferString(`{"title":"first chat"}`)
	req := httptest.NewRequest(http.MethodPost, "/chats", body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created sqlstore.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "first chat", created.Title)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostMessageStreamsNDJSONAndPersists(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "say hi"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/messages/chat-1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var sawPersisted bool
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var line struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		if line.Type == "persisted" {
			sawPersisted = true
		}
	}
	assert.True(t, sawPersisted, "expected a terminal persisted line")
}
