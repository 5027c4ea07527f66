// Package server is the thin HTTP surface over the Agent Graph: chat and
// message CRUD, the NDJSON streaming message endpoint, precedent
// save/delete/list, artifact upload, and model/tool/workspace
// introspection, routed with chi.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pr0ta9/Genesis-sub000/pkg/checkpoint"
	"github.com/pr0ta9/Genesis-sub000/pkg/graph"
	"github.com/pr0ta9/Genesis-sub000/pkg/observability"
	"github.com/pr0ta9/Genesis-sub000/pkg/registry"
	"github.com/pr0ta9/Genesis-sub000/pkg/repo/sqlstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/stream"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
)

// Server wires the repositories, the compiled graph, and observability
// into an http.Handler.
type Server struct {
	Chats       sqlstore.ChatRepo
	Messages    sqlstore.MessageRepo
	States      sqlstore.StateRepo
	Vector      vectorstore.VectorStore
	Tools       *registry.ToolRegistry
	Checkpoints *checkpoint.Manager
	Graph       *graph.Graph
	Metrics     *observability.Metrics
	ProjectRoot string
	LLMProvider string
	LLMModel    string

	router chi.Router
}

// New builds the chi router and registers every route named in the
// external interfaces contract.
func New(s *Server) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Route("/chats", func(r chi.Router) {
		r.Get("/", s.listChats)
		r.Post("/", s.createChat)
		r.Put("/{chatID}", s.updateChat)
		r.Delete("/{chatID}", s.deleteChat)
	})

	r.Post("/messages/{chatID}", s.postMessage)
	r.Get("/messages/{messageID}", s.getMessage)
	r.Post("/messages/{messageID}/precedent", s.savePrecedent)
	r.Delete("/messages/{messageID}/precedent", s.deletePrecedent)

	r.Get("/precedents", s.listPrecedents)
	r.Delete("/precedents", s.deleteAllPrecedents)

	r.Post("/artifacts/{chatID}/upload", s.uploadArtifact)

	r.Get("/models", s.listModels)
	r.Get("/tools/{name}/source", s.getToolSource)

	r.Get("/workspace", s.workspaceInfo)
	r.Delete("/workspace", s.cleanupWorkspace)
	r.Delete("/workspace/{dir}", s.cleanupWorkspaceDir)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// metricsMiddleware records HTTP request count/duration by chi's matched
// route pattern, so /messages/{chatID} aggregates across chat ids.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		s.Metrics.RecordHTTPRequest(pattern, http.StatusText(ww.Status()), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Error("server: request failed", "status", status, "error", err)
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.Chats.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chat, err := s.Chats.Create(r.Context(), body.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) updateChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "chatID")
	if err := s.Chats.Update(r.Context(), id, body.Title); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	if err := s.Chats.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	msg, err := s.Messages.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	snapshot, err := s.States.GetByMessage(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "state": snapshot})
}

// postMessage implements POST /messages/{chat_id}: multipart
// {message, files?, interrupted?}, streamed back as NDJSON.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	text := r.FormValue("message")
	interrupted := r.FormValue("interrupted") == "true" || r.FormValue("interrupted") == "1"

	userMsg, err := s.Messages.Create(r.Context(), sqlstore.Message{ChatID: chatID, Role: string(state.RoleUser), Content: text})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	assistantMsg, err := s.Messages.Create(r.Context(), sqlstore.Message{ChatID: chatID, Role: string(state.RoleAssistant)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var conv state.ConversationState
	if interrupted {
		resumed, err := s.Checkpoints.Resume(r.Context(), chatID, text)
		if err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
		conv = *resumed
	} else {
		conv = state.ConversationState{Messages: []state.Message{{Role: state.RoleUser, Content: text}}}
	}

	sw, err := stream.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rc := graph.RunContext{ThreadID: chatID, ChatID: chatID, MessageID: assistantMsg.ID}
	repos := stream.Repos{Messages: s.Messages, States: s.States}
	if err := stream.Run(r.Context(), sw, repos, s.Graph, rc, conv); err != nil {
		slog.Error("server: streaming run failed", "chat_id", chatID, "user_message_id", userMsg.ID, "error", err)
	}
}

func (s *Server) savePrecedent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	conv, err := s.States.GetByMessage(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	p := vectorstore.Precedent{
		UID:           uuid.NewString(),
		Objective:     conv.Objective,
		InputType:     conv.InputType,
		TypeSavepoint: conv.TypeSavepoint,
		ToolMetadata:  conv.ToolMetadata,
		ChosenPath:    conv.ChosenPath,
	}
	uid, err := s.Vector.Save(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.Messages.UpdateMessage(r.Context(), id, func(m *sqlstore.Message) { m.PrecedentID = uid }); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"uid": uid})
}

func (s *Server) deletePrecedent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	msg, err := s.Messages.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if msg.PrecedentID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.Vector.Delete(r.Context(), []string{msg.PrecedentID}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.Messages.UpdateMessage(r.Context(), id, func(m *sqlstore.Message) { m.PrecedentID = "" }); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadArtifact stores an uploaded file under inputs/<chat_id>/, per the
// filesystem layout contract.
func (s *Server) uploadArtifact(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	dir := filepath.Join(s.ProjectRoot, "inputs", chatID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dst := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer out.Close()

	if _, err := out.ReadFrom(file); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": dst})
}

// listPrecedents returns every stored precedent with a count. Precedents
// are not joined with the chat or message that saved them.
func (s *Server) listPrecedents(w http.ResponseWriter, r *http.Request) {
	precedents, err := s.Vector.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"precedents": precedents, "count": len(precedents)})
}

// deleteAllPrecedents wipes the precedent store. Messages keep their
// precedent_id values; they are not cleared.
func (s *Server) deleteAllPrecedents(w http.ResponseWriter, r *http.Request) {
	precedents, err := s.Vector.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	uids := make([]string, len(precedents))
	for i, p := range precedents {
		uids[i] = p.UID
	}
	if len(uids) > 0 {
		if err := s.Vector.Delete(r.Context(), uids); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted_count": len(uids)})
}

// listModels reports the configured LLM provider/model pair. Genesis
// wires exactly one LLMClient, so there is no runtime model list to
// enumerate beyond the one the server was started with.
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"provider": s.LLMProvider, "model": s.LLMModel})
}

// getToolSource serves the registered tool's own implementation file,
// read-only, so a client can show what a pipeline step actually does
// rather than trusting only its //pathtool: declaration.
func (s *Server) getToolSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	meta, ok := s.Tools.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("server: tool %q not registered", name))
		return
	}
	dir, fn, ok := strings.Cut(meta.ModuleRef, "#")
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("server: tool %q has a malformed module reference", name))
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	needle := "func " + fn + "("
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(string(content), needle) {
			writeJSON(w, http.StatusOK, map[string]string{"tool": name, "path": path, "source": string(content)})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("server: source file for tool %q not found", name))
}

// workspaceInfo lists the executor's per-run workspace directories under
// <project_root>/tmp, with their size on disk.
func (s *Server) workspaceInfo(w http.ResponseWriter, r *http.Request) {
	tmpRoot := filepath.Join(s.ProjectRoot, "tmp")
	entries, err := os.ReadDir(tmpRoot)
	if os.IsNotExist(err) {
		writeJSON(w, http.StatusOK, map[string]any{"tmp_root": tmpRoot, "directories": []string{}, "total": 0})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	type dirInfo struct {
		Name  string `json:"name"`
		Bytes int64  `json:"bytes"`
	}
	dirs := make([]dirInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var size int64
		_ = filepath.WalkDir(filepath.Join(tmpRoot, e.Name()), func(p string, d os.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				if info, err := d.Info(); err == nil {
					size += info.Size()
				}
			}
			return nil
		})
		dirs = append(dirs, dirInfo{Name: e.Name(), Bytes: size})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tmp_root": tmpRoot, "directories": dirs, "total": len(dirs)})
}

// cleanupWorkspace removes every per-run workspace directory under
// <project_root>/tmp.
func (s *Server) cleanupWorkspace(w http.ResponseWriter, r *http.Request) {
	tmpRoot := filepath.Join(s.ProjectRoot, "tmp")
	entries, err := os.ReadDir(tmpRoot)
	if err != nil && !os.IsNotExist(err) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.RemoveAll(filepath.Join(tmpRoot, e.Name()))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// cleanupWorkspaceDir removes one named workspace directory under
// <project_root>/tmp.
func (s *Server) cleanupWorkspaceDir(w http.ResponseWriter, r *http.Request) {
	dir := chi.URLParam(r, "dir")
	if strings.ContainsAny(dir, "/\\") || dir == ".." {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: invalid workspace directory %q", dir))
		return
	}
	if err := os.RemoveAll(filepath.Join(s.ProjectRoot, "tmp", dir)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
