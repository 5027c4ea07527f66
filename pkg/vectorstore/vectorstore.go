// Package vectorstore implements the precedent store: the embedded
// vector index the precedent node searches to find a previously solved
// task resembling the current one. Adapted from the teacher's chromem-go
// provider, which is not part of this module.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

const collectionName = "precedents"

// Precedent is one stored solved-task record, matching what the
// precedent node copies into ConversationState on a match: objective,
// input type, type savepoint, and tool metadata.
type Precedent struct {
	UID           string                  `json:"uid"`
	Objective     string                  `json:"objective"`
	InputType     workflow.Type           `json:"input_type"`
	TypeSavepoint []workflow.Type         `json:"type_savepoint"`
	ToolMetadata  []toolspec.ToolMetadata `json:"tool_metadata"`
	ChosenPath    []toolspec.PathStep     `json:"chosen_path"`
}

// Match pairs a Precedent with its similarity score against the query.
type Match struct {
	Precedent  Precedent
	Similarity float64
}

// Embedder turns free text into a vector. chromem-go calls this once per
// query/document; the concrete implementation is expected to wrap an
// embeddings API (e.g. OpenAI's).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the precedent repository interface consumed by the
// precedent node, matching the external interfaces section: Search,
// Save, Delete, ListAll.
type VectorStore interface {
	Search(ctx context.Context, query string, limit int) ([]Match, error)
	Save(ctx context.Context, p Precedent) (string, error)
	Delete(ctx context.Context, uids []string) error
	ListAll(ctx context.Context) ([]Precedent, error)
}

// ChromemStore implements VectorStore over an embedded chromem-go
// database. chromem-go has no built-in "list every document" call, so
// this also keeps a small JSON side-index of UID -> Precedent it
// persists itself; the side-index is the source of truth for ListAll
// and Delete bookkeeping, while chromem's own collection remains the
// source of truth for similarity search.
type ChromemStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder

	indexPath string
	index     map[string]Precedent
}

// NewChromemStore opens (or creates) a chromem-go database at persistDir,
// backed by embedder for both document and query embedding.
func NewChromemStore(persistDir string, embedder Embedder) (*ChromemStore, error) {
	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: creating persist dir: %w", err)
	}

	dbPath := filepath.Join(persistDir, "precedents.gob")
	var db *chromem.DB
	var err error
	if _, statErr := os.Stat(dbPath); statErr == nil {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			slog.Warn("vectorstore: failed to load existing db, starting fresh", "path", dbPath, "error", err)
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	s := &ChromemStore{
		db:        db,
		embedder:  embedder,
		indexPath: filepath.Join(persistDir, "precedents_index.json"),
		index:     map[string]Precedent{},
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: creating collection: %w", err)
	}
	s.collection = col

	if err := s.loadIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *ChromemStore) loadIndex() error {
	data, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vectorstore: reading index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.index)
}

// persistIndex must be called with s.mu held.
func (s *ChromemStore) persistIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.indexPath, data, 0o644)
}

// Search embeds query and returns up to limit precedents ranked by
// cosine similarity.
func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	// chromem rejects a result count above the number of stored documents.
	if n := s.collection.Count(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil, nil
	}
	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Match, 0, len(results))
	for _, r := range results {
		p, ok := s.index[r.ID]
		if !ok {
			continue
		}
		out = append(out, Match{Precedent: p, Similarity: float64(r.Similarity)})
	}
	return out, nil
}

// Save embeds p.Objective as the document content and stores p in the
// side index, returning its UID (generated if p.UID is empty).
func (s *ChromemStore) Save(ctx context.Context, p Precedent) (string, error) {
	if p.UID == "" {
		p.UID = newUID()
	}

	doc := chromem.Document{
		ID:      p.UID,
		Content: p.Objective,
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return "", fmt.Errorf("vectorstore: save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[p.UID] = p
	if err := s.persistIndex(); err != nil {
		return "", err
	}
	return p.UID, nil
}

// Delete removes the given precedents from both the collection and the
// side index.
func (s *ChromemStore) Delete(ctx context.Context, uids []string) error {
	for _, uid := range uids {
		if err := s.collection.Delete(ctx, nil, nil, uid); err != nil {
			slog.Warn("vectorstore: delete from collection failed", "uid", uid, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uid := range uids {
		delete(s.index, uid)
	}
	return s.persistIndex()
}

// ListAll returns every stored precedent, order unspecified.
func (s *ChromemStore) ListAll(ctx context.Context) ([]Precedent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Precedent, 0, len(s.index))
	for _, p := range s.index {
		out = append(out, p)
	}
	return out, nil
}
