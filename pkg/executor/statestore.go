// Package executor implements the Process-Isolated Executor: running a
// chosen pipeline with each tool step in a fresh OS child process,
// communicating only through a file-backed state store.
package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	stateFileName = "execution_state.json"
	blobDirName   = "pickled_objects"
)

// blobRef is the JSON shape used to point at a value stored in its own
// blob file on disk rather than inline in the state file.
type blobRef struct {
	Ref string `json:"__blob_ref__"`
}

// StateStore is the only interprocess channel between the parent executor
// and each isolated child: a JSON object mapping "stepName.outputKey"
// keys (plus free keys set by initial state) to JSON values, or to a
// {"__blob_ref__": path} entry pointing at a JSON-encoded blob file
// under pickled_objects/. Values that do not JSON-encode cannot be
// stored either way.
type StateStore struct {
	mu        sync.Mutex
	path      string
	blobDir   string
	values    map[string]json.RawMessage
	execPath  []string
}

// OpenStateStore loads (or initializes) the state store at workspaceDir.
func OpenStateStore(workspaceDir string) (*StateStore, error) {
	blobDir := filepath.Join(workspaceDir, blobDirName)
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return nil, fmt.Errorf("executor: creating blob dir: %w", err)
	}

	s := &StateStore{
		path:    filepath.Join(workspaceDir, stateFileName),
		blobDir: blobDir,
		values:  map[string]json.RawMessage{},
	}

	if data, err := os.ReadFile(s.path); err == nil {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("executor: parsing existing state store: %w", err)
		}
		if ep, ok := raw["execution_path"]; ok {
			_ = json.Unmarshal(ep, &s.execPath)
			delete(raw, "execution_path")
		}
		s.values = raw
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("executor: reading state store: %w", err)
	}

	return s, nil
}

// Get reads a value by key, returning (nil, false) if unset. Blob
// references are returned as-is (callers that need the underlying data
// use GetBlob).
func (s *StateStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// GetRaw reads the raw JSON for key, for resolvers that need to
// distinguish a blob reference from a concrete value without a full
// decode/recode round trip.
func (s *StateStore) GetRaw(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	return raw, ok
}

// Set attempts to JSON-encode value and store it under key; if that
// fails, it hands value to SetBlob, which JSON-encodes it as well and so
// returns an error for a value that does not JSON-encode.
func (s *StateStore) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return s.SetBlob(key, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return s.persist()
}

// SetBlob JSON-encodes value into a new file under pickled_objects/ and
// records a blob reference for key. A value that does not JSON-encode
// (a func, a channel) returns an error and no reference is recorded.
func (s *StateStore) SetBlob(key string, value any) error {
	blobPath := filepath.Join(s.blobDir, uuid.NewString()+".blob")
	f, err := os.Create(blobPath)
	if err != nil {
		return fmt.Errorf("executor: creating blob %s: %w", blobPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("executor: encoding blob for %s: %w", key, err)
	}

	ref := blobRef{Ref: blobPath}
	data, err := json.Marshal(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return s.persist()
}

// GetBlob follows a blob reference at key and decodes its contents into
// out.
func (s *StateStore) GetBlob(key string, out any) error {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("executor: no value at key %s", key)
	}
	var ref blobRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Ref == "" {
		return fmt.Errorf("executor: value at key %s is not a blob reference", key)
	}
	data, err := os.ReadFile(ref.Ref)
	if err != nil {
		return fmt.Errorf("executor: reading blob %s: %w", ref.Ref, err)
	}
	return json.Unmarshal(data, out)
}

// IsBlobRef reports whether raw decodes to a blob reference.
func IsBlobRef(raw json.RawMessage) bool {
	var ref blobRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return false
	}
	return ref.Ref != ""
}

// AppendExecutionPath records that stepName just completed, in order.
func (s *StateStore) AppendExecutionPath(stepName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execPath = append(s.execPath, stepName)
	return s.persist()
}

// ExecutionPath returns the ordered list of completed step names.
func (s *StateStore) ExecutionPath() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.execPath))
	copy(out, s.execPath)
	return out
}

// persist writes the full state store back to disk. Callers must hold
// s.mu.
func (s *StateStore) persist() error {
	out := make(map[string]json.RawMessage, len(s.values)+1)
	for k, v := range s.values {
		out[k] = v
	}
	epData, err := json.Marshal(s.execPath)
	if err != nil {
		return err
	}
	out["execution_path"] = epData

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("executor: marshaling state store: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}
