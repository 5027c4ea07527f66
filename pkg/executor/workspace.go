package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the temporary directory backing one pipeline execution: its
// state store, blob directory, and generated per-step driver files live
// here. Matches the filesystem layout's tmp/genesis_<tool>_<id>/ entry.
type Workspace struct {
	Dir           string
	keepOnCleanup bool
}

// NewWorkspace creates a fresh workspace under root/tmp, named after the
// first tool in the path for operator readability plus a random suffix
// for uniqueness.
func NewWorkspace(root, firstToolName string, keep bool) (*Workspace, error) {
	dir := filepath.Join(root, "tmp", fmt.Sprintf("genesis_%s_%s", firstToolName, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("executor: creating workspace %s: %w", dir, err)
	}
	return &Workspace{Dir: dir, keepOnCleanup: keep}, nil
}

// DriverPath returns the path a generated driver file for stepIndex/stepName
// should be written to.
func (w *Workspace) DriverPath(stepIndex int, toolName string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("run_%02d_%s.json", stepIndex, toolName))
}

// Cleanup removes the workspace unless KeepWorkspace was requested, e.g.
// for post-mortem debugging of a failed run.
func (w *Workspace) Cleanup() error {
	if w.keepOnCleanup {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
