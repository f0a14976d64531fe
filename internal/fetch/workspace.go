package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a uniquely named scratch directory holding one request's
// intermediate files (downloaded source, converted waveform). Each request
// gets its own so concurrent requests never share paths.
type Workspace struct {
	dir string
}

func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "asr-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

// Path returns the location for a named intermediate file.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything in it. Callers defer it so
// cleanup runs on every exit path.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
