// Package capture stores the raw ASTM message of a completed transfer to
// disk for debugging and development, grounded on
// original_source/src/senaite/astm/protocol.py's log_message /
// senaite/astm/utils.py's write_message: the original writes unconditionally
// whenever the target directory already exists; this package instead
// creates it once up front and always writes, since a server configured
// with a capture directory expects every transfer to be captured.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer persists completed transfers under a directory, one file per
// transfer named by its arrival time.
type Writer struct {
	dir string
}

// NewWriter creates dir (and any missing parents) and returns a Writer that
// stores future transfers there.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: create directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Write stores message under a timestamped filename and returns the path
// written.
func (w *Writer) Write(message []byte) (string, error) {
	name := fmt.Sprintf("%s.txt", time.Now().UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, message, 0o644); err != nil {
		return "", fmt.Errorf("capture: write %s: %w", path, err)
	}
	return path, nil
}
