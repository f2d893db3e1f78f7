package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Saver persists a downloaded document payload. The browser-style download
// mechanics live outside this layer; the orchestrator only hands over a
// filename and bytes.
type Saver interface {
	Save(filename string, data []byte) error
}

// DirSaver writes downloaded documents into a directory.
type DirSaver struct {
	Dir string
}

// Save writes data under the saver's directory, creating it if needed. The
// filename is flattened to its base name so header-supplied names cannot
// escape the directory.
func (s DirSaver) Save(filename string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid document filename %q", filename)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}
	return nil
}
