package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	sqliteFileName = "complyview.sqlite"
	logFileName    = "complyview.log"
)

// ErrNoBatches is returned when a command needs a batch and nothing has been
// imported yet.
var ErrNoBatches = errors.New("no results imported yet; run `complyview import <file>`")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Store is a workspace directory holding the results database and config.
type Store struct {
	Dir string
}

// DefaultDir resolves the workspace directory: COMPLYVIEW_DIR, else
// ~/.complyview.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("COMPLYVIEW_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".complyview"), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: missing dir")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string { return filepath.Join(s.Dir, sqliteFileName) }

// LogPath is where the TUI writes its log.
func (s Store) LogPath() string { return filepath.Join(s.Dir, logFileName) }

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
