package store

import (
	"os"
	"path/filepath"
	"strings"
)

// Store is a directory of small local state files (config, TUI state, the
// mock server database).
type Store struct {
	Dir string
}

// Default returns the store rooted at the config directory.
func Default() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) path(name string) string {
	return filepath.Join(s.Dir, name)
}
