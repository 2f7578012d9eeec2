package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/ucm/internal/config"
)

// CheckExisting returns an error if dir already holds a ucm.yml.
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'ucm init --force' to overwrite it (use case data is kept)", config.DefaultPath)
}
