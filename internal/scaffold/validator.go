package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/daub/internal/config"
)

// CheckExisting returns an error if dir already holds a daub.yml.
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("daub already initialized\n\nFound existing: %s\n\nUse 'daub init --force' to overwrite it", path)
	}
	return nil
}
