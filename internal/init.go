package internal

import (
	"fmt"
	"path/filepath"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/models"
	"github.com/doctavious/snippext/internal/storage"
)

// WriteDefaultConfig writes the embedded default settings to filename.
// An existing file is only replaced when force is set.
func WriteDefaultConfig(filename string, force bool) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", filename, err)
	}
	store, err := storage.NewFS(filepath.Dir(abs))
	if err != nil {
		return err
	}
	name := filepath.Base(abs)
	if !force {
		if _, err := store.Read(name); err == nil {
			return apperr.ErrAlreadyExists
		}
	}
	return store.Write(name, models.DefaultSettingsYAML())
}
