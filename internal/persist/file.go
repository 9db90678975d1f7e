package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
)

// FileAdapter keeps the snapshot slot in a single JSON file under a base
// directory, one file per slot. Writes go through a temp file and rename so
// a crash mid-write never leaves a truncated slot behind.
type FileAdapter struct {
	path string
}

// NewFileAdapter returns an adapter for the given slot under dir. The
// directory is created on first save.
func NewFileAdapter(dir, slot string) *FileAdapter {
	return &FileAdapter{path: filepath.Join(dir, slot+".json")}
}

// Save overwrites the slot with the given items.
func (a *FileAdapter) Save(items []model.LineItem) error {
	b, err := encodeSnapshot(items)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load reads the slot. Absent or malformed data yields an empty cart.
func (a *FileAdapter) Load() ([]model.LineItem, error) {
	b, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	items, ok := decodeSnapshot(b)
	if !ok {
		obs.Logger.Warn("snapshot_malformed", "path", a.path)
		return nil, nil
	}
	return items, nil
}
