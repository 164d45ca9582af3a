package gateway

import (
	"fmt"
	"os"
	"path/filepath"
)

const filePerm = 0644

// FileGateway stores each slot as a JSON file under a data directory.
// Saves go through a temp file and rename so a crash mid-write never
// leaves a half-written slot behind.
type FileGateway struct {
	dir string
}

// NewFileGateway creates the data directory if needed and returns a gateway
// rooted there.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return &FileGateway{dir: dir}, nil
}

// Load reads the slot's file. A missing file means the slot is absent.
func (g *FileGateway) Load(slot string) ([]byte, bool, error) {
	blob, err := os.ReadFile(g.path(slot))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading slot %s: %w", slot, err)
	}
	return blob, true, nil
}

// Save atomically replaces the slot's file with the given blob.
func (g *FileGateway) Save(slot string, blob []byte) error {
	path := g.path(slot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, filePerm); err != nil {
		return fmt.Errorf("writing slot %s: %w", slot, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing slot %s: %w", slot, err)
	}
	return nil
}

// Close is a no-op for the file gateway.
func (g *FileGateway) Close() error { return nil }

func (g *FileGateway) path(slot string) string {
	return filepath.Join(g.dir, slot+".json")
}
