package rustdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// JSONCache keeps downloaded rustdoc JSON on disk, zstd compressed, one
// file per crate version.
type JSONCache struct {
	Dir string
}

func (c JSONCache) path(name, version string) string {
	return filepath.Join(c.Dir, name+"_"+version+".json.zst")
}

// Save compresses and saves rustdoc JSON bytes to disk.
func (c JSONCache) Save(data []byte, name, version string) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating json cache dir: %w", err)
	}

	f, err := os.Create(c.path(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Load loads and decodes cached rustdoc JSON from disk.
func (c JSONCache) Load(name, version string) (*Crate, error) {
	f, err := os.Open(c.path(name, version))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	var crate Crate
	if err := json.NewDecoder(r).Decode(&crate); err != nil {
		return nil, fmt.Errorf("decoding cached rustdoc JSON: %w", err)
	}
	return &crate, nil
}

// Has checks whether a cached rustdoc JSON file exists on disk.
func (c JSONCache) Has(name, version string) bool {
	_, err := os.Stat(c.path(name, version))
	return err == nil
}

// Remove deletes one cached file. A missing file is not an error.
func (c JSONCache) Remove(name, version string) error {
	if err := os.Remove(c.path(name, version)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Clear removes every cached file.
func (c JSONCache) Clear() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("removing json cache: %w", err)
	}
	return nil
}
