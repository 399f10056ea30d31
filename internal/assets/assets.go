// Package assets is the read-only store for the handful of static files
// the document renderer needs (company logo, brand font files).
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrAssetMissing is returned when a named asset cannot be read.
var ErrAssetMissing = errors.New("asset missing")

// Store exposes read-bytes-by-name.
type Store interface {
	Read(name string) ([]byte, error)
}

// Dir serves assets from a local directory.
type Dir string

func (d Dir) Read(name string) ([]byte, error) {
	// Names are logical, never paths; reject anything that escapes the dir.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrAssetMissing, name)
	}
	b, err := os.ReadFile(filepath.Join(string(d), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrAssetMissing, name)
		}
		return nil, fmt.Errorf("read asset %q: %w", name, err)
	}
	return b, nil
}
