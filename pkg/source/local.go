package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kartingops/laptimeoor/pkg/config"
)

// Compile-time interface check.
var _ Reader = (*localReader)(nil)

type localReader struct {
	dir string
}

// NewLocalReader creates a Reader backed by a local directory.
func NewLocalReader(cfg *config.LocalSourceConfig) Reader {
	return &localReader{dir: cfg.Dir}
}

// Get reads {dir}/{csvPath}. Returns (nil, nil) when the file does not
// exist.
func (r *localReader) Get(_ context.Context, csvPath string) ([]byte, error) {
	p := filepath.Join(r.dir, csvPath)

	data, err := os.ReadFile(p) //nolint:gosec // trusted paths from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading file %s: %w", p, err)
	}

	return data, nil
}
