package source

import (
	"context"
	"errors"

	"github.com/kartingops/laptimeoor/pkg/config"
)

// Reader provides read access to leaderboard exports stored in a backend
// (local filesystem or S3). The syncer fetches each track's export through
// it without knowing the underlying storage details.
type Reader interface {
	// Get reads the export at the given catalog path.
	// Returns (nil, nil) when the file does not exist.
	Get(ctx context.Context, csvPath string) ([]byte, error)
}

// New creates the Reader for the configured source backend.
func New(cfg *config.SourceConfig) (Reader, error) {
	switch {
	case cfg.S3 != nil:
		return NewS3Reader(cfg.S3), nil
	case cfg.Local != nil:
		return NewLocalReader(cfg.Local), nil
	default:
		return nil, errors.New("no source backend configured")
	}
}
