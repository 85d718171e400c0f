package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartingops/laptimeoor/pkg/config"
	"github.com/kartingops/laptimeoor/pkg/source"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("local backend", func(t *testing.T) {
		t.Parallel()

		reader, err := source.New(&config.SourceConfig{
			Local: &config.LocalSourceConfig{Dir: "."},
		})
		require.NoError(t, err)
		assert.NotNil(t, reader)
	})

	t.Run("s3 backend", func(t *testing.T) {
		t.Parallel()

		reader, err := source.New(&config.SourceConfig{
			S3: &config.S3SourceConfig{Bucket: "leaderboards"},
		})
		require.NoError(t, err)
		assert.NotNil(t, reader)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Parallel()

		reader, err := source.New(&config.SourceConfig{})
		assert.Nil(t, reader)
		assert.ErrorContains(t, err, "no source backend configured")
	})
}
