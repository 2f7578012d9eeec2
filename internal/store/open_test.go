package store

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/ucm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("opens the local backend", func(t *testing.T) {
		s, err := Open(&config.Config{Backend: config.BackendLocal, DataDir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.IsType(t, &Local{}, s)
		assert.Equal(t, "local", s.Name())
	})

	t.Run("opens nocodb in fallback without credentials", func(t *testing.T) {
		s, err := Open(&config.Config{Backend: config.BackendNocoDB, DataDir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.IsType(t, &NocoDB{}, s)
		assert.Equal(t, "nocodb (fallback: local)", s.Name())
	})

	t.Run("opens redis from a url", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{
			Backend: config.BackendRedis,
			DataDir: t.TempDir(),
			Redis:   config.RedisConfig{URL: "redis://" + mr.Addr() + "/0", Namespace: "test"},
		}

		s, err := Open(cfg, nil)
		require.NoError(t, err)
		r, ok := s.(*Redis)
		require.True(t, ok)
		t.Cleanup(func() { r.Close() })
		assert.Equal(t, "redis", s.Name())
	})

	t.Run("rejects a malformed redis url", func(t *testing.T) {
		cfg := &config.Config{
			Backend: config.BackendRedis,
			DataDir: t.TempDir(),
			Redis:   config.RedisConfig{URL: "http://not-redis", Namespace: "test"},
		}
		_, err := Open(cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid redis url")
	})

	t.Run("rejects an unknown backend", func(t *testing.T) {
		_, err := Open(&config.Config{Backend: "sqlite", DataDir: t.TempDir()}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown backend "sqlite"`)
	})
}
