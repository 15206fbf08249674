package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpush-saas/config"
)

func TestWorkerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worker:
  api_base: https://api.example.com/api
  origin: https://loja.example.com
  default_icon: /brand/icon.png
  default_badge: /brand/badge.png
  timeout_seconds: 3
`), 0o600))

	newFlags := func(args ...string) (*flag.FlagSet, config.WorkerConfig) {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		icon := fs.String("icon", "/logo.png", "")
		origin := fs.String("origin", "http://localhost:5173", "")
		timeout := fs.Duration("timeout", 10*time.Second, "")
		require.NoError(t, fs.Parse(args))
		return fs, config.WorkerConfig{
			APIBase:      config.DefaultAPIBase,
			Origin:       *origin,
			DefaultIcon:  *icon,
			DefaultBadge: "/badge.png",
			Timeout:      *timeout,
		}
	}

	t.Run("file fills unset flags", func(t *testing.T) {
		fs, flags := newFlags()
		got, err := workerSettings(fs, path, flags)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/api", got.APIBase)
		assert.Equal(t, "https://loja.example.com", got.Origin)
		assert.Equal(t, "/brand/icon.png", got.DefaultIcon)
		assert.Equal(t, "/brand/badge.png", got.DefaultBadge)
		assert.Equal(t, 3*time.Second, got.Timeout)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		fs, flags := newFlags("-icon", "/cli.png", "-timeout", "1s")
		got, err := workerSettings(fs, path, flags)
		require.NoError(t, err)
		assert.Equal(t, "/cli.png", got.DefaultIcon)
		assert.Equal(t, time.Second, got.Timeout)
		assert.Equal(t, "https://loja.example.com", got.Origin)
	})

	t.Run("no file", func(t *testing.T) {
		fs, flags := newFlags()
		got, err := workerSettings(fs, "", flags)
		require.NoError(t, err)
		assert.Equal(t, flags, got)
	})

	t.Run("missing file", func(t *testing.T) {
		fs, flags := newFlags()
		_, err := workerSettings(fs, filepath.Join(t.TempDir(), "nope.yaml"), flags)
		assert.Error(t, err)
	})
}
