package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIBase(t *testing.T) {
	original := BuildAPIBase
	t.Cleanup(func() { BuildAPIBase = original })

	BuildAPIBase = APIBasePlaceholder
	assert.Equal(t, DefaultAPIBase, ResolveAPIBase(""))
	assert.Equal(t, DefaultAPIBase, ResolveAPIBase(APIBasePlaceholder))
	assert.Equal(t, "https://api.example.com/api", ResolveAPIBase("https://api.example.com/api/"))

	BuildAPIBase = "https://push.example.com/api"
	assert.Equal(t, "https://push.example.com/api", ResolveAPIBase(""))
	assert.Equal(t, "http://override/api", ResolveAPIBase("http://override/api"))
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  dsn: "sqlite:file::memory:"
push:
  vapid_public_key: pub
  vapid_private_key: priv
worker:
  origin: https://app.example.com
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 16, cfg.WorkerPool.QueueSize)
	assert.Equal(t, time.Minute, cfg.WorkerPool.SweepInterval)
	assert.Equal(t, "/logo.png", cfg.Worker.DefaultIcon)
	assert.Equal(t, "/badge.png", cfg.Worker.DefaultBadge)
	assert.Equal(t, 10*time.Second, cfg.Worker.Timeout)
	assert.NotEmpty(t, cfg.Worker.APIBase)

	assert.Contains(t, cfg.Defaulted, "worker_pool.size")
	assert.Contains(t, cfg.Defaulted, "worker.default_icon")
	assert.NotContains(t, cfg.Defaulted, "server.port")
}
