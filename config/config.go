package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIBasePlaceholder is the literal left in BuildAPIBase when the binary was
// built without substituting the deployed API origin.
const APIBasePlaceholder = "__API_URL__"

// DefaultAPIBase is used when neither the build nor the config names an API origin.
const DefaultAPIBase = "http://localhost:3000/api"

// BuildAPIBase is substituted at packaging time:
//
//	go build -ldflags "-X webpush-saas/config.BuildAPIBase=https://api.example.com/api"
var BuildAPIBase = APIBasePlaceholder

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Worker     WorkerConfig     `yaml:"worker"`

	// Defaulted lists the keys Load filled in because they were missing
	// or invalid.
	Defaulted []string `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification dispatch pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
	// SweepIntervalSeconds is how often notifications left unsent are
	// queued again.
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	Urgency    string `yaml:"urgency"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestIPHeader string        `yaml:"request_ip_header"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
// A DSN prefixed with "sqlite:" selects the sqlite driver, anything else is
// handed to postgres.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// WorkerConfig describes the background push worker host.
type WorkerConfig struct {
	APIBase        string        `yaml:"api_base"`
	Origin         string        `yaml:"origin"`
	DefaultIcon    string        `yaml:"default_icon"`
	DefaultBadge   string        `yaml:"default_badge"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	defaultInt(&cfg.Server.Port, 3000, "server.port", &cfg.Defaulted)
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
		cfg.Defaulted = append(cfg.Defaulted, "server.rate_limit_per_sec")
	}
	defaultInt(&cfg.Server.RateLimitBurst, 5, "server.rate_limit_burst", &cfg.Defaulted)
	defaultInt(&cfg.Server.CacheTTLSeconds, 300, "server.cache_ttl_seconds", &cfg.Defaulted)
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	defaultInt(&cfg.Push.TTL, 3600, "push.ttl", &cfg.Defaulted)
	defaultString(&cfg.Push.Urgency, "normal", "push.urgency", &cfg.Defaulted)

	defaultInt(&cfg.WorkerPool.Size, 1, "worker_pool.size", &cfg.Defaulted)
	defaultInt(&cfg.WorkerPool.QueueSize, cfg.WorkerPool.Size*16, "worker_pool.queue_size", &cfg.Defaulted)
	defaultInt(&cfg.WorkerPool.SweepIntervalSeconds, 60, "worker_pool.sweep_interval_seconds", &cfg.Defaulted)
	cfg.WorkerPool.SweepInterval = time.Duration(cfg.WorkerPool.SweepIntervalSeconds) * time.Second

	cfg.Worker.APIBase = ResolveAPIBase(cfg.Worker.APIBase)
	defaultString(&cfg.Worker.DefaultIcon, "/logo.png", "worker.default_icon", &cfg.Defaulted)
	defaultString(&cfg.Worker.DefaultBadge, "/badge.png", "worker.default_badge", &cfg.Defaulted)
	defaultInt(&cfg.Worker.TimeoutSeconds, 10, "worker.timeout_seconds", &cfg.Defaulted)
	cfg.Worker.Timeout = time.Duration(cfg.Worker.TimeoutSeconds) * time.Second
}

func defaultInt(v *int, def int, key string, defaulted *[]string) {
	if *v <= 0 {
		*v = def
		*defaulted = append(*defaulted, key)
	}
}

func defaultString(v *string, def string, key string, defaulted *[]string) {
	if *v == "" {
		*v = def
		*defaulted = append(*defaulted, key)
	}
}

// ResolveAPIBase picks the API origin once at startup. An explicit value wins,
// then the build-time substitution, then DefaultAPIBase.
func ResolveAPIBase(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" && configured != APIBasePlaceholder {
		return strings.TrimRight(configured, "/")
	}
	if BuildAPIBase != APIBasePlaceholder && BuildAPIBase != "" {
		return strings.TrimRight(BuildAPIBase, "/")
	}
	return DefaultAPIBase
}
