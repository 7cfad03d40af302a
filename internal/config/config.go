// file: internal/config/config.go
// version: 1.0.0
// guid: 9c2e5a8f-4b7d-4f1a-8e3c-6d0b9f2a5c7e

package config

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ListenPort         int
	DatabaseType       string // "sqlite" (default) or "pebble"
	DatabasePath       string
	CacheTTLSeconds    int
	ReapIntervalSecs   int
	RateLimitPerMinute int
	BasicAuthEnabled   bool
	BasicAuthUsername  string
	BasicAuthPassword  string
}

// current holds an immutable snapshot. Watch rewrites it from the
// fsnotify callback goroutine while request handlers read it, so access
// goes through an atomic pointer instead of a bare global.
var current atomic.Pointer[Config]

// App returns the current configuration snapshot.
func App() Config {
	if cfg := current.Load(); cfg != nil {
		return *cfg
	}
	return Config{}
}

// SetApp replaces the current configuration snapshot.
func SetApp(cfg Config) {
	current.Store(&cfg)
}

// InitConfig initializes the application configuration from viper.
func InitConfig() {
	viper.SetDefault("listen_port", 3000)
	viper.SetDefault("database_type", "sqlite")
	viper.SetDefault("database_path", "abs-meta.db")
	viper.SetDefault("cache_ttl_seconds", 2592000) // 30 days
	viper.SetDefault("reap_interval_seconds", 3600)
	viper.SetDefault("rate_limit_per_minute", 120)
	viper.SetDefault("basic_auth_enabled", false)

	// The TTL was historically configured through a bare CACHE_TTL_SECONDS
	// environment variable; keep honoring it alongside the prefixed form.
	_ = viper.BindEnv("cache_ttl_seconds", "ABSMETA_CACHE_TTL_SECONDS", "CACHE_TTL_SECONDS")

	cfg := Config{
		ListenPort:         viper.GetInt("listen_port"),
		DatabaseType:       viper.GetString("database_type"),
		DatabasePath:       viper.GetString("database_path"),
		CacheTTLSeconds:    viper.GetInt("cache_ttl_seconds"),
		ReapIntervalSecs:   viper.GetInt("reap_interval_seconds"),
		RateLimitPerMinute: viper.GetInt("rate_limit_per_minute"),
		BasicAuthEnabled:   viper.GetBool("basic_auth_enabled"),
		BasicAuthUsername:  viper.GetString("basic_auth_username"),
		BasicAuthPassword:  viper.GetString("basic_auth_password"),
	}

	// Normalize database type
	if cfg.DatabaseType == "sqlite3" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}

	SetApp(cfg)
}

// CacheTTL returns the current search cache TTL. It re-reads viper on every
// call so new search entries pick up config changes without a restart.
func CacheTTL() time.Duration {
	seconds := viper.GetInt("cache_ttl_seconds")
	if seconds <= 0 {
		seconds = 2592000
	}
	return time.Duration(seconds) * time.Second
}

// ReapInterval returns how often the background reaper sweeps expired
// search entries.
func ReapInterval() time.Duration {
	seconds := viper.GetInt("reap_interval_seconds")
	if seconds <= 0 {
		seconds = 3600
	}
	return time.Duration(seconds) * time.Second
}

// Watch reloads the configuration snapshot whenever the config file
// changes on disk.
func Watch() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("[DEBUG] config file changed: %s", e.Name)
		InitConfig()
	})
	viper.WatchConfig()
}
