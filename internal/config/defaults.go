package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLeague            = "Standard"
	DefaultGame              = "poe2"
	DefaultAPITimeout        = 10 * time.Second
	DefaultMaxDetailRequests = 50
	DefaultCacheBackend      = "disk"
	DefaultCachePath         = ".cache/snapshots.json"
	DefaultCacheTTL          = 1 * time.Hour
	DefaultRedisPrefix       = "snapshots"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultPollInterval      = 15 * time.Minute
	DefaultPollConcurrency   = 4
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// DefaultCategories is applied when tracker.categories is empty.
var DefaultCategories = []string{"Currency"}

func (c *TrackerConfig) applyDefaults() {
	// Tracker defaults
	if c.Tracker.League == "" {
		c.Tracker.League = DefaultLeague
	}
	if c.Tracker.Game == "" {
		c.Tracker.Game = DefaultGame
	}
	if len(c.Tracker.Categories) == 0 {
		c.Tracker.Categories = append([]string(nil), DefaultCategories...)
	}

	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxDetailRequests == 0 {
		c.API.MaxDetailRequests = DefaultMaxDetailRequests
	}

	// Cache defaults
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}
	if c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = DefaultRedisPrefix
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
