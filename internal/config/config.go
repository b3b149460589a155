package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	Tracker  TrackerSettings `yaml:"tracker"`
	API      APIConfig       `yaml:"api"`
	Cache    CacheConfig     `yaml:"cache"`
	Database DBConfig        `yaml:"database"`
	Poller   PollerConfig    `yaml:"poller"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// TrackerSettings selects what to track.
type TrackerSettings struct {
	League     string   `yaml:"league"`
	Game       string   `yaml:"game"` // "poe" or "poe2"
	Categories []string `yaml:"categories"`
}

// APIConfig holds poe.ninja API settings.
type APIConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	SessionCookie     string        `yaml:"session_cookie"` // Opaque session token, forwarded verbatim
	UserAgent         string        `yaml:"user_agent"`
	MaxDetailRequests int           `yaml:"max_detail_requests"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Backend string        `yaml:"backend"` // "disk", "redis", or "none"
	Path    string        `yaml:"path"`    // disk backend file path
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the redis backend connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DBConfig holds the optional Postgres archive connection.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// PollerConfig holds snapshot poller settings.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
