package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *TrackerConfig) Validate() error {
	if c.Tracker.League == "" {
		return errors.New("tracker.league is required")
	}
	if c.Tracker.Game != "poe" && c.Tracker.Game != "poe2" {
		return fmt.Errorf("tracker.game must be \"poe\" or \"poe2\", got %q", c.Tracker.Game)
	}
	if len(c.Tracker.Categories) == 0 {
		return errors.New("tracker.categories must list at least one category")
	}

	switch c.Cache.Backend {
	case "disk", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be \"disk\", \"redis\", or \"none\", got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "disk" && c.Cache.Path == "" {
		return errors.New("cache.path is required when cache.backend is disk")
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Poller.Interval < time.Minute {
		return errors.New("poller.interval must be at least 1m to respect API rate limits")
	}
	if c.Poller.Concurrency < 1 {
		return errors.New("poller.concurrency must be >= 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
