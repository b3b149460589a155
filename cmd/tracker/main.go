package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/exile-economy/market-data/internal/cache"
	"github.com/exile-economy/market-data/internal/config"
	"github.com/exile-economy/market-data/internal/model"
	"github.com/exile-economy/market-data/internal/ninja"
	"github.com/exile-economy/market-data/internal/poller"
	"github.com/exile-economy/market-data/internal/store"
	"github.com/exile-economy/market-data/internal/version"
)

func main() {
	const defaultConfigPath = "configs/tracker.yaml"
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	league := flag.String("league", "", "league to track (overrides config)")
	game := flag.String("game", "", "api family, poe or poe2 (overrides config)")
	categories := flag.String("category", "", "comma-separated categories (overrides config)")
	interval := flag.Duration("interval", 0, "refresh interval (overrides config)")
	once := flag.Bool("once", false, "fetch each category once, print the result, and exit")
	limit := flag.Int("limit", 20, "entities to print per category in -once mode")
	flag.Parse()

	// Bootstrap logger until the config tells us the real format.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional .env file for POE_NINJA_COOKIE and other secrets.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg, err := loadConfig(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *league != "" {
		cfg.Tracker.League = *league
	}
	if *game != "" {
		cfg.Tracker.Game = *game
	}
	if *categories != "" {
		cfg.Tracker.Categories = splitList(*categories)
	}
	if *interval > 0 {
		cfg.Poller.Interval = *interval
	}
	if cfg.API.SessionCookie == "" {
		cfg.API.SessionCookie = os.Getenv("POE_NINJA_COOKIE")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"league", cfg.Tracker.League,
		"game", cfg.Tracker.Game,
		"categories", cfg.Tracker.Categories,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client := ninja.NewClient(
		ninja.WithGame(cfg.Tracker.Game),
		ninja.WithTimeout(cfg.API.Timeout),
		ninja.WithSessionCookie(cfg.API.SessionCookie),
		ninja.WithUserAgent(cfg.API.UserAgent),
		ninja.WithMaxDetailRequests(cfg.API.MaxDetailRequests),
		ninja.WithLogger(logger),
	)

	snapshots := buildCache(cfg.Cache, logger)

	var archive *store.Store
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		archive, err = store.New(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		logger.Info("database connected")
	}

	handler := newSnapshotSink(cfg.Tracker.League, snapshots, archive, logger)

	if *once {
		if err := runOnce(ctx, cfg, client, handler, snapshots, *limit); err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	pollCfg := poller.DefaultConfig()
	pollCfg.Interval = cfg.Poller.Interval
	pollCfg.Concurrency = cfg.Poller.Concurrency

	p := poller.New(pollCfg, client, cfg.Tracker.League, cfg.Tracker.Categories, handler, logger)
	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		logger.Warn("poller stop timed out", "error", err)
	}

	logger.Info("tracker stopped")
}

// loadConfig loads the config file. A missing file is only tolerated for the
// default path, where built-in defaults apply; an explicit path must exist.
func loadConfig(path string, optional bool) (*config.TrackerConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && optional {
		return config.DefaultConfig(), nil
	}
	return config.LoadAndValidate(path)
}

// buildLogger constructs the slog logger described by the logging config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// buildCache constructs the configured snapshot cache backend, or nil for
// the "none" backend.
func buildCache(cfg config.CacheConfig, logger *slog.Logger) cache.Store {
	switch cfg.Backend {
	case "disk":
		return cache.NewDiskStore(cfg.Path, cfg.TTL)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cache.NewRedisStore(client, cfg.Redis.Prefix, cfg.TTL)
	default:
		logger.Info("snapshot cache disabled")
		return nil
	}
}

// snapshotSink caches and archives every snapshot the poller produces.
type snapshotSink struct {
	league  string
	cache   cache.Store
	archive *store.Store
	logger  *slog.Logger
}

func newSnapshotSink(league string, c cache.Store, archive *store.Store, logger *slog.Logger) *snapshotSink {
	return &snapshotSink{league: league, cache: c, archive: archive, logger: logger}
}

func (s *snapshotSink) HandleSnapshot(snap *model.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(s.league, snapshotCategory(snap)), snap); err != nil {
			s.logger.Warn("failed to cache snapshot", "source", snap.Source, "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, snap); err != nil {
			return err
		}
	}

	s.logger.Info("snapshot handled",
		"league", snap.League,
		"source", snap.Source,
		"entities", len(snap.Entities),
	)
	return nil
}

// runOnce fetches each category a single time and prints the top entities.
// A fresh cached snapshot short-circuits the fetch.
func runOnce(ctx context.Context, cfg *config.TrackerConfig, client *ninja.Client, handler poller.SnapshotHandler, snapshots cache.Store, limit int) error {
	for _, category := range cfg.Tracker.Categories {
		snap, err := fetchOne(ctx, cfg, client, handler, snapshots, category)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", category, err)
		}
		printSnapshot(snap, limit)
	}
	return nil
}

func fetchOne(ctx context.Context, cfg *config.TrackerConfig, client *ninja.Client, handler poller.SnapshotHandler, snapshots cache.Store, category string) (*model.Snapshot, error) {
	if snapshots != nil {
		if snap, ok := snapshots.Get(ctx, cacheKey(cfg.Tracker.League, category)); ok {
			return snap, nil
		}
	}

	snap, err := client.FetchSnapshot(ctx, cfg.Tracker.League, category)
	if err != nil {
		return nil, err
	}
	if err := handler.HandleSnapshot(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func printSnapshot(snap *model.Snapshot, limit int) {
	fmt.Printf("\n%s / %s  (%d entities, fetched %s)\n",
		snap.League, snap.Source, len(snap.Entities), snap.FetchedAt.Format(time.RFC3339))
	fmt.Printf("%-40s %10s %10s %10s %8s\n", "NAME", "CHAOS", "DIVINE", "EXALT", "CHANGE")

	for _, e := range snap.Top(limit) {
		fmt.Printf("%-40s %10s %10s %10s %8s\n",
			truncate(e.Name, 40), e.FormatChaos(), e.FormatDivine(), e.FormatExalt(), e.FormatChange())
	}
}

// splitList parses a comma-separated flag value, dropping empty elements.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// truncate shortens s to at most n runes, ending in an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// cacheKey builds the per-league, per-category cache key.
func cacheKey(league, category string) string {
	return league + ":" + category
}

// snapshotCategory recovers the category from the snapshot's provenance tag.
func snapshotCategory(snap *model.Snapshot) string {
	if i := strings.IndexByte(snap.Source, ':'); i >= 0 {
		return snap.Source[:i]
	}
	return snap.Source
}
