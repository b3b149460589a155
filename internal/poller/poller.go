package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/exile-economy/market-data/internal/model"
	"github.com/exile-economy/market-data/internal/ninja"
)

// SnapshotHandler receives fetched snapshots.
type SnapshotHandler interface {
	HandleSnapshot(snapshot *model.Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(*model.Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s *model.Snapshot) error {
	return f(s)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 15m)
	Concurrency int           // Max concurrent categories (default: 4)
	Timeout     time.Duration // Per-category fetch timeout (default: 60s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    15 * time.Minute,
		Concurrency: 4,
		Timeout:     60 * time.Second,
	}
}

// Poller periodically fetches snapshots for all configured categories.
type Poller struct {
	cfg        Config
	client     *ninja.Client
	league     string
	categories []string
	handler    SnapshotHandler
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, client *ninja.Client, league string, categories []string, handler SnapshotHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:        cfg,
		client:     client,
		league:     league,
		categories: categories,
		handler:    handler,
		logger:     logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"league", p.league,
		"categories", p.categories,
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches snapshots for all categories concurrently.
func (p *Poller) pollAll() {
	start := time.Now()

	if len(p.categories) == 0 {
		p.logger.Debug("no categories to poll")
		return
	}

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, empty, failed atomic.Int64

	for _, category := range p.categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollCategory(category); err != nil {
				var noData *ninja.NoDataError
				if errors.As(err, &noData) {
					p.logger.Warn("no data for category",
						"league", noData.League,
						"category", noData.Category,
					)
					empty.Add(1)
					return
				}
				p.logger.Warn("failed to poll category",
					"category", category,
					"err", err,
				)
				failed.Add(1)
				return
			}

			fetched.Add(1)
		}(category)
	}

	wg.Wait()

	p.logger.Info("poll cycle complete",
		"categories", len(p.categories),
		"fetched", fetched.Load(),
		"empty", empty.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)
}

// pollCategory fetches and handles a single category snapshot.
func (p *Poller) pollCategory(category string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	snapshot, err := p.client.FetchSnapshot(ctx, p.league, category)
	if err != nil {
		return err
	}

	if p.handler != nil {
		if err := p.handler.HandleSnapshot(snapshot); err != nil {
			return err
		}
	}

	return nil
}
