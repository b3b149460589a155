package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exile-economy/market-data/internal/config"
	"github.com/exile-economy/market-data/internal/model"
)

// Store writes snapshots to a PostgreSQL archive.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to the database described by cfg and verifies the connection.
func New(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// SaveSnapshot inserts a snapshot and its entities in one round trip.
// Re-saving the same snapshot id is a no-op.
func (s *Store) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	start := time.Now()

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO snapshots (id, league, source, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, snap.ID, snap.League, snap.Source, snap.FetchedAt)

	for i, e := range snap.Entities {
		batch.Queue(`
			INSERT INTO snapshot_entities
				(snapshot_id, position, name, chaos_value, divine_value, exalt_value,
				 change_percent, trade_count, details_id, icon_url, sparkline)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (snapshot_id, position) DO NOTHING
		`, snap.ID, i, e.Name, e.ChaosValue, e.DivineValue, e.ExaltValue,
			e.ChangePercent, e.TradeCount, e.DetailsID, e.IconURL, e.Sparkline)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var conflicts int
	for i := 0; i < len(snap.Entities)+1; i++ {
		ct, err := results.Exec()
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	s.logger.Debug("snapshot archived",
		"id", snap.ID,
		"league", snap.League,
		"source", snap.Source,
		"entities", len(snap.Entities),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
