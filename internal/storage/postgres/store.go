package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolLens/internal/model"
)

// Store provides Postgres persistence for observations.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertObservations appends a batch of observations. Observations are
// append-only; nothing updates or reads them back from the engine side.
func (s *Store) InsertObservations(ctx context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range observations {
		batch.Queue(`
			INSERT INTO observations (
				chain_id, kind, pool_id, sqrt_price_x96, tick, liquidity,
				amount_in, amount_out, rate, source, observed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,to_timestamp($11),now())
		`,
			int64(o.ChainID),
			o.Kind,
			o.PoolID,
			o.SqrtPriceX96,
			o.Tick,
			o.Liquidity,
			o.AmountIn,
			o.AmountOut,
			o.Rate,
			o.Source,
			o.ObservedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range observations {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
