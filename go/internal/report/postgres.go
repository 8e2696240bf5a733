package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/auctionroom/go/internal/dbconfig"
	"github.com/mcdev12/auctionroom/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS auction_reports (
  id           TEXT PRIMARY KEY,
  room_code    TEXT NOT NULL,
  mode         TEXT NOT NULL,
  status       TEXT NOT NULL,
  generated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS auction_report_rows (
  report_id     TEXT NOT NULL REFERENCES auction_reports (id) ON DELETE CASCADE,
  position      INT  NOT NULL,
  nickname      TEXT NOT NULL,
  coins         INT  NOT NULL,
  items         INT  NOT NULL,
  score         INT  NOT NULL,
  correct_slots INT  NOT NULL,
  bids          INT  NOT NULL,
  sales         INT  NOT NULL,
  activity      TEXT NOT NULL,
  PRIMARY KEY (report_id, position)
);`

// PostgresSink archives reports in Postgres.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects using cfg and makes sure the tables exist.
func NewPostgresSink(ctx context.Context, cfg dbconfig.Config) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to report database: %w", err)
	}
	sink := &PostgresSink{pool: pool}
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// EnsureSchema creates the report tables when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create report schema: %w", err)
	}
	return nil
}

// Archive stores rep and all its rows in one transaction and returns the
// report id.
func (s *PostgresSink) Archive(ctx context.Context, rep Report) (string, error) {
	id := uuid.NewString()
	err := sqlutil.Run(ctx, s.pool, newQueries, func(q *queries) error {
		if err := q.insertReport(ctx, id, rep); err != nil {
			return err
		}
		for i, row := range rep.Rows {
			if err := q.insertRow(ctx, id, i, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive report for room %s: %w", rep.Code, err)
	}
	log.Info().Str("room_code", rep.Code).Str("report_id", id).Int("rows", len(rep.Rows)).Msg("report archived")
	return id, nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

type queries struct {
	tx pgx.Tx
}

func newQueries(tx pgx.Tx) *queries { return &queries{tx: tx} }

func (q *queries) insertReport(ctx context.Context, id string, rep Report) error {
	_, err := q.tx.Exec(ctx, `
		INSERT INTO auction_reports (id, room_code, mode, status, generated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, rep.Code, string(rep.Mode), string(rep.Status), rep.GeneratedAt,
	)
	return err
}

func (q *queries) insertRow(ctx context.Context, reportID string, position int, row Row) error {
	_, err := q.tx.Exec(ctx, `
		INSERT INTO auction_report_rows (
		  report_id, position, nickname, coins, items, score,
		  correct_slots, bids, sales, activity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		reportID, position, row.Nickname, row.Coins, row.ItemCount, row.Score,
		row.CorrectSlots, row.Bids, row.Sales, row.Activity(),
	)
	return err
}
