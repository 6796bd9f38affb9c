package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/itrading/internal/contracts"
)

// Repository persists selection runs in PostgreSQL
// ⭐ SSOT: Selection 데이터 저장/조회는 여기서만 (postgres driver)
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS selection`,
	`CREATE TABLE IF NOT EXISTS selection.runs (
		run_id      TEXT PRIMARY KEY,
		trade_date  TEXT NOT NULL,
		source      TEXT NOT NULL,
		trigger     TEXT NOT NULL,
		market_mode TEXT NOT NULL,
		config_hash TEXT NOT NULL DEFAULT '',
		stats       JSONB NOT NULL,
		enriched    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON selection.runs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS selection.picks (
		run_id              TEXT NOT NULL REFERENCES selection.runs(run_id) ON DELETE CASCADE,
		rank                INT NOT NULL,
		stock_code          TEXT NOT NULL,
		stock_name          TEXT NOT NULL,
		formula             TEXT NOT NULL,
		composite_score     DOUBLE PRECISION NOT NULL,
		risk_score          DOUBLE PRECISION,
		risk_adjusted_score DOUBLE PRECISION,
		payload             JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
}

// Migrate creates the selection schema when missing
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate selection schema: %w", err)
		}
	}
	return nil
}

// SaveRun upserts the run and replaces its picks in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *contracts.RunRecord) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	var enrichedJSON []byte
	if len(run.Enriched) > 0 {
		if enrichedJSON, err = json.Marshal(run.Enriched); err != nil {
			return fmt.Errorf("failed to marshal enriched: %w", err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO selection.runs (
			run_id, trade_date, source, trigger, market_mode, config_hash, stats, enriched, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			stats = EXCLUDED.stats,
			enriched = EXCLUDED.enriched
	`
	_, err = tx.Exec(ctx, query,
		run.RunID, run.TradeDate, run.Source, run.Trigger, string(run.Stats.MarketMode),
		run.ConfigHash, statsJSON, enrichedJSON, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err = tx.Exec(ctx, "DELETE FROM selection.picks WHERE run_id = $1", run.RunID); err != nil {
		return fmt.Errorf("failed to delete old picks: %w", err)
	}

	pickQuery := `
		INSERT INTO selection.picks (
			run_id, rank, stock_code, stock_name, formula,
			composite_score, risk_score, risk_adjusted_score, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, p := range run.Selection {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal pick %s: %w", p.Code, err)
		}

		var riskScore, adjusted *float64
		if p.Risk != nil {
			riskScore, adjusted = &p.Risk.Score, &p.Risk.AdjustedScore
		}

		_, err = tx.Exec(ctx, pickQuery,
			run.RunID, p.Rank, p.Code, p.Name, string(p.Formula),
			p.CompositeScore, riskScore, adjusted, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pick: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestRun returns the most recently created run
func (r *Repository) LatestRun(ctx context.Context) (*contracts.RunRecord, error) {
	var runID string
	err := r.pool.QueryRow(ctx,
		"SELECT run_id FROM selection.runs ORDER BY created_at DESC LIMIT 1",
	).Scan(&runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return r.GetRun(ctx, runID)
}

// GetRun loads a run and its picks
func (r *Repository) GetRun(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	query := `
		SELECT run_id, trade_date, source, trigger, config_hash, stats, enriched, created_at
		FROM selection.runs
		WHERE run_id = $1
	`

	var run contracts.RunRecord
	var statsJSON, enrichedJSON []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID, &run.TradeDate, &run.Source, &run.Trigger, &run.ConfigHash, &statsJSON, &enrichedJSON, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, contracts.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if len(enrichedJSON) > 0 {
		if err := json.Unmarshal(enrichedJSON, &run.Enriched); err != nil {
			return nil, fmt.Errorf("failed to unmarshal enriched: %w", err)
		}
	}

	rows, err := r.pool.Query(ctx,
		"SELECT payload FROM selection.picks WHERE run_id = $1 ORDER BY rank ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	run.Selection = make([]contracts.ScoredRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var pick contracts.ScoredRecord
		if err := json.Unmarshal(payload, &pick); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pick: %w", err)
		}
		run.Selection = append(run.Selection, pick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &run, nil
}
