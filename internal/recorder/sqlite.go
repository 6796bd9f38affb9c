package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// SQLiteRecorder persists selection runs to a local SQLite file
// ⭐ SSOT: Selection 데이터 저장/조회 (sqlite driver)
type SQLiteRecorder struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the database file and runs migrations
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL: API 조회와 스케줄러 쓰기 동시 진행
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db, path: dbPath, logger: log.Component("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.WithField("path", dbPath).Info("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			trade_date  TEXT NOT NULL,
			source      TEXT NOT NULL,
			trigger     TEXT NOT NULL,
			market_mode TEXT NOT NULL,
			config_hash TEXT NOT NULL DEFAULT '',
			stats       TEXT NOT NULL,
			enriched    TEXT,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS picks (
			run_id              TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			rank                INTEGER NOT NULL,
			stock_code          TEXT NOT NULL,
			stock_name          TEXT NOT NULL,
			formula             TEXT NOT NULL,
			composite_score     REAL NOT NULL,
			risk_score          REAL,
			risk_adjusted_score REAL,
			payload             TEXT NOT NULL,
			PRIMARY KEY (run_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_picks_code ON picks(stock_code)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// SaveRun upserts the run row and replaces its picks
func (r *SQLiteRecorder) SaveRun(ctx context.Context, run *contracts.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	var enriched sql.NullString
	if len(run.Enriched) > 0 {
		data, err := json.Marshal(run.Enriched)
		if err != nil {
			return fmt.Errorf("marshal enriched: %w", err)
		}
		enriched = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, trade_date, source, trigger, market_mode, config_hash, stats, enriched, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			stats = excluded.stats,
			enriched = excluded.enriched`,
		run.RunID, run.TradeDate, run.Source, run.Trigger, string(run.Stats.MarketMode),
		run.ConfigHash, string(statsJSON), enriched, createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM picks WHERE run_id = ?`, run.RunID); err != nil {
		return fmt.Errorf("delete old picks: %w", err)
	}

	for _, p := range run.Selection {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal pick %s: %w", p.Code, err)
		}

		var riskScore, adjusted sql.NullFloat64
		if p.Risk != nil {
			riskScore = sql.NullFloat64{Float64: p.Risk.Score, Valid: true}
			adjusted = sql.NullFloat64{Float64: p.Risk.AdjustedScore, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO picks
			(run_id, rank, stock_code, stock_name, formula, composite_score, risk_score, risk_adjusted_score, payload)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			run.RunID, p.Rank, p.Code, p.Name, string(p.Formula),
			p.CompositeScore, riskScore, adjusted, string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert pick: %w", err)
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recently created run
func (r *SQLiteRecorder) LatestRun(ctx context.Context) (*contracts.RunRecord, error) {
	var runID string
	err := r.db.QueryRowContext(ctx,
		`SELECT run_id FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}

	return r.GetRun(ctx, runID)
}

// GetRun loads a run and its picks ordered by rank
func (r *SQLiteRecorder) GetRun(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	var (
		run       contracts.RunRecord
		statsJSON string
		enriched  sql.NullString
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT run_id, trade_date, source, trigger, config_hash, stats, enriched, created_at
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.TradeDate, &run.Source, &run.Trigger, &run.ConfigHash, &statsJSON, &enriched, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, contracts.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdAt)

	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	if enriched.Valid {
		if err := json.Unmarshal([]byte(enriched.String), &run.Enriched); err != nil {
			return nil, fmt.Errorf("unmarshal enriched: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM picks WHERE run_id = ? ORDER BY rank ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	run.Selection = make([]contracts.ScoredRecord, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		var pick contracts.ScoredRecord
		if err := json.Unmarshal([]byte(payload), &pick); err != nil {
			return nil, fmt.Errorf("unmarshal pick: %w", err)
		}
		run.Selection = append(run.Selection, pick)
	}

	return &run, rows.Err()
}

// Close closes the database
func (r *SQLiteRecorder) Close() error {
	r.logger.Info("Closing SQLite recorder")
	return r.db.Close()
}

// Health pings the database file
func (r *SQLiteRecorder) Health(ctx context.Context) (map[string]interface{}, error) {
	status := map[string]interface{}{"driver": "sqlite", "path": r.path}
	if err := r.db.PingContext(ctx); err != nil {
		return status, err
	}
	return status, nil
}
