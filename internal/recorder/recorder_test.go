package recorder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/logger"
)

func pick(code string, rank int, risk *contracts.RiskDetail) contracts.ScoredRecord {
	return contracts.ScoredRecord{
		SecurityRecord: contracts.SecurityRecord{
			Code:           code,
			Name:           "股票" + code,
			Latest:         contracts.Num(12.6),
			Gain:           contracts.Num(0.8),
			Turnover:       contracts.Num(1.2),
			FloatMarketCap: contracts.Num(4.8e10),
		},
		Rank:           rank,
		Formula:        contracts.FormulaTrading,
		CompositeScore: 0.7,
		Risk:           risk,
	}
}

func newRun(id string, createdAt time.Time) *contracts.RunRecord {
	return &contracts.RunRecord{
		RunID:      id,
		TradeDate:  "20250106",
		Source:     "mock",
		Trigger:    "test",
		ConfigHash: "abc",
		Stats:      contracts.RunStatistics{RunID: id, MarketMode: contracts.ModeBull, FinalSelection: 2},
		Selection: []contracts.ScoredRecord{
			pick("600001", 1, &contracts.RiskDetail{Score: 0.2, AdjustedScore: 0.56}),
			pick("000002", 2, nil),
		},
		CreatedAt: createdAt,
	}
}

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "picker.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestSQLiteRecorder_SaveAndGet(t *testing.T) {
	rec := openTemp(t)
	ctx := context.Background()

	run := newRun("run-1", time.Date(2025, 1, 6, 1, 26, 0, 0, time.UTC))
	run.Enriched = []contracts.EnrichedRecord{{ScoredRecord: run.Selection[0], AIScore: 72, FinalScore: 80, FinalRank: 1}}
	require.NoError(t, rec.SaveRun(ctx, run))

	got, err := rec.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ConfigHash)
	assert.Equal(t, contracts.ModeBull, got.Stats.MarketMode)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Selection, 2)
	assert.Equal(t, "600001", got.Selection[0].Code)
	assert.Equal(t, 0.56, got.Selection[0].Risk.AdjustedScore)
	assert.Nil(t, got.Selection[1].Risk)
	assert.False(t, got.Selection[1].PE.Valid)
	require.Len(t, got.Enriched, 1)
	assert.Equal(t, 80.0, got.Enriched[0].FinalScore)
}

func TestSQLiteRecorder_SaveTwiceReplacesPicks(t *testing.T) {
	rec := openTemp(t)
	ctx := context.Background()

	run := newRun("run-1", time.Now())
	require.NoError(t, rec.SaveRun(ctx, run))

	run.Selection = run.Selection[:1]
	run.Stats.FinalSelection = 1
	require.NoError(t, rec.SaveRun(ctx, run))

	got, err := rec.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Selection, 1)
	assert.Equal(t, 1, got.Stats.FinalSelection)
}

func TestSQLiteRecorder_LatestRun(t *testing.T) {
	rec := openTemp(t)
	ctx := context.Background()

	_, err := rec.LatestRun(ctx)
	assert.ErrorIs(t, err, contracts.ErrRunNotFound)

	base := time.Date(2025, 1, 6, 1, 0, 0, 0, time.UTC)
	require.NoError(t, rec.SaveRun(ctx, newRun("older", base)))
	require.NoError(t, rec.SaveRun(ctx, newRun("newer", base.Add(time.Hour))))

	latest, err := rec.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", latest.RunID)

	_, err = rec.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, contracts.ErrRunNotFound)
}

func TestNoop(t *testing.T) {
	var store contracts.RunStore = Noop{}
	ctx := context.Background()

	assert.NoError(t, store.SaveRun(ctx, newRun("x", time.Now())))
	_, err := store.LatestRun(ctx)
	assert.ErrorIs(t, err, contracts.ErrRunNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	tests := []struct {
		name    string
		store   config.StoreConfig
		wantErr bool
	}{
		{"sqlite", config.StoreConfig{Driver: config.StoreDriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "p.db")}, false},
		{"none", config.StoreConfig{Driver: config.StoreDriverNone}, false},
		{"unknown", config.StoreConfig{Driver: "mysql"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := Open(ctx, &config.Config{Store: tt.store}, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
			assert.NoError(t, closeFn())
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	run := newRun("run-1", time.Now())

	require.NoError(t, WriteCSV(&buf, run.Selection, contracts.FieldLatest))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "代码,名称,最新,涨幅,换手率,量比,流通市值", lines[0])
	assert.Equal(t, "600001,股票600001,12.60,0.80,1.20,-,48000000000", lines[1])
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.csv")
	run := newRun("run-1", time.Now())

	require.NoError(t, ExportCSV(path, run.Selection, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\ufeff代码")))
}

func TestSQLiteRecorder_Health(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.db")
	rec, err := NewSQLiteRecorder(path, logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	var store contracts.RunStore = rec
	sh, ok := store.(contracts.StoreHealth)
	require.True(t, ok)

	status, err := sh.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status["driver"])
	assert.Equal(t, path, status["path"])
}
