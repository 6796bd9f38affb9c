package selection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/contracts"
)

var liveColumns = []string{"代码", "名称", "最新价", "昨收", "涨幅", "换手率", "量比", "市盈率", "流通市值"}

func liveRow(code string, gain, volumeRatio float64) map[string]any {
	return map[string]any{
		"代码":   code,
		"名称":   "股票" + code,
		"最新价":  10.0,
		"昨收":   9.8,
		"涨幅":   gain,
		"换手率":  5.0,
		"量比":   volumeRatio,
		"市盈率":  20.0,
		"流通市值": 5e9,
	}
}

func liveSnapshot(rows ...map[string]any) *contracts.MarketSnapshot {
	return &contracts.MarketSnapshot{
		Date:    time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Source:  "test",
		Columns: liveColumns,
		Rows:    rows,
	}
}

func TestPipeline_FavorableMarketProceeds(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	snap := liveSnapshot(
		liveRow("600001", 2, 2),
		liveRow("600002", 3, 3),
		liveRow("600003", 1.5, 4),
		liveRow("600004", -1, 2),
		liveRow("600005", -0.5, 2),
	)

	res, err := p.Run(context.Background(), snap, Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Reason)
	assert.InDelta(t, 0.6, res.Stats.UpRatio, 1e-9)
	assert.True(t, res.Stats.IsFavorable)
	assert.Equal(t, contracts.ModeNormal, res.Stats.MarketMode)
	assert.Equal(t, contracts.SessionOpen, res.Stats.Session)
	assert.Equal(t, 5, res.Stats.TotalInput)
	assert.Equal(t, 5, res.Stats.AfterRiskFilter)
	assert.Equal(t, 3, res.Stats.AfterCriteriaFilter)
	assert.Equal(t, 3, res.Stats.FinalSelection)
	assert.Nil(t, res.Stats.AfterTechnicalFilter)
	assert.Nil(t, res.Stats.AfterIndustryFilter)
	assert.Equal(t, "20250106", res.Stats.TradeDate)
	assert.NotEmpty(t, res.Stats.RunID)
	assert.Len(t, res.Stats.Stages, len(contracts.StagesFor(false)))

	require.Len(t, res.Selection, 3)
	for _, r := range res.Selection {
		assert.Equal(t, contracts.FormulaTrading, r.Formula)
		assert.Nil(t, r.Risk)
	}
	assert.Equal(t, 1, res.Selection[0].Rank)
}

func TestPipeline_PreOpenSnapshot(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	row := func(code string, prevClose, capital, pe float64) map[string]any {
		return map[string]any{
			"代码": code, "名称": "股票" + code,
			"最新": nil, "昨收": prevClose,
			"涨幅": nil, "换手率": nil, "量比": nil,
			"市盈率": pe, "流通市值": capital,
		}
	}
	snap := &contracts.MarketSnapshot{
		Source:  "test",
		Columns: []string{"代码", "名称", "最新", "昨收", "涨幅", "换手率", "量比", "市盈率", "流通市值"},
		Rows: []map[string]any{
			row("600001", 10, 4e9, 20),
			row("600002", 12, 1.2e10, 12),
			row("600003", 80, 5e9, 20), // 가격 초과
		},
	}

	res, err := p.Run(context.Background(), snap, Options{Advanced: true})
	require.NoError(t, err)

	assert.Empty(t, res.Reason)
	assert.Equal(t, 0.5, res.Stats.UpRatio)
	assert.True(t, res.Stats.IsFavorable)
	assert.Equal(t, contracts.SessionPreOpen, res.Stats.Session)
	assert.Equal(t, contracts.FieldPrevClose, res.PriceField)
	require.NotNil(t, res.Stats.AfterTechnicalFilter)
	assert.Equal(t, 3, *res.Stats.AfterTechnicalFilter, "technical filter passes through without gain data")

	require.Len(t, res.Selection, 2)
	assert.Equal(t, "600001", res.Selection[0].Code)
	for _, r := range res.Selection {
		assert.Equal(t, contracts.FormulaPreOpen, r.Formula)
		assert.NotNil(t, r.Risk)
	}
}

func TestPipeline_EmptySnapshot(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())

	for _, advanced := range []bool{false, true} {
		t.Run(fmt.Sprintf("advanced=%v", advanced), func(t *testing.T) {
			res, err := p.Run(context.Background(), liveSnapshot(), Options{Advanced: advanced})
			require.NoError(t, err)

			assert.Equal(t, ReasonEmptySnapshot, res.Reason)
			assert.Empty(t, res.Selection)
			assert.NotNil(t, res.Selection)
			assert.Equal(t, 0, res.Stats.TotalInput)
			assert.Equal(t, 0, res.Stats.AfterRiskFilter)
			assert.Equal(t, 0, res.Stats.AfterCriteriaFilter)
			assert.Equal(t, 0, res.Stats.FinalSelection)
			if advanced {
				assert.Equal(t, 0, *res.Stats.AfterTechnicalFilter)
				assert.Equal(t, 0, *res.Stats.AfterIndustryFilter)
			}
		})
	}

	res, err := p.Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, ReasonEmptySnapshot, res.Reason)
}

func TestPipeline_UnfavorableMarketStopsEarly(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())

	tests := []struct {
		name  string
		gains []float64
	}{
		{"all down", []float64{-1, -2, -0.5, -3}},
		{"genuine half breadth", []float64{1, 2, -1, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []map[string]any
			for i, g := range tt.gains {
				rows = append(rows, liveRow(fmt.Sprintf("60000%d", i), g, 2))
			}

			res, err := p.Run(context.Background(), liveSnapshot(rows...), Options{})
			require.NoError(t, err)

			assert.Equal(t, ReasonUnfavorableMarket, res.Reason)
			assert.False(t, res.Stats.IsFavorable)
			assert.Equal(t, len(tt.gains), res.Stats.TotalInput)
			assert.Equal(t, 0, res.Stats.AfterRiskFilter)
			assert.Empty(t, res.Selection)
		})
	}
}

func TestPipeline_AdvancedTechnicalFilter(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	snap := liveSnapshot(
		liveRow("600001", 9.8, 2), // 상한가 근접
		liveRow("600002", 5, 3),
		liveRow("600003", 4, 4),
	)

	res, err := p.Run(context.Background(), snap, Options{Advanced: true, Mode: contracts.ModeBull})
	require.NoError(t, err)

	require.NotNil(t, res.Stats.AfterTechnicalFilter)
	assert.Equal(t, 2, *res.Stats.AfterTechnicalFilter)
	assert.Equal(t, 2, *res.Stats.AfterIndustryFilter)
	assert.NotContains(t, codesOf(res.Selection), "600001")
	for i := 1; i < len(res.Selection); i++ {
		assert.GreaterOrEqual(t, res.Selection[i-1].RankingScore(), res.Selection[i].RankingScore())
	}
}

func TestPipeline_AutoAdjustReResolvesOnce(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	snap := liveSnapshot(
		liveRow("600001", 3, 2),
		liveRow("600002", 4, 3),
		liveRow("600003", 5, 4),
		liveRow("600004", 3, 2),
		liveRow("600005", 2.5, 2),
	)

	res, err := p.Run(context.Background(), snap, Options{AutoAdjust: true})
	require.NoError(t, err)

	assert.Equal(t, contracts.ModeBull, res.Stats.MarketMode)
	assert.Equal(t, contracts.ModeBull, res.Profile.Mode)
	assert.Equal(t, 10.0, res.Profile.MaxGain)

	res, err = p.Run(context.Background(), snap, Options{})
	require.NoError(t, err)
	assert.Equal(t, contracts.ModeNormal, res.Stats.MarketMode)
	assert.Equal(t, contracts.ModeBull, res.Classification.Recommended)
}

func TestPipeline_TruncatesToMaxStocks(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	var rows []map[string]any
	for i := 0; i < 12; i++ {
		rows = append(rows, liveRow(fmt.Sprintf("6000%02d", i), 2+float64(i%4), 1.5+float64(i)/4))
	}

	res, err := p.Run(context.Background(), liveSnapshot(rows...), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Selection, DefaultMaxStocks)

	res, err = p.Run(context.Background(), liveSnapshot(rows...), Options{MaxStocks: 3})
	require.NoError(t, err)
	require.Len(t, res.Selection, 3)
	assert.Equal(t, 3, res.Stats.FinalSelection)
	assert.Equal(t, []int{1, 2, 3}, []int{res.Selection[0].Rank, res.Selection[1].Rank, res.Selection[2].Rank})
	assert.Len(t, res.Refs(), 3)
}

func TestPipeline_Errors(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())

	_, err := p.Run(context.Background(), liveSnapshot(), Options{Mode: "crash"})
	assert.ErrorIs(t, err, ErrUnknownMode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, liveSnapshot(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_CriteriaCannotScreen(t *testing.T) {
	p := NewPipeline(DefaultConfig(), nopLogger())
	snap := &contracts.MarketSnapshot{
		Columns: []string{"代码", "名称", "涨幅"},
		Rows:    []map[string]any{{"代码": "600001", "名称": "A", "涨幅": 2.0}},
	}

	res, err := p.Run(context.Background(), snap, Options{})
	require.NoError(t, err)

	assert.Equal(t, ReasonCriteriaPrefix+ReasonMissingColumns, res.Reason)
	assert.Equal(t, 1, res.Stats.AfterRiskFilter)
	assert.Equal(t, 0, res.Stats.AfterCriteriaFilter)
	assert.Empty(t, res.Selection)
}
