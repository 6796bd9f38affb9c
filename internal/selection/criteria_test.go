package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/contracts"
)

func TestCriteriaFilter_OpenMarketFullScreen(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	profile := DefaultProfileSet().Base

	pass := liveRecord("A")
	smallCap := liveRecord("B")
	smallCap.FloatMarketCap = num(1e9)
	pricey := liveRecord("C")
	pricey.Price = num(60)
	loss := liveRecord("D")
	loss.PE = num(-3)
	hot := liveRecord("E")
	hot.Turnover = num(20)
	jump := liveRecord("F")
	jump.Gain = num(8)
	quiet := liveRecord("G")
	quiet.VolumeRatio = num(1.2)
	noCap := liveRecord("H")
	noCap.FloatMarketCap = contracts.Missing
	edge := liveRecord("I")
	edge.Gain = num(7) // 경계값 포함

	out := f.Apply(newTable(openFields, pass, smallCap, pricey, loss, hot, jump, quiet, noCap, edge), profile)

	require.True(t, out.OK())
	assert.True(t, out.MarketOpen)
	assert.Equal(t, contracts.FieldPrice, out.PriceField)
	assert.Equal(t, []string{"A", "I"}, out.Table.Codes())
}

func TestCriteriaFilter_PreOpenReducedScreen(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	profile := DefaultProfileSet().Base
	fields := []contracts.Field{
		contracts.FieldCode, contracts.FieldName, contracts.FieldLatest, contracts.FieldPrevClose,
		contracts.FieldGain, contracts.FieldTurnover, contracts.FieldVolumeRatio,
		contracts.FieldFloatMarketCap, contracts.FieldPE,
	}

	row := func(code string, prevClose float64) contracts.SecurityRecord {
		return contracts.SecurityRecord{
			Code: code, Name: code,
			PrevClose:      num(prevClose),
			FloatMarketCap: num(5e9),
			PE:             num(20),
		}
	}
	hot := row("B", 12)
	hot.Turnover = num(40) // 장전에는 회전율 필터 미적용

	out := f.Apply(newTable(fields, row("A", 10), hot, row("C", 80)), profile)

	require.True(t, out.OK())
	assert.False(t, out.MarketOpen)
	assert.Equal(t, contracts.FieldPrevClose, out.PriceField)
	assert.Equal(t, []string{"A", "B"}, out.Table.Codes())

	// 결측 선택 컬럼은 중립값으로 채워짐
	rec := out.Table.Records[0]
	assert.Equal(t, num(0), rec.Gain)
	assert.Equal(t, num(1), rec.VolumeRatio)
	assert.Equal(t, num(0), rec.Turnover)
	assert.Equal(t, num(40), out.Table.Records[1].Turnover)
}

func TestCriteriaFilter_MissingChosenPriceDropsRow(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	profile := DefaultProfileSet().Base
	fields := []contracts.Field{
		contracts.FieldCode, contracts.FieldLatest, contracts.FieldPrevClose,
		contracts.FieldFloatMarketCap, contracts.FieldPE,
	}

	base := contracts.SecurityRecord{FloatMarketCap: num(5e9), PE: num(20)}
	a, b, c := base, base, base
	a.Code, a.Latest = "A", num(10)
	b.Code, b.Latest = "B", num(11)
	c.Code, c.PrevClose = "C", num(12) // 최신가 없음 → 필수 가격 결측으로 제거

	out := f.Apply(newTable(fields, a, b, c), profile)

	require.True(t, out.OK())
	assert.Equal(t, contracts.FieldLatest, out.PriceField)
	assert.False(t, out.MarketOpen)
	assert.Equal(t, []string{"A", "B"}, out.Table.Codes())
	assert.Equal(t, num(10), out.Table.Records[0].Latest)
	assert.True(t, out.Table.Has(contracts.FieldGain), "neutral columns are materialized")
}

func TestCriteriaFilter_PriceFieldTieGoesToPreferenceOrder(t *testing.T) {
	table := newTable([]contracts.Field{contracts.FieldPrice, contracts.FieldPrevClose},
		contracts.SecurityRecord{Price: num(10), PrevClose: num(9)},
		contracts.SecurityRecord{PrevClose: num(9)},
		contracts.SecurityRecord{Price: num(10)},
	)

	field, ok := choosePriceField(table)
	assert.True(t, ok)
	assert.Equal(t, contracts.FieldPrice, field)
}

func TestCriteriaFilter_CannotScreen(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	profile := DefaultProfileSet().Base

	noPE := []contracts.Field{contracts.FieldCode, contracts.FieldPrice, contracts.FieldFloatMarketCap}
	noPrice := []contracts.Field{contracts.FieldCode, contracts.FieldPrice, contracts.FieldFloatMarketCap, contracts.FieldPE}
	latestOnly := []contracts.Field{contracts.FieldCode, contracts.FieldLatest, contracts.FieldFloatMarketCap, contracts.FieldPE}

	tests := []struct {
		name   string
		table  *contracts.Table
		reason string
	}{
		{"nil input", nil, ReasonNoInput},
		{"empty input", contracts.NewTable(openFields...), ReasonNoInput},
		{"missing PE column", newTable(noPE, liveRecord("A")), ReasonMissingColumns},
		{"price column all missing", newTable(noPrice, contracts.SecurityRecord{Code: "A", FloatMarketCap: num(5e9), PE: num(20)}), ReasonNoPriceData},
		{"latest price without previous close", newTable(latestOnly, contracts.SecurityRecord{Code: "A", Latest: num(10), FloatMarketCap: num(5e9), PE: num(20)}), ReasonNoPrevClose},
		{"no row has PE", newTable(openFields, contracts.SecurityRecord{Code: "A", Price: num(10), FloatMarketCap: num(5e9)}), ReasonNoValidRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.Apply(tt.table, profile)
			assert.False(t, out.OK())
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, 0, out.Table.Len())
		})
	}
}

func TestCriteriaFilter_Idempotent(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	profile := DefaultProfileSet().Base

	var records []contracts.SecurityRecord
	for i, gain := range []float64{0.5, 2, 4, 6.5, 8, 3} {
		r := liveRecord(string(rune('A' + i)))
		r.Gain = num(gain)
		r.VolumeRatio = num(1 + float64(i))
		records = append(records, r)
	}

	first := f.Apply(newTable(openFields, records...), profile)
	second := f.Apply(first.Table, profile)

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, first.Table.Codes(), second.Table.Codes())
}

func TestCriteriaFilter_DoesNotMutateInput(t *testing.T) {
	f := NewCriteriaFilter(nopLogger())
	rec := liveRecord("A")
	rec.Gain = contracts.Missing
	table := newTable(openFields, rec)

	f.Apply(table, DefaultProfileSet().Base)

	assert.False(t, table.Records[0].Gain.Valid)
}
