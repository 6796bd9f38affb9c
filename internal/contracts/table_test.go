package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNum(t *testing.T) {
	tests := []struct {
		name  string
		in    float64
		valid bool
	}{
		{"plain value", 12.5, true},
		{"zero", 0, true},
		{"NaN", math.NaN(), false},
		{"+Inf", math.Inf(1), false},
		{"-Inf", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Num(tt.in).Valid)
		})
	}
}

func TestNumber_JSON(t *testing.T) {
	rec := SecurityRecord{Code: "600001", Name: "阳光股份", Price: Num(10.5)}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":10.5`)
	assert.Contains(t, string(data), `"gain":null`)

	var decoded SecurityRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestSecurityRecord_GetSet(t *testing.T) {
	var rec SecurityRecord
	for i, f := range NumericFields() {
		rec.Set(f, Num(float64(i)))
	}
	for i, f := range NumericFields() {
		assert.Equal(t, float64(i), rec.Get(f).Value, f)
	}

	rec.Set(FieldCode, Num(1))
	assert.Equal(t, "", rec.Code)
	assert.False(t, rec.Get(FieldName).Valid)
}

func TestTable_PresenceVersusMissing(t *testing.T) {
	table := NewTable(FieldCode, FieldGain)
	table.Records = []SecurityRecord{{Code: "1"}, {Code: "2"}}

	assert.True(t, table.Has(FieldGain))
	assert.Equal(t, 0, table.ValidCount(FieldGain))
	assert.False(t, table.Has(FieldPE))

	var nilTable *Table
	assert.False(t, nilTable.Has(FieldCode))
	assert.True(t, nilTable.IsEmpty())
	assert.Equal(t, 0, nilTable.Clone().Len())
}

func TestTable_FilterDoesNotMutateInput(t *testing.T) {
	table := NewTable(FieldCode, FieldGain)
	table.Records = []SecurityRecord{
		{Code: "1", Gain: Num(1)},
		{Code: "2", Gain: Num(-1)},
		{Code: "3", Gain: Num(2)},
	}

	up := table.Filter(func(r *SecurityRecord) bool { return r.Gain.Value > 0 })

	assert.Equal(t, []string{"1", "3"}, up.Codes())
	assert.Equal(t, []string{"1", "2", "3"}, table.Codes())
	assert.True(t, up.Has(FieldGain))
}

func TestScoredRecord_RankingScore(t *testing.T) {
	rec := ScoredRecord{CompositeScore: 0.8}
	assert.Equal(t, 0.8, rec.RankingScore())

	rec.Risk = &RiskDetail{Score: 0.5, AdjustedScore: 0.4}
	assert.Equal(t, 0.4, rec.RankingScore())
	assert.Equal(t, 0.4, rec.Ref().RankingScore)
}

func TestMarketSnapshot_ColumnNames(t *testing.T) {
	snap := &MarketSnapshot{Rows: []map[string]any{
		{"名称": "A", "代码": "1"},
		{"涨幅": 1.0},
	}}
	assert.Equal(t, []string{"代码", "名称", "涨幅"}, snap.ColumnNames())

	snap.Columns = []string{"代码"}
	assert.Equal(t, []string{"代码"}, snap.ColumnNames())

	var nilSnap *MarketSnapshot
	assert.Equal(t, 0, nilSnap.Len())
}
