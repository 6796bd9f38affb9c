package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/itrading/internal/contracts"
)

func gainTable(gains ...contracts.Number) *contracts.Table {
	t := contracts.NewTable(contracts.FieldCode, contracts.FieldGain)
	for i, g := range gains {
		t.Records = append(t.Records, contracts.SecurityRecord{Code: string(rune('A' + i)), Gain: g})
	}
	return t
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig(), nopLogger())
	missing := contracts.Missing

	tests := []struct {
		name      string
		table     *contracts.Table
		session   contracts.SessionState
		mode      contracts.MarketMode
		breadth   float64
		favorable bool
	}{
		{
			name:    "nil table",
			table:   nil,
			session: contracts.SessionUnknown,
			mode:    contracts.ModeNormal,
		},
		{
			name:    "no gain column",
			table:   newTable([]contracts.Field{contracts.FieldCode}, contracts.SecurityRecord{Code: "1"}),
			session: contracts.SessionUnknown,
			mode:    contracts.ModeNormal,
		},
		{
			name:      "all gains missing is the pre-open sentinel",
			table:     gainTable(missing, missing, missing),
			session:   contracts.SessionPreOpen,
			mode:      contracts.ModeNormal,
			breadth:   0.5,
			favorable: true,
		},
		{
			name:      "three of five up",
			table:     gainTable(num(2), num(3), num(1.5), num(-1), num(-0.5)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeNormal,
			breadth:   0.6,
			favorable: true,
		},
		{
			name:      "missing values are ignored in breadth",
			table:     gainTable(num(1), missing, num(-1), num(2)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeNormal,
			breadth:   2.0 / 3.0,
			favorable: true,
		},
		{
			name:      "genuine half breadth is not favorable",
			table:     gainTable(num(1), num(1), num(-1), num(-1)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeNormal,
			breadth:   0.5,
			favorable: false,
		},
		{
			name:      "bull",
			table:     gainTable(num(3), num(4), num(5), num(3), num(2.5)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeBull,
			breadth:   1,
			favorable: true,
		},
		{
			name:      "bear",
			table:     gainTable(num(-2), num(-3), num(-1.5), num(-2), num(0.5)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeBear,
			breadth:   0.2,
			favorable: false,
		},
		{
			name:      "volatile",
			table:     gainTable(num(9), num(-8), num(6), num(-5), num(1)),
			session:   contracts.SessionOpen,
			mode:      contracts.ModeVolatile,
			breadth:   0.6,
			favorable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.table, 0.5)
			assert.Equal(t, tt.session, got.Session)
			assert.Equal(t, tt.mode, got.Mode)
			assert.Equal(t, tt.mode, got.Recommended)
			assert.InDelta(t, tt.breadth, got.BreadthRatio, 1e-9)
			assert.Equal(t, tt.favorable, got.IsFavorable)
		})
	}
}

func TestClassifier_ThresholdIsStrict(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig(), nopLogger())
	table := gainTable(num(1), num(1), num(1), num(-1), num(-1))

	assert.True(t, c.Classify(table, 0.5).IsFavorable)
	assert.False(t, c.Classify(table, 0.6).IsFavorable)
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 3, 1.5, -1, -0.5})
	assert.InDelta(t, 1.0, mean, 1e-9)
	assert.InDelta(t, 1.6956, std, 1e-4)

	mean, std = meanStd([]float64{4})
	assert.Equal(t, 4.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = meanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}
