package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/contracts"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    contracts.MarketMode
		wantErr bool
	}{
		{"normal", contracts.ModeNormal, false},
		{"", contracts.ModeNormal, false},
		{"bull", contracts.ModeBull, false},
		{"bull_market", contracts.ModeBull, false},
		{"BEAR_MARKET", contracts.ModeBear, false},
		{" volatile ", contracts.ModeVolatile, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileSet_ResolveBearChangesOnlyItsFields(t *testing.T) {
	set := DefaultProfileSet()

	bear, err := set.Resolve(contracts.ModeBear)
	require.NoError(t, err)

	want := set.Base
	want.Mode = contracts.ModeBear
	want.MaxGain = 5
	want.MaxTurnover = 10
	want.MinMarketCap = 5e9
	assert.Equal(t, want, bear)
}

func TestProfileSet_Resolve(t *testing.T) {
	set := DefaultProfileSet()

	tests := []struct {
		mode  contracts.MarketMode
		check func(t *testing.T, p Profile)
	}{
		{contracts.ModeNormal, func(t *testing.T, p Profile) {
			assert.Equal(t, 7.0, p.MaxGain)
			assert.Equal(t, 0.5, p.MarketThreshold)
		}},
		{contracts.ModeBull, func(t *testing.T, p Profile) {
			assert.Equal(t, 10.0, p.MaxGain)
			assert.Equal(t, 20.0, p.MaxTurnover)
			assert.Equal(t, 2e9, p.MinMarketCap)
			assert.Equal(t, 1.0, p.MinGain)
		}},
		{contracts.ModeVolatile, func(t *testing.T, p Profile) {
			assert.Equal(t, 0.5, p.MinGain)
			assert.Equal(t, 6.0, p.MaxGain)
			assert.Equal(t, 1.2, p.MinVolumeRatio)
			assert.Equal(t, 5.0, p.MaxVolumeRatio)
		}},
		{"bull_market", func(t *testing.T, p Profile) {
			assert.Equal(t, contracts.ModeBull, p.Mode)
			assert.Equal(t, 10.0, p.MaxGain)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p, err := set.Resolve(tt.mode)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}

	_, err := set.Resolve("crash")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestProfileSet_ResolveDoesNotMutateBase(t *testing.T) {
	set := DefaultProfileSet()
	before := set.Base

	_, err := set.Resolve(contracts.ModeBull)
	require.NoError(t, err)

	assert.Equal(t, before, set.Base)
}
