package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseTradeDate(s)
	require.NoError(t, err)
	return d
}

func TestParseTradeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"20250106", "20250106", false},
		{"2025-01-06", "20250106", false},
		{"2025/01/06", "20250106", false},
		{" 20250106 ", "20250106", false},
		{"06.01.2025", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTradeDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatTradeDate(got))
		})
	}
}

func TestIsTradingDay(t *testing.T) {
	cal := Default()

	tests := []struct {
		date string
		want bool
	}{
		{"20250106", true},  // Monday
		{"20250104", false}, // Saturday
		{"20250105", false}, // Sunday
		{"20251001", false}, // National Day
		{"20240610", false}, // Dragon Boat, Monday
		{"20260217", false}, // Spring Festival
		{"20260224", true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsTradingDay(mustDate(t, tt.date)))
		})
	}
}

func TestLastAndNextTradingDay(t *testing.T) {
	cal := Default()

	tests := []struct {
		name string
		fn   func(time.Time) (time.Time, error)
		from string
		want string
	}{
		{"next across spring festival", cal.NextTradingDay, "20240209", "20240219"},
		{"last across spring festival", cal.LastTradingDay, "20240219", "20240209"},
		{"last skips holiday monday", cal.LastTradingDay, "20240611", "20240607"},
		{"next across national day", cal.NextTradingDay, "20250930", "20251009"},
		{"last from trading day is strictly before", cal.LastTradingDay, "20250107", "20250106"},
		{"next from friday", cal.NextTradingDay, "20250103", "20250106"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(mustDate(t, tt.from))
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatTradeDate(got))
		})
	}
}

func TestSearchWindowExhausted(t *testing.T) {
	start := mustDate(t, "20250101")
	var holidays []string
	for i := 0; i < 40; i++ {
		holidays = append(holidays, FormatTradeDate(start.AddDate(0, 0, i)))
	}
	cal, err := New(holidays)
	require.NoError(t, err)

	_, err = cal.NextTradingDay(mustDate(t, "20241231"))
	assert.ErrorIs(t, err, ErrNoTradingDay)

	_, err = cal.LastTradingDay(start.AddDate(0, 0, 39))
	assert.ErrorIs(t, err, ErrNoTradingDay)
}

func TestNew_InvalidHoliday(t *testing.T) {
	_, err := New([]string{"2025-13-45"})
	assert.Error(t, err)
}

func TestTradeDate(t *testing.T) {
	cal := Default()
	loc := cal.Location()

	saturday := time.Date(2025, 1, 4, 10, 0, 0, 0, loc)
	got, err := cal.TradeDate(saturday)
	require.NoError(t, err)
	assert.Equal(t, "20250103", FormatTradeDate(got))

	monday := time.Date(2025, 1, 6, 9, 0, 0, 0, loc)
	got, err = cal.TradeDate(monday)
	require.NoError(t, err)
	assert.Equal(t, "20250106", FormatTradeDate(got))
}

func TestSession(t *testing.T) {
	cal := Default()
	loc := cal.Location()

	tests := []struct {
		name string
		at   time.Time
		want Phase
	}{
		{"before open", time.Date(2025, 1, 6, 9, 26, 0, 0, loc), PhasePreOpen},
		{"morning", time.Date(2025, 1, 6, 9, 30, 0, 0, loc), PhaseMorning},
		{"lunch", time.Date(2025, 1, 6, 12, 0, 0, 0, loc), PhaseLunch},
		{"afternoon", time.Date(2025, 1, 6, 14, 59, 0, 0, loc), PhaseAfternoon},
		{"after close", time.Date(2025, 1, 6, 15, 0, 0, 0, loc), PhaseClosed},
		{"weekend", time.Date(2025, 1, 4, 10, 0, 0, 0, loc), PhaseClosed},
		{"utc input converted", time.Date(2025, 1, 6, 2, 0, 0, 0, time.UTC), PhaseMorning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Session(tt.at)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, PhaseMorning.IsTrading())
	assert.False(t, PhaseLunch.IsTrading())
}
