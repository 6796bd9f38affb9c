// Package calendar answers trading-day questions for the Shanghai/Shenzhen exchanges.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the canonical trade date format (YYYYMMDD)
const DateLayout = "20060102"

// searchWindow bounds LastTradingDay/NextTradingDay (covers the Spring Festival week)
const searchWindow = 30

// ErrNoTradingDay is returned when no trading day exists inside the search window
var ErrNoTradingDay = errors.New("no trading day within search window")

var acceptedLayouts = []string{DateLayout, "2006-01-02", "2006/01/02"}

// Calendar is an immutable trading calendar: weekdays minus a fixed holiday set
// ⭐ SSOT: 거래일 판단은 여기서만
type Calendar struct {
	holidays map[string]bool
	loc      *time.Location
}

// New builds a calendar from holiday dates in any accepted layout
func New(holidays []string) (*Calendar, error) {
	c := &Calendar{
		holidays: make(map[string]bool, len(holidays)),
		loc:      Shanghai(),
	}
	for _, h := range holidays {
		d, err := ParseTradeDate(h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		c.holidays[FormatTradeDate(d)] = true
	}
	return c, nil
}

// Default returns the calendar built from DefaultHolidays
func Default() *Calendar {
	c, err := New(DefaultHolidays())
	if err != nil {
		panic(err) // DefaultHolidays is static data
	}
	return c
}

// Shanghai returns the exchange time zone (fixed UTC+8 when tzdata is unavailable)
func Shanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Location returns the calendar's time zone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Holidays returns the holiday set as sorted YYYYMMDD strings
func (c *Calendar) Holidays() []string {
	out := make([]string, 0, len(c.holidays))
	for h := range c.holidays {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// ParseTradeDate accepts YYYYMMDD, YYYY-MM-DD and YYYY/MM/DD; the result is
// midnight in the exchange time zone.
func ParseTradeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, s, Shanghai()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q (want YYYYMMDD, YYYY-MM-DD or YYYY/MM/DD)", s)
}

// FormatTradeDate renders a date as YYYYMMDD
func FormatTradeDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsHoliday reports whether the date is in the holiday set
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[FormatTradeDate(t.In(c.loc))]
}

// IsTradingDay reports a weekday that is not a holiday
func (c *Calendar) IsTradingDay(t time.Time) bool {
	t = t.In(c.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

// LastTradingDay returns the most recent trading day strictly before t
func (c *Calendar) LastTradingDay(t time.Time) (time.Time, error) {
	day := c.dateOf(t)
	for i := 1; i <= searchWindow; i++ {
		d := day.AddDate(0, 0, -i)
		if c.IsTradingDay(d) {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("last trading day before %s: %w", FormatTradeDate(day), ErrNoTradingDay)
}

// NextTradingDay returns the first trading day strictly after t
func (c *Calendar) NextTradingDay(t time.Time) (time.Time, error) {
	day := c.dateOf(t)
	for i := 1; i <= searchWindow; i++ {
		d := day.AddDate(0, 0, i)
		if c.IsTradingDay(d) {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("next trading day after %s: %w", FormatTradeDate(day), ErrNoTradingDay)
}

// TradeDate returns the date whose snapshot a run at t should use:
// t itself on a trading day, otherwise the last trading day.
func (c *Calendar) TradeDate(t time.Time) (time.Time, error) {
	day := c.dateOf(t)
	if c.IsTradingDay(day) {
		return day, nil
	}
	return c.LastTradingDay(day)
}

func (c *Calendar) dateOf(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}
