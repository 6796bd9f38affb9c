package strategyconfig

import (
	"fmt"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/enrichment"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/internal/snapshot"
)

// ProfileSet overlays profile and modes onto the built-in profile set
func (c *Config) ProfileSet() (selection.ProfileSet, error) {
	defaults := selection.DefaultProfileSet()

	set := selection.ProfileSet{
		Base:      c.Profile.Apply(defaults.Base),
		Overrides: make(map[contracts.MarketMode]selection.ProfileOverride, len(defaults.Overrides)),
	}
	for mode, o := range defaults.Overrides {
		set.Overrides[mode] = o
	}

	for name, o := range c.Modes {
		mode, err := selection.ParseMode(name)
		if err != nil {
			return selection.ProfileSet{}, ValidationError{"modes." + name, err.Error()}
		}
		set.Overrides[mode] = overlay(set.Overrides[mode], o)
	}

	return set, nil
}

// overlay returns base with every field set in top replaced
func overlay(base, top selection.ProfileOverride) selection.ProfileOverride {
	pick := func(b, t *float64) *float64 {
		if t != nil {
			return t
		}
		return b
	}
	return selection.ProfileOverride{
		MinMarketCap:    pick(base.MinMarketCap, top.MinMarketCap),
		MaxMarketCap:    pick(base.MaxMarketCap, top.MaxMarketCap),
		MinPrice:        pick(base.MinPrice, top.MinPrice),
		MaxPrice:        pick(base.MaxPrice, top.MaxPrice),
		MinTurnover:     pick(base.MinTurnover, top.MinTurnover),
		MaxTurnover:     pick(base.MaxTurnover, top.MaxTurnover),
		MinGain:         pick(base.MinGain, top.MinGain),
		MaxGain:         pick(base.MaxGain, top.MaxGain),
		MinVolumeRatio:  pick(base.MinVolumeRatio, top.MinVolumeRatio),
		MaxVolumeRatio:  pick(base.MaxVolumeRatio, top.MaxVolumeRatio),
		MarketThreshold: pick(base.MarketThreshold, top.MarketThreshold),
	}
}

// ClassifierConfig overlays the classifier thresholds onto the defaults
func (c *Config) ClassifierConfig() selection.ClassifierConfig {
	out := selection.DefaultClassifierConfig()
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.BullBreadth, c.Classifier.BullBreadth)
	set(&out.BullMeanGain, c.Classifier.BullMeanGain)
	set(&out.BearBreadth, c.Classifier.BearBreadth)
	set(&out.BearMeanGain, c.Classifier.BearMeanGain)
	set(&out.VolatileStdDev, c.Classifier.VolatileStdDev)
	return out
}

// Aliases returns the default column aliases plus the configured extras
func (c *Config) Aliases() snapshot.Aliases {
	aliases := snapshot.DefaultAliases()
	if len(c.Sources.Aliases) == 0 {
		return aliases
	}

	extra := make(snapshot.Aliases, len(c.Sources.Aliases))
	for field, names := range c.Sources.Aliases {
		extra[contracts.Field(field)] = names
	}
	return aliases.Merge(extra)
}

// PipelineConfig builds the selection pipeline configuration
func (c *Config) PipelineConfig() (selection.Config, error) {
	profiles, err := c.ProfileSet()
	if err != nil {
		return selection.Config{}, err
	}

	cfg := selection.DefaultConfig()
	cfg.Profiles = profiles
	cfg.Classifier = c.ClassifierConfig()
	cfg.Aliases = c.Aliases()
	if c.Risk != nil {
		cfg.RiskRules = *c.Risk
	}
	if c.Scoring != nil {
		cfg.Weights = *c.Scoring
	}
	if c.Industry != nil {
		cfg.IndustryWeights = c.Industry
	}
	if c.Selection.LimitUpGuard > 0 {
		cfg.LimitUpGuard = c.Selection.LimitUpGuard
	}
	if c.Selection.MaxStocks > 0 {
		cfg.MaxStocks = c.Selection.MaxStocks
	}

	return cfg, nil
}

// RunOptions returns the default per-run options
func (c *Config) RunOptions() (selection.Options, error) {
	mode, err := selection.ParseMode(c.Selection.Mode)
	if err != nil {
		return selection.Options{}, ValidationError{"selection.mode", err.Error()}
	}
	return selection.Options{
		Advanced:   c.Selection.Advanced,
		AutoAdjust: c.Selection.AutoAdjust,
		Mode:       mode,
		MaxStocks:  c.Selection.MaxStocks,
	}, nil
}

// TradingCalendar builds the calendar from the holiday settings
func (c *Config) TradingCalendar() (*calendar.Calendar, error) {
	holidays := calendar.DefaultHolidays()
	if len(c.Calendar.Holidays) > 0 {
		holidays = c.Calendar.Holidays
	}
	holidays = append(append([]string(nil), holidays...), c.Calendar.ExtraHolidays...)

	cal, err := calendar.New(holidays)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	return cal, nil
}

// FinalWeights returns the enrichment weights, defaulting when unset
func (c *Config) FinalWeights() enrichment.FinalWeights {
	if c.Enrichment.Weights != nil {
		return *c.Enrichment.Weights
	}
	return enrichment.DefaultFinalWeights()
}
