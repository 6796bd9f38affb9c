package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/snapshot"
	"github.com/wonny/itrading/pkg/logger"
)

// DefaultMaxStocks is the selection size when none is configured
const DefaultMaxStocks = 8

// Termination reasons recorded in RunStatistics.Reason
const (
	ReasonEmptySnapshot     = "empty_snapshot"
	ReasonUnfavorableMarket = "unfavorable_market"
	ReasonCriteriaPrefix    = "criteria_"
)

// Config bundles everything a pipeline needs. Built once at process start
// (see strategyconfig) and passed explicitly.
type Config struct {
	Profiles        ProfileSet
	Classifier      ClassifierConfig
	RiskRules       RiskRules
	Weights         WeightConfig
	LimitUpGuard    float64
	IndustryWeights map[string]float64
	Aliases         snapshot.Aliases
	MaxStocks       int
}

// DefaultConfig returns the built-in pipeline configuration
func DefaultConfig() Config {
	return Config{
		Profiles:        DefaultProfileSet(),
		Classifier:      DefaultClassifierConfig(),
		RiskRules:       DefaultRiskRules(),
		Weights:         DefaultWeightConfig(),
		LimitUpGuard:    DefaultLimitUpGuard,
		IndustryWeights: DefaultIndustryWeights(),
		Aliases:         snapshot.DefaultAliases(),
		MaxStocks:       DefaultMaxStocks,
	}
}

// Options control one run
type Options struct {
	Advanced   bool
	AutoAdjust bool
	Mode       contracts.MarketMode
	MaxStocks  int // 0 이면 Config.MaxStocks
}

// Result is the selection plus the statistics of the run
type Result struct {
	Selection      []contracts.ScoredRecord       `json:"selection"`
	Stats          contracts.RunStatistics        `json:"stats"`
	Classification contracts.MarketClassification `json:"classification"`
	Profile        Profile                        `json:"profile"`
	PriceField     contracts.Field                `json:"price_field,omitempty"`
	Reason         string                         `json:"reason,omitempty"`
}

// Refs returns the selected identifiers handed to enrichment
func (r *Result) Refs() []contracts.SecurityRef {
	refs := make([]contracts.SecurityRef, len(r.Selection))
	for i := range r.Selection {
		refs[i] = r.Selection[i].Ref()
	}
	return refs
}

// Pipeline orchestrates classify → gate → risk → (technical) → criteria →
// (industry) → rank → truncate over one snapshot. It holds no per-run state
// and is safe for concurrent use.
// ⭐ SSOT: 선정 파이프라인 순서는 여기서만
type Pipeline struct {
	config     Config
	classifier *Classifier
	risk       *RiskFilter
	technical  *TechnicalFilter
	criteria   *CriteriaFilter
	industry   *IndustryFilter
	scorer     *Scorer
	logger     *logger.Logger
}

// NewPipeline creates a new pipeline
func NewPipeline(config Config, log *logger.Logger) *Pipeline {
	if config.MaxStocks <= 0 {
		config.MaxStocks = DefaultMaxStocks
	}
	if config.Aliases == nil {
		config.Aliases = snapshot.DefaultAliases()
	}
	log = log.Component("selection")

	return &Pipeline{
		config:     config,
		classifier: NewClassifier(config.Classifier, log),
		risk:       NewRiskFilter(config.RiskRules, log),
		technical:  NewTechnicalFilter(config.LimitUpGuard, log),
		criteria:   NewCriteriaFilter(log),
		industry:   NewIndustryFilter(config.IndustryWeights, log),
		scorer:     NewScorer(config.Weights, log),
		logger:     log,
	}
}

// Profiles returns the configured profile set
func (p *Pipeline) Profiles() ProfileSet {
	return p.config.Profiles
}

// Run screens one snapshot. Only an unknown mode or a cancelled context return
// an error; every "cannot screen" path ends with an empty selection and a Reason.
func (p *Pipeline) Run(ctx context.Context, snap *contracts.MarketSnapshot, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := p.config.Profiles.Resolve(opts.Mode)
	if err != nil {
		return nil, err
	}
	maxStocks := opts.MaxStocks
	if maxStocks <= 0 {
		maxStocks = p.config.MaxStocks
	}

	table := snapshot.Resolve(snap, p.config.Aliases)
	stats := contracts.RunStatistics{
		RunID:      uuid.NewString(),
		Source:     table.Source,
		Advanced:   opts.Advanced,
		TotalInput: table.Len(),
		Timestamp:  time.Now(),
	}
	if snap != nil && !snap.Date.IsZero() {
		stats.TradeDate = calendar.FormatTradeDate(snap.Date)
	}
	record := func(stage contracts.Stage, in, out int, reason string) {
		stats.Stages = append(stats.Stages, contracts.StageResult{
			Stage: stage, InputCount: in, OutputCount: out, Reason: reason,
		})
	}
	record(contracts.StageFetch, table.Len(), table.Len(), "")

	// 시장 환경 분류 (auto-adjust 는 한 번만 재분류)
	cls := p.classifier.Classify(table, profile.MarketThreshold)
	if opts.AutoAdjust && cls.Recommended != profile.Mode {
		p.logger.WithFields(map[string]interface{}{
			"from": profile.Mode,
			"to":   cls.Recommended,
		}).Info("Auto-adjusting market mode")
		if profile, err = p.config.Profiles.Resolve(cls.Recommended); err != nil {
			return nil, err
		}
		cls = p.classifier.Classify(table, profile.MarketThreshold)
	}
	cls.Mode = profile.Mode
	record(contracts.StageClassify, table.Len(), table.Len(), string(cls.Session))

	stats.UpRatio = cls.BreadthRatio
	stats.IsFavorable = cls.IsFavorable
	stats.MarketMode = profile.Mode
	stats.Session = cls.Session

	result := &Result{Classification: cls, Profile: profile}
	finish := func(reason string) *Result {
		if opts.Advanced {
			zero := 0
			if stats.AfterTechnicalFilter == nil {
				stats.AfterTechnicalFilter = &zero
			}
			if stats.AfterIndustryFilter == nil {
				stats.AfterIndustryFilter = &zero
			}
		}
		stats.Reason = reason
		result.Reason = reason
		result.Stats = stats
		if result.Selection == nil {
			result.Selection = []contracts.ScoredRecord{}
		}
		p.logger.WithFields(map[string]interface{}{
			"run_id":      stats.RunID,
			"advanced":    opts.Advanced,
			"mode":        profile.Mode,
			"total_input": stats.TotalInput,
			"final":       stats.FinalSelection,
			"reason":      reason,
		}).Info("Selection run finished")
		return result
	}

	// 게이트: pre-open sentinel 은 숫자 비교가 아닌 Session 으로 구분
	if !cls.IsFavorable && !cls.IsPreOpen() {
		reason := ReasonUnfavorableMarket
		if table.IsEmpty() {
			reason = ReasonEmptySnapshot
		}
		p.logger.WithFields(map[string]interface{}{
			"breadth": cls.BreadthRatio,
			"session": cls.Session,
		}).Warn("Market environment unfavorable, selection stopped")
		record(contracts.StageGate, table.Len(), 0, reason)
		return finish(reason), nil
	}
	record(contracts.StageGate, table.Len(), table.Len(), "")

	filtered, excluded := p.risk.Apply(table)
	stats.AfterRiskFilter = filtered.Len()
	if len(excluded) > 0 {
		stats.RiskExcluded = excluded
	}
	record(contracts.StageRiskFilter, table.Len(), filtered.Len(), "")

	if opts.Advanced {
		in := filtered.Len()
		filtered = p.technical.Apply(filtered)
		n := filtered.Len()
		stats.AfterTechnicalFilter = &n
		record(contracts.StageTechnicalFilter, in, n, "")
	}

	outcome := p.criteria.Apply(filtered, profile)
	stats.AfterCriteriaFilter = outcome.Table.Len()
	result.PriceField = outcome.PriceField
	record(contracts.StageCriteriaFilter, filtered.Len(), outcome.Table.Len(), outcome.Reason)

	selected := outcome.Table
	if opts.Advanced {
		in := selected.Len()
		selected = p.industry.Apply(selected)
		n := selected.Len()
		stats.AfterIndustryFilter = &n
		record(contracts.StageIndustryFilter, in, n, "")
	}

	ranked := p.scorer.Composite(selected)
	if opts.Advanced {
		ranked = p.scorer.RiskAdjust(ranked)
	}
	record(contracts.StageRank, selected.Len(), len(ranked), "")

	if len(ranked) > maxStocks {
		ranked = ranked[:maxStocks]
	}
	record(contracts.StageTruncate, len(ranked), len(ranked), "")

	result.Selection = ranked
	stats.FinalSelection = len(ranked)

	reason := ""
	if !outcome.OK() {
		reason = ReasonCriteriaPrefix + outcome.Reason
	}
	return finish(reason), nil
}

// Describe renders a one-line summary of the result for logs and CLI output
func (r *Result) Describe() string {
	return fmt.Sprintf("mode=%s session=%s breadth=%.2f favorable=%v input=%d final=%d",
		r.Stats.MarketMode, r.Stats.Session, r.Stats.UpRatio, r.Stats.IsFavorable,
		r.Stats.TotalInput, r.Stats.FinalSelection)
}
