package selection

import (
	"math"
	"sort"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// neutralScore is the normalized value of a constant or absent factor
const neutralScore = 0.5

// WeightConfig defines the composite and risk weights
type WeightConfig struct {
	// 장중 (trading data 있음)
	VolumeRatio float64 `yaml:"volume_ratio" json:"volume_ratio"` // 기본: 0.4
	Turnover    float64 `yaml:"turnover" json:"turnover"`         // 기본: 0.3
	Gain        float64 `yaml:"gain" json:"gain"`                 // 기본: 0.3

	// 장전 (trading data 없음)
	MarketCap float64 `yaml:"market_cap" json:"market_cap"` // 기본: 0.6 (소형주 선호)
	PE        float64 `yaml:"pe" json:"pe"`                 // 기본: 0.4

	// advanced 리스크 점수
	RiskVolatility float64 `yaml:"risk_volatility" json:"risk_volatility"` // 기본: 0.4
	RiskValuation  float64 `yaml:"risk_valuation" json:"risk_valuation"`   // 기본: 0.3
	RiskLiquidity  float64 `yaml:"risk_liquidity" json:"risk_liquidity"`   // 기본: 0.3

	// 회전율을 리스크로 환산하는 분모 (turnover / 20)
	TurnoverRiskScale float64 `yaml:"turnover_risk_scale" json:"turnover_risk_scale"`
}

// DefaultWeightConfig returns the built-in weights
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		VolumeRatio:       0.4,
		Turnover:          0.3,
		Gain:              0.3,
		MarketCap:         0.6,
		PE:                0.4,
		RiskVolatility:    0.4,
		RiskValuation:     0.3,
		RiskLiquidity:     0.3,
		TurnoverRiskScale: 20,
	}
}

// Scorer computes composite scores, risk scores and the final ordering
// ⭐ SSOT: 점수 산출/정렬은 여기서만
type Scorer struct {
	weights WeightConfig
	logger  *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(weights WeightConfig, log *logger.Logger) *Scorer {
	if weights.TurnoverRiskScale <= 0 {
		weights.TurnoverRiskScale = DefaultWeightConfig().TurnoverRiskScale
	}
	return &Scorer{
		weights: weights,
		logger:  log,
	}
}

// HasTradingData distinguishes live volume-ratio data from filled defaults:
// the column exists, is not all missing and has at least one value other than 1.0.
func HasTradingData(table *contracts.Table) bool {
	if !table.Has(contracts.FieldVolumeRatio) {
		return false
	}
	for _, n := range table.Column(contracts.FieldVolumeRatio) {
		if n.Valid && n.Value != neutralVolumeRatio {
			return true
		}
	}
	return false
}

// Composite scores every row and returns them ordered by composite score.
// Scores depend only on the set of rows, not their order.
func (s *Scorer) Composite(table *contracts.Table) []contracts.ScoredRecord {
	if table.IsEmpty() {
		return []contracts.ScoredRecord{}
	}

	scored := make([]contracts.ScoredRecord, table.Len())
	for i := range table.Records {
		scored[i].SecurityRecord = table.Records[i]
	}

	if HasTradingData(table) {
		vr := normalizeColumn(table, contracts.FieldVolumeRatio)
		to := normalizeColumn(table, contracts.FieldTurnover)
		gain := normalizeColumn(table, contracts.FieldGain)
		for i := range scored {
			scored[i].Formula = contracts.FormulaTrading
			scored[i].Factors = contracts.ScoreDetail{VolumeRatio: vr[i], Turnover: to[i], Gain: gain[i]}
			scored[i].CompositeScore = s.weights.VolumeRatio*vr[i] +
				s.weights.Turnover*to[i] +
				s.weights.Gain*gain[i]
		}
	} else {
		capScore := invert(normalizeColumn(table, contracts.FieldFloatMarketCap))
		for i := range scored {
			// PE 결측(컬럼 없음 포함) → 0
			pe := PEDesirability(scored[i].PE)
			scored[i].Formula = contracts.FormulaPreOpen
			scored[i].Factors = contracts.ScoreDetail{MarketCap: capScore[i], PE: pe}
			scored[i].CompositeScore = s.weights.MarketCap*capScore[i] + s.weights.PE*pe
		}
	}

	sortScored(scored)

	s.logger.WithFields(map[string]interface{}{
		"rows":      len(scored),
		"formula":   scored[0].Formula,
		"top_code":  scored[0].Code,
		"top_score": scored[0].CompositeScore,
	}).Info("Composite scoring completed")

	return scored
}

// RiskAdjust adds the risk breakdown to already scored rows and reorders them by
// risk-adjusted score. The input slice is not modified.
func (s *Scorer) RiskAdjust(scored []contracts.ScoredRecord) []contracts.ScoredRecord {
	out := make([]contracts.ScoredRecord, len(scored))
	copy(out, scored)
	if len(out) == 0 {
		return out
	}

	table := contracts.NewTable(contracts.FieldFloatMarketCap, contracts.FieldPE)
	table.Records = make([]contracts.SecurityRecord, len(out))
	for i := range out {
		table.Records[i] = out[i].SecurityRecord
	}

	liquidity := invert(normalizeColumn(table, contracts.FieldFloatMarketCap))
	median, std, ok := peSpread(table.Column(contracts.FieldPE))

	for i := range out {
		r := &out[i]
		volatility := r.Turnover.Or(0) / s.weights.TurnoverRiskScale

		valuation := 0.0
		if ok && r.PE.Valid {
			valuation = clip((r.PE.Value-median)/std, 0, 1)
		}

		score := s.weights.RiskVolatility*volatility +
			s.weights.RiskValuation*valuation +
			s.weights.RiskLiquidity*liquidity[i]

		r.Risk = &contracts.RiskDetail{
			Volatility:    volatility,
			Valuation:     valuation,
			Liquidity:     liquidity[i],
			Score:         score,
			AdjustedScore: r.CompositeScore * (1 - score),
		}
	}

	sortScored(out)

	s.logger.WithFields(map[string]interface{}{
		"rows":      len(out),
		"top_code":  out[0].Code,
		"top_score": out[0].Risk.AdjustedScore,
	}).Info("Risk adjustment completed")

	return out
}

// PEDesirability maps a PE ratio onto the fixed preference table
func PEDesirability(pe contracts.Number) float64 {
	if !pe.Valid || pe.Value <= 0 {
		return 0
	}
	v := pe.Value
	switch {
	case v >= 15 && v <= 25:
		return 1.0
	case (v >= 10 && v < 15) || (v > 25 && v <= 35):
		return 0.8
	case (v >= 5 && v < 10) || (v > 35 && v <= 50):
		return 0.6
	default:
		return 0.3
	}
}

// normalizeColumn min-max normalizes f to [0,1]. An absent column, a constant
// column and individual missing values all get the neutral 0.5.
func normalizeColumn(table *contracts.Table, f contracts.Field) []float64 {
	out := make([]float64, table.Len())
	for i := range out {
		out[i] = neutralScore
	}
	if !table.Has(f) {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range table.Records {
		if n := table.Records[i].Get(f); n.Valid {
			lo = math.Min(lo, n.Value)
			hi = math.Max(hi, n.Value)
		}
	}
	if math.IsInf(lo, 1) || hi == lo {
		return out
	}

	for i := range table.Records {
		if n := table.Records[i].Get(f); n.Valid {
			out[i] = (n.Value - lo) / (hi - lo)
		}
	}
	return out
}

// invert maps x → 1−x (0.5 stays 0.5)
func invert(values []float64) []float64 {
	for i := range values {
		values[i] = 1 - values[i]
	}
	return values
}

// peSpread returns the median and sample standard deviation of the valid PE
// values; ok is false when the spread is undefined (fewer than two values or zero spread).
func peSpread(values []contracts.Number) (median, std float64, ok bool) {
	valid := make([]float64, 0, len(values))
	for _, n := range values {
		if n.Valid {
			valid = append(valid, n.Value)
		}
	}
	if len(valid) < 2 {
		return 0, 0, false
	}

	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 0 {
		median = (valid[mid-1] + valid[mid]) / 2
	} else {
		median = valid[mid]
	}

	_, std = meanStd(valid)
	if std == 0 {
		return median, 0, false
	}
	return median, std, true
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// sortScored orders by ranking score descending, code ascending on ties,
// and assigns 1-based ranks.
func sortScored(scored []contracts.ScoredRecord) {
	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := scored[i].RankingScore(), scored[j].RankingScore()
		if si != sj {
			return si > sj
		}
		return scored[i].Code < scored[j].Code
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
}
