package enrichment

import (
	"sort"

	"github.com/wonny/itrading/internal/contracts"
)

// FinalWeights blends the selection scores with the annotation score
type FinalWeights struct {
	MarketCap    float64 `yaml:"market_cap" json:"market_cap"`       // 기본: 0.15 (중앙값 근접)
	Composite    float64 `yaml:"composite" json:"composite"`         // 기본: 0.25
	Risk         float64 `yaml:"risk" json:"risk"`                   // 기본: 0.20 (낮을수록 좋음)
	RiskAdjusted float64 `yaml:"risk_adjusted" json:"risk_adjusted"` // 기본: 0.20
	AI           float64 `yaml:"ai" json:"ai"`                       // 기본: 0.20
}

// DefaultFinalWeights returns the built-in final score weights
func DefaultFinalWeights() FinalWeights {
	return FinalWeights{
		MarketCap:    0.15,
		Composite:    0.25,
		Risk:         0.20,
		RiskAdjusted: 0.20,
		AI:           0.20,
	}
}

// Sum returns the total weight
func (w FinalWeights) Sum() float64 {
	return w.MarketCap + w.Composite + w.Risk + w.RiskAdjusted + w.AI
}

// Merge attaches annotations to the selection by code.
// A security without an annotation keeps AI score 0 and an empty analysis.
func Merge(selection []contracts.ScoredRecord, annotations map[string]contracts.Annotation) []contracts.EnrichedRecord {
	out := make([]contracts.EnrichedRecord, len(selection))
	for i, r := range selection {
		out[i] = contracts.EnrichedRecord{ScoredRecord: r}
		if a, ok := annotations[r.Code]; ok {
			out[i].AIScore = a.Score
			out[i].Recommendation = a.Recommendation
			out[i].Analysis = a.Analysis
		}
	}
	return out
}

// FinalScore computes the 0-100 final score and returns a copy ordered by it.
// Records without a risk breakdown count as risk 0 with the composite as adjusted score.
func FinalScore(enriched []contracts.EnrichedRecord, w FinalWeights) []contracts.EnrichedRecord {
	out := make([]contracts.EnrichedRecord, len(enriched))
	copy(out, enriched)
	if len(out) == 0 {
		return out
	}

	n := len(out)
	composite := make([]float64, n)
	risk := make([]float64, n)
	adjusted := make([]float64, n)
	ai := make([]float64, n)
	caps := make([]float64, 0, n)
	for i := range out {
		composite[i] = out[i].CompositeScore
		adjusted[i] = out[i].CompositeScore
		if out[i].Risk != nil {
			risk[i] = out[i].Risk.Score
			adjusted[i] = out[i].Risk.AdjustedScore
		}
		ai[i] = out[i].AIScore
		if out[i].FloatMarketCap.Valid {
			caps = append(caps, out[i].FloatMarketCap.Value)
		}
	}

	compositeNorm := minMax(composite)
	riskNorm := minMax(risk)
	adjustedNorm := minMax(adjusted)
	aiNorm := minMax(ai)
	m := median(caps)

	for i := range out {
		capScore := 0.0
		if c := out[i].FloatMarketCap; c.Valid && m > 0 {
			capScore = clip01(1 - abs(c.Value-m)/m)
		}

		out[i].FinalScore = (capScore*w.MarketCap +
			compositeNorm[i]*w.Composite +
			(1-riskNorm[i])*w.Risk +
			adjustedNorm[i]*w.RiskAdjusted +
			aiNorm[i]*w.AI) * 100
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		return out[i].Code < out[j].Code
	})
	for i := range out {
		out[i].FinalRank = i + 1
	}

	return out
}

// minMax scales to [0,1]; a constant column scores 0.5 everywhere
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	for i, v := range values {
		if hi == lo {
			out[i] = 0.5
			continue
		}
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
