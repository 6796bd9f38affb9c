package enrichment

import (
	"context"
	"fmt"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Recommendation bands on the 0-100 annotation score
const (
	BuyThreshold  = 65.0
	HoldThreshold = 45.0
)

// RecommendationFor maps a 0-100 score onto buy/hold/sell
func RecommendationFor(score float64) contracts.Recommendation {
	switch {
	case score >= BuyThreshold:
		return contracts.RecommendBuy
	case score >= HoldThreshold:
		return contracts.RecommendHold
	default:
		return contracts.RecommendSell
	}
}

// RuleAnnotator scores securities from their own selection scores.
// Used when no LLM key is configured and as the fallback for failed calls.
type RuleAnnotator struct {
	logger *logger.Logger
}

// NewRuleAnnotator creates a new rule-based annotator
func NewRuleAnnotator(log *logger.Logger) *RuleAnnotator {
	return &RuleAnnotator{logger: log}
}

// Name returns the provider name
func (a *RuleAnnotator) Name() string {
	return "rule"
}

// Annotate never fails; it returns one annotation per ref
func (a *RuleAnnotator) Annotate(ctx context.Context, refs []contracts.SecurityRef) (map[string]contracts.Annotation, error) {
	out := make(map[string]contracts.Annotation, len(refs))
	for _, ref := range refs {
		out[ref.Code] = a.annotate(ref)
	}

	a.logger.WithField("count", len(out)).Debug("Rule annotations generated")
	return out, nil
}

func (a *RuleAnnotator) annotate(ref contracts.SecurityRef) contracts.Annotation {
	score := clip01(0.5*ref.CompositeScore+0.5*ref.RankingScore) * 100
	rec := RecommendationFor(score)

	return contracts.Annotation{
		Score:          score,
		Recommendation: rec,
		Analysis: fmt.Sprintf("%s(%s) 综合得分 %.2f, 排序得分 %.2f, 规则评分 %.1f, 建议 %s",
			ref.Name, ref.Code, ref.CompositeScore, ref.RankingScore, score, rec),
		Provider: a.Name(),
	}
}
