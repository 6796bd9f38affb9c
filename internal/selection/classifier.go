package selection

import (
	"fmt"
	"math"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// pre-open sentinel breadth reported when no gain value is available yet
const preOpenBreadth = 0.5

// ClassifierConfig holds the regime thresholds
type ClassifierConfig struct {
	BullBreadth    float64 // 상승 비율 > 0.7
	BullMeanGain   float64 // 평균 등락률 > 2%
	BearBreadth    float64 // 상승 비율 < 0.3
	BearMeanGain   float64 // 평균 등락률 < -1%
	VolatileStdDev float64 // 등락률 표준편차 > 3
}

// DefaultClassifierConfig returns the built-in regime thresholds
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BullBreadth:    0.7,
		BullMeanGain:   2,
		BearBreadth:    0.3,
		BearMeanGain:   -1,
		VolatileStdDev: 3,
	}
}

// Classifier inspects a snapshot's gain column to decide session state,
// market breadth and regime.
// ⭐ SSOT: 시장 환경 판단은 여기서만
type Classifier struct {
	config ClassifierConfig
	logger *logger.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(config ClassifierConfig, log *logger.Logger) *Classifier {
	return &Classifier{
		config: config,
		logger: log,
	}
}

// Classify never fails: any internal error degrades to {Session: unknown, Mode: normal}.
func (c *Classifier) Classify(table *contracts.Table, threshold float64) (result contracts.MarketClassification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithError(fmt.Errorf("%v", r)).Warn("Market classification failed, falling back to normal")
			result = unknownClassification()
		}
	}()

	if table.IsEmpty() || !table.Has(contracts.FieldGain) {
		c.logger.WithFields(map[string]interface{}{
			"rows":     table.Len(),
			"has_gain": table.Has(contracts.FieldGain),
		}).Warn("No gain data, market environment unknown")
		return unknownClassification()
	}

	gains := make([]float64, 0, table.Len())
	up := 0
	for _, g := range table.Column(contracts.FieldGain) {
		if !g.Valid {
			continue
		}
		gains = append(gains, g.Value)
		if g.Value > 0 {
			up++
		}
	}

	if len(gains) == 0 {
		c.logger.Info("Gain column empty, market not open yet")
		return contracts.MarketClassification{
			Session:      contracts.SessionPreOpen,
			Mode:         contracts.ModeNormal,
			BreadthRatio: preOpenBreadth,
			IsFavorable:  true,
			Recommended:  contracts.ModeNormal,
		}
	}

	breadth := float64(up) / float64(len(gains))
	mean, std := meanStd(gains)
	mode := c.regime(breadth, mean, std)

	result = contracts.MarketClassification{
		Session:      contracts.SessionOpen,
		Mode:         mode,
		BreadthRatio: breadth,
		IsFavorable:  breadth > threshold,
		ValidCount:   len(gains),
		MeanGain:     mean,
		GainStdDev:   std,
		Recommended:  mode,
	}

	c.logger.WithFields(map[string]interface{}{
		"breadth":   breadth,
		"favorable": result.IsFavorable,
		"mean_gain": mean,
		"std_dev":   std,
		"mode":      mode,
	}).Info("Market environment classified")

	return result
}

// regime applies bull → bear → volatile → normal in that order
func (c *Classifier) regime(breadth, mean, std float64) contracts.MarketMode {
	switch {
	case breadth > c.config.BullBreadth && mean > c.config.BullMeanGain:
		return contracts.ModeBull
	case breadth < c.config.BearBreadth && mean < c.config.BearMeanGain:
		return contracts.ModeBear
	case std > c.config.VolatileStdDev:
		return contracts.ModeVolatile
	default:
		return contracts.ModeNormal
	}
}

func unknownClassification() contracts.MarketClassification {
	return contracts.MarketClassification{
		Session:     contracts.SessionUnknown,
		Mode:        contracts.ModeNormal,
		Recommended: contracts.ModeNormal,
	}
}

// meanStd returns the mean and the sample standard deviation (0 for fewer than two values)
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}

	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
