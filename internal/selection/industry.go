package selection

import (
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// DefaultIndustryWeights is the sector rotation table carried in config.
// Snapshots do not carry a sector column yet, so no stage reads it.
func DefaultIndustryWeights() map[string]float64 {
	return map[string]float64{
		"technology": 1.0,
		"healthcare": 1.0,
		"consumer":   1.0,
		"finance":    0.8,
		"industrial": 0.9,
		"materials":  0.7,
		"energy":     0.6,
		"utilities":  0.5,
	}
}

// IndustryFilter is the industry stage of the advanced pipeline. It is currently
// the identity.
type IndustryFilter struct {
	weights map[string]float64
	logger  *logger.Logger
}

// NewIndustryFilter creates a new industry filter
func NewIndustryFilter(weights map[string]float64, log *logger.Logger) *IndustryFilter {
	return &IndustryFilter{
		weights: weights,
		logger:  log,
	}
}

// Apply returns a copy of the table
// TODO: weight rows by sector once a source provides an industry column
func (f *IndustryFilter) Apply(table *contracts.Table) *contracts.Table {
	f.logger.WithFields(map[string]interface{}{
		"rows":    table.Len(),
		"sectors": len(f.weights),
	}).Debug("Industry filter passed through")
	return table.Clone()
}
