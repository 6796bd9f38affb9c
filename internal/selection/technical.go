package selection

import (
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// DefaultLimitUpGuard keeps stocks too close to the 10% daily limit out of the selection
const DefaultLimitUpGuard = 9.5

// TechnicalFilter drops rows whose gain is at or above the limit-up guard
type TechnicalFilter struct {
	limit  float64
	logger *logger.Logger
}

// NewTechnicalFilter creates a new technical filter
func NewTechnicalFilter(limit float64, log *logger.Logger) *TechnicalFilter {
	if limit <= 0 {
		limit = DefaultLimitUpGuard
	}
	return &TechnicalFilter{
		limit:  limit,
		logger: log,
	}
}

// Apply passes the table through unchanged when no gain value exists (pre-open);
// otherwise it keeps rows with a valid gain below the limit.
func (f *TechnicalFilter) Apply(table *contracts.Table) *contracts.Table {
	if table.ValidCount(contracts.FieldGain) == 0 {
		f.logger.WithField("rows", table.Len()).Info("No gain data, technical filter skipped")
		return table.Clone()
	}

	kept := table.Filter(func(r *contracts.SecurityRecord) bool {
		return r.Gain.Valid && r.Gain.Value < f.limit
	})

	f.logger.WithFields(map[string]interface{}{
		"total_input": table.Len(),
		"passed":      kept.Len(),
		"limit":       f.limit,
	}).Info("Technical filter completed")

	return kept
}
