package selection

import (
	"fmt"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Reasons a criteria pass could not screen. An Outcome with an empty Reason
// screened normally, even when zero rows qualified.
const (
	ReasonNoInput        = "no_input"
	ReasonMissingColumns = "missing_columns"
	ReasonNoPriceData    = "no_price_data"
	ReasonNoValidRows    = "no_valid_rows"
	ReasonNoPrevClose    = "no_prev_close"
	ReasonRecovered      = "recovered"
)

// neutral values for optional factors that are unset before the open
const (
	neutralGain        = 0.0
	neutralVolumeRatio = 1.0
	neutralTurnover    = 0.0
)

// Outcome is the tagged result of a criteria pass
type Outcome struct {
	Table      *contracts.Table
	Reason     string
	PriceField contracts.Field
	MarketOpen bool
}

// OK reports a pass that screened (possibly down to zero rows)
func (o Outcome) OK() bool {
	return o.Reason == ""
}

func emptyOutcome(reason string) Outcome {
	return Outcome{Table: contracts.NewTable(), Reason: reason}
}

// CriteriaFilter applies the profile's range constraints.
// When the session is open the full six-factor screen runs; otherwise only
// market cap, price and PE > 0 are checked.
// ⭐ SSOT: 선정 기준 필터는 여기서만
type CriteriaFilter struct {
	logger *logger.Logger
}

// NewCriteriaFilter creates a new criteria filter
func NewCriteriaFilter(log *logger.Logger) *CriteriaFilter {
	return &CriteriaFilter{logger: log}
}

// Apply never returns an error: every "cannot screen" path is a tagged Outcome
func (f *CriteriaFilter) Apply(table *contracts.Table, profile Profile) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.WithError(fmt.Errorf("%v", r)).Error("Criteria filter failed")
			outcome = emptyOutcome(ReasonRecovered)
		}
	}()

	if table.IsEmpty() {
		f.logger.Warn("Criteria filter input is empty")
		return emptyOutcome(ReasonNoInput)
	}

	if !table.Has(contracts.FieldFloatMarketCap) || !table.Has(contracts.FieldPE) {
		f.logger.WithFields(map[string]interface{}{
			"has_market_cap": table.Has(contracts.FieldFloatMarketCap),
			"has_pe":         table.Has(contracts.FieldPE),
		}).Warn("Required columns missing, cannot screen")
		return emptyOutcome(ReasonMissingColumns)
	}

	priceField, ok := choosePriceField(table)
	if !ok {
		f.logger.Warn("No usable price column, cannot screen")
		return emptyOutcome(ReasonNoPriceData)
	}

	marketOpen := priceField == contracts.FieldPrice
	backfill := !marketOpen && priceField != contracts.FieldPrevClose
	if backfill && !table.Has(contracts.FieldPrevClose) {
		f.logger.WithField("price_field", priceField).Warn("No previous close outside the session, cannot screen")
		return emptyOutcome(ReasonNoPrevClose)
	}

	work := table.Clone()
	work.PriceField = priceField

	// 필수 컬럼(시총, PE, 가격) 결측 행은 제거. 가격 보정보다 먼저 적용
	work = work.Filter(func(r *contracts.SecurityRecord) bool {
		return r.FloatMarketCap.Valid && r.PE.Valid && r.Get(priceField).Valid
	})
	if work.IsEmpty() {
		f.logger.WithField("price_field", priceField).Warn("No rows with market cap, PE and price")
		return Outcome{Table: work, Reason: ReasonNoValidRows, PriceField: priceField, MarketOpen: marketOpen}
	}

	if backfill {
		for i := range work.Records {
			r := &work.Records[i]
			if !r.Get(priceField).Valid {
				r.Set(priceField, r.PrevClose)
			}
		}
	}

	fillNeutral(work)

	selected := work.Filter(func(r *contracts.SecurityRecord) bool {
		if !passesFundamentals(r, priceField, profile) {
			return false
		}
		if !marketOpen {
			return true
		}
		return passesTrading(r, profile)
	})

	f.logger.WithFields(map[string]interface{}{
		"total_input": table.Len(),
		"valid_rows":  work.Len(),
		"passed":      selected.Len(),
		"price_field": priceField,
		"market_open": marketOpen,
		"mode":        profile.Mode,
	}).Info("Criteria filter completed")

	return Outcome{Table: selected, PriceField: priceField, MarketOpen: marketOpen}
}

// choosePriceField picks the present price column with the most valid values;
// ties go to the earlier column in the preference order.
func choosePriceField(table *contracts.Table) (contracts.Field, bool) {
	best, bestCount := contracts.Field(""), 0
	for _, f := range contracts.PriceFields() {
		if n := table.ValidCount(f); n > bestCount {
			best, bestCount = f, n
		}
	}
	return best, bestCount > 0
}

// fillNeutral materializes gain, volume ratio and turnover with neutral values
// where they are missing, adding the columns when absent.
func fillNeutral(table *contracts.Table) {
	defaults := []struct {
		field contracts.Field
		value float64
	}{
		{contracts.FieldGain, neutralGain},
		{contracts.FieldVolumeRatio, neutralVolumeRatio},
		{contracts.FieldTurnover, neutralTurnover},
	}

	for _, d := range defaults {
		table.Fields[d.field] = true
		for i := range table.Records {
			if !table.Records[i].Get(d.field).Valid {
				table.Records[i].Set(d.field, contracts.Num(d.value))
			}
		}
	}
}

func passesFundamentals(r *contracts.SecurityRecord, priceField contracts.Field, p Profile) bool {
	return between(r.FloatMarketCap.Value, p.MinMarketCap, p.MaxMarketCap) &&
		between(r.Get(priceField).Value, p.MinPrice, p.MaxPrice) &&
		r.PE.Value > 0
}

func passesTrading(r *contracts.SecurityRecord, p Profile) bool {
	return between(r.Turnover.Value, p.MinTurnover, p.MaxTurnover) &&
		between(r.Gain.Value, p.MinGain, p.MaxGain) &&
		between(r.VolumeRatio.Value, p.MinVolumeRatio, p.MaxVolumeRatio)
}

// between is inclusive on both ends
func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
