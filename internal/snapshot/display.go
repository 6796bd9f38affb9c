package snapshot

import (
	"strconv"

	"github.com/wonny/itrading/internal/contracts"
)

// DisplayColumns is the column set shown to the operator and written to CSV
var DisplayColumns = []string{"代码", "名称", "最新", "涨幅", "换手率", "量比", "流通市值"}

// DisplayPrice returns the price shown in the 最新 column:
// the chosen price field first, then the preference order.
func DisplayPrice(r *contracts.SecurityRecord, priceField contracts.Field) contracts.Number {
	if priceField != "" {
		if n := r.Get(priceField); n.Valid {
			return n
		}
	}
	for _, f := range contracts.PriceFields() {
		if n := r.Get(f); n.Valid {
			return n
		}
	}
	return contracts.Missing
}

// Columns renders records as display rows under DisplayColumns.
// Missing numbers are rendered as "-".
func Columns(records []contracts.SecurityRecord, priceField contracts.Field) (header []string, rows [][]string) {
	header = append([]string(nil), DisplayColumns...)
	rows = make([][]string, 0, len(records))
	for i := range records {
		r := &records[i]
		rows = append(rows, []string{
			r.Code,
			r.Name,
			formatNumber(DisplayPrice(r, priceField), 2),
			formatNumber(r.Gain, 2),
			formatNumber(r.Turnover, 2),
			formatNumber(r.VolumeRatio, 2),
			formatNumber(r.FloatMarketCap, 0),
		})
	}
	return header, rows
}

func formatNumber(n contracts.Number, prec int) string {
	if !n.Valid {
		return "-"
	}
	return strconv.FormatFloat(n.Value, 'f', prec, 64)
}
