// Package snapshot turns raw, source-specific market snapshots into the
// canonical contracts.Table every selection stage consumes.
package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/itrading/internal/contracts"
)

// Aliases maps a canonical field to its accepted column names, in priority order
type Aliases map[contracts.Field][]string

// DefaultAliases returns the column names seen across the supported data sources.
// The primary Chinese name always comes first so that a secondary alias never
// shadows a present primary column.
// ⭐ SSOT: 컬럼 별칭은 여기서만 정의
func DefaultAliases() Aliases {
	return Aliases{
		contracts.FieldCode:           {"代码", "code", "symbol"},
		contracts.FieldName:           {"名称", "name"},
		contracts.FieldPrice:          {"最新价", "price"},
		contracts.FieldLatest:         {"最新", "latest"},
		contracts.FieldPrevClose:      {"昨收", "prev_close", "pre_close"},
		contracts.FieldGain:           {"涨幅", "涨跌幅", "gain", "pct_chg"},
		contracts.FieldTurnover:       {"换手率", "turnover"},
		contracts.FieldVolumeRatio:    {"量比", "volume_ratio"},
		contracts.FieldFloatMarketCap: {"流通市值", "float_market_cap", "circ_mv"},
		contracts.FieldPE:             {"市盈率", "市盈率-动态", "pe", "pe_ttm"},
		contracts.FieldVolume:         {"成交量", "volume"},
		contracts.FieldAmount:         {"成交额", "amount"},
	}
}

// Merge returns a copy of a with the entries of extra prepended per field
func (a Aliases) Merge(extra Aliases) Aliases {
	out := make(Aliases, len(a))
	for f, names := range a {
		out[f] = append([]string(nil), names...)
	}
	for f, names := range extra {
		out[f] = append(append([]string(nil), names...), out[f]...)
	}
	return out
}

// Resolve maps a raw snapshot onto the canonical schema.
// For every field the first alias present among the snapshot's columns wins.
// Code and name are coerced to strings, every other field to an optional number.
func Resolve(s *contracts.MarketSnapshot, aliases Aliases) *contracts.Table {
	table := contracts.NewTable()
	if s == nil {
		return table
	}
	table.Source = s.Source

	present := make(map[string]bool)
	for _, c := range s.ColumnNames() {
		present[c] = true
	}

	columns := make(map[contracts.Field]string)
	for f, names := range aliases {
		for _, name := range names {
			if present[name] {
				columns[f] = name
				table.Fields[f] = true
				break
			}
		}
	}

	table.Records = make([]contracts.SecurityRecord, 0, len(s.Rows))
	for _, row := range s.Rows {
		var rec contracts.SecurityRecord
		if col, ok := columns[contracts.FieldCode]; ok {
			rec.Code = FormatCode(row[col])
		}
		if col, ok := columns[contracts.FieldName]; ok {
			rec.Name = FormatText(row[col])
		}
		for _, f := range contracts.NumericFields() {
			if col, ok := columns[f]; ok {
				rec.Set(f, ParseNumber(row[col]))
			}
		}
		table.Records = append(table.Records, rec)
	}

	return table
}

// ParseNumber coerces a raw cell. Non-parseable values become missing.
// Strings may carry thousands separators or a trailing "%".
func ParseNumber(v any) contracts.Number {
	switch x := v.(type) {
	case nil:
		return contracts.Missing
	case float64:
		return contracts.Num(x)
	case float32:
		return contracts.Num(float64(x))
	case int:
		return contracts.Num(float64(x))
	case int32:
		return contracts.Num(float64(x))
	case int64:
		return contracts.Num(float64(x))
	case uint:
		return contracts.Num(float64(x))
	case uint32:
		return contracts.Num(float64(x))
	case uint64:
		return contracts.Num(float64(x))
	case json.Number:
		return parseNumberString(x.String())
	case string:
		return parseNumberString(x)
	case contracts.Number:
		return x
	default:
		return contracts.Missing
	}
}

func parseNumberString(s string) contracts.Number {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	switch strings.ToLower(s) {
	case "", "-", "--", "nan", "null", "none":
		return contracts.Missing
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return contracts.Missing
	}
	return contracts.Num(v)
}

// FormatCode renders an identifier as a string; whole numbers lose their fraction
func FormatCode(v any) string {
	switch x := v.(type) {
	case float64:
		if !math.IsNaN(x) && !math.IsInf(x, 0) && x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
	case float32:
		return FormatCode(float64(x))
	}
	return FormatText(v)
}

// FormatText renders any cell as a trimmed string (nil becomes "")
func FormatText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
