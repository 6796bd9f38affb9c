package contracts

import (
	"encoding/json"
	"math"
)

// Number is an optional numeric cell. Missing values never take part in arithmetic.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number. NaN and ±Inf are treated as missing.
func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Missing is the zero Number
var Missing = Number{}

// Or returns the value, or def when missing
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// MarshalJSON writes missing values as null
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a number
func (n *Number) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*n = Number{}
		return nil
	}
	*n = Num(*v)
	return nil
}

// Field is a canonical column of the selection schema
// ⭐ SSOT: 데이터 소스별 컬럼명은 snapshot 패키지의 alias 로 이 필드에 매핑
type Field string

const (
	FieldCode           Field = "code"
	FieldName           Field = "name"
	FieldPrice          Field = "price"      // 소스 컬럼 "最新价", 실시간 1순위
	FieldLatest         Field = "latest"     // 소스 컬럼 "最新", 실시간 2순위
	FieldPrevClose      Field = "prev_close" // 소스 컬럼 "昨收", 전일 종가
	FieldGain           Field = "gain"       // 소스 컬럼 "涨幅", 등락률 (%)
	FieldTurnover       Field = "turnover"   // 소스 컬럼 "换手率", 회전율 (%)
	FieldVolumeRatio    Field = "volume_ratio"
	FieldFloatMarketCap Field = "float_market_cap"
	FieldPE             Field = "pe"
	FieldVolume         Field = "volume"
	FieldAmount         Field = "amount"
)

// NumericFields lists every numeric field in canonical order
func NumericFields() []Field {
	return []Field{
		FieldPrice, FieldLatest, FieldPrevClose,
		FieldGain, FieldTurnover, FieldVolumeRatio,
		FieldFloatMarketCap, FieldPE, FieldVolume, FieldAmount,
	}
}

// PriceFields is the price preference order: real-time primary, real-time secondary, previous close
func PriceFields() []Field {
	return []Field{FieldPrice, FieldLatest, FieldPrevClose}
}

// SecurityRecord is one row of a resolved snapshot.
// Code and Name are always strings, every other field is optional.
type SecurityRecord struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Price          Number `json:"price"`
	Latest         Number `json:"latest"`
	PrevClose      Number `json:"prev_close"`
	Gain           Number `json:"gain"`
	Turnover       Number `json:"turnover"`
	VolumeRatio    Number `json:"volume_ratio"`
	FloatMarketCap Number `json:"float_market_cap"`
	PE             Number `json:"pe"`
	Volume         Number `json:"volume"`
	Amount         Number `json:"amount"`
}

// Get returns the numeric value of f (Missing for code/name)
func (r *SecurityRecord) Get(f Field) Number {
	if p := r.slot(f); p != nil {
		return *p
	}
	return Missing
}

// Set assigns a numeric field; code/name are ignored
func (r *SecurityRecord) Set(f Field, n Number) {
	if p := r.slot(f); p != nil {
		*p = n
	}
}

func (r *SecurityRecord) slot(f Field) *Number {
	switch f {
	case FieldPrice:
		return &r.Price
	case FieldLatest:
		return &r.Latest
	case FieldPrevClose:
		return &r.PrevClose
	case FieldGain:
		return &r.Gain
	case FieldTurnover:
		return &r.Turnover
	case FieldVolumeRatio:
		return &r.VolumeRatio
	case FieldFloatMarketCap:
		return &r.FloatMarketCap
	case FieldPE:
		return &r.PE
	case FieldVolume:
		return &r.Volume
	case FieldAmount:
		return &r.Amount
	default:
		return nil
	}
}

// Table is the canonical, alias-resolved snapshot every stage consumes.
// Column presence (Has) is tracked separately from "every value missing".
type Table struct {
	Source     string           `json:"source,omitempty"`
	Fields     map[Field]bool   `json:"fields"`
	Records    []SecurityRecord `json:"records"`
	PriceField Field            `json:"price_field,omitempty"` // criteria 필터가 선택한 가격 컬럼
}

// NewTable creates an empty table declaring the given columns
func NewTable(fields ...Field) *Table {
	t := &Table{Fields: make(map[Field]bool, len(fields))}
	for _, f := range fields {
		t.Fields[f] = true
	}
	return t
}

// Has reports whether the column exists
func (t *Table) Has(f Field) bool {
	return t != nil && t.Fields[f]
}

// Len returns the number of rows (0 for nil)
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// IsEmpty reports a nil or row-less table
func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// Column returns the values of f in row order
func (t *Table) Column(f Field) []Number {
	out := make([]Number, t.Len())
	for i := range out {
		out[i] = t.Records[i].Get(f)
	}
	return out
}

// ValidCount counts the non-missing values of f
func (t *Table) ValidCount(f Field) int {
	if !t.Has(f) {
		return 0
	}
	n := 0
	for i := range t.Records {
		if t.Records[i].Get(f).Valid {
			n++
		}
	}
	return n
}

// Clone deep-copies the table so stages never mutate their input
func (t *Table) Clone() *Table {
	if t == nil {
		return NewTable()
	}
	out := &Table{
		Source:     t.Source,
		Fields:     make(map[Field]bool, len(t.Fields)),
		Records:    make([]SecurityRecord, len(t.Records)),
		PriceField: t.PriceField,
	}
	for f, ok := range t.Fields {
		out.Fields[f] = ok
	}
	copy(out.Records, t.Records)
	return out
}

// Filter returns a copy keeping the rows for which keep returns true
func (t *Table) Filter(keep func(r *SecurityRecord) bool) *Table {
	out := t.Clone()
	out.Records = out.Records[:0]
	for i := range t.Records {
		if keep(&t.Records[i]) {
			out.Records = append(out.Records, t.Records[i])
		}
	}
	return out
}

// Codes returns the security codes in row order
func (t *Table) Codes() []string {
	codes := make([]string, t.Len())
	for i := range codes {
		codes[i] = t.Records[i].Code
	}
	return codes
}
