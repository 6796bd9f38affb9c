package contracts

import (
	"sort"
	"time"
)

// MarketSnapshot is the raw table returned by a data source
// ⭐ SSOT: 데이터 소스 → 파이프라인 전달 형식
type MarketSnapshot struct {
	Date      time.Time        `json:"date"`
	Source    string           `json:"source"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Len returns the number of rows (0 for nil)
func (s *MarketSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// ColumnNames returns the declared columns, or the union of row keys (sorted)
// when the source did not declare any.
func (s *MarketSnapshot) ColumnNames() []string {
	if s == nil {
		return nil
	}
	if len(s.Columns) > 0 {
		return s.Columns
	}

	seen := make(map[string]bool)
	var cols []string
	for _, row := range s.Rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// MarketMode is the detected market regime
type MarketMode string

const (
	ModeNormal   MarketMode = "normal"
	ModeBull     MarketMode = "bull"
	ModeBear     MarketMode = "bear"
	ModeVolatile MarketMode = "volatile"
)

// AllModes returns every market mode
func AllModes() []MarketMode {
	return []MarketMode{ModeNormal, ModeBull, ModeBear, ModeVolatile}
}

// SessionState tells whether the snapshot carries live session data
type SessionState string

const (
	SessionUnknown SessionState = "unknown"  // gain 컬럼 없음, 빈 스냅샷, 분류 실패
	SessionPreOpen SessionState = "pre_open" // gain 컬럼은 있으나 값이 전부 결측
	SessionOpen    SessionState = "open"
)

// MarketClassification is derived once per run from the snapshot
type MarketClassification struct {
	Session      SessionState `json:"session"`
	Mode         MarketMode   `json:"mode"`
	BreadthRatio float64      `json:"breadth_ratio"` // pre_open 이면 0.5 (sentinel)
	IsFavorable  bool         `json:"is_favorable"`
	ValidCount   int          `json:"valid_count"`
	MeanGain     float64      `json:"mean_gain"`
	GainStdDev   float64      `json:"gain_std_dev"`
	Recommended  MarketMode   `json:"recommended"`
}

// IsOpen reports a live session
func (c MarketClassification) IsOpen() bool {
	return c.Session == SessionOpen
}

// IsPreOpen reports the pre-open sentinel case
func (c MarketClassification) IsPreOpen() bool {
	return c.Session == SessionPreOpen
}
