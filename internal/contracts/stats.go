package contracts

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned by a RunStore when no run matches
var ErrRunNotFound = errors.New("selection run not found")

// RunStatistics records row counts at every pipeline stage.
// Advanced-only counters are nil on the basic path.
type RunStatistics struct {
	RunID                string         `json:"run_id"`
	Source               string         `json:"source,omitempty"`
	TradeDate            string         `json:"trade_date,omitempty"`
	Advanced             bool           `json:"advanced"`
	TotalInput           int            `json:"total_input"`
	UpRatio              float64        `json:"up_ratio"`
	IsFavorable          bool           `json:"is_favorable"`
	MarketMode           MarketMode     `json:"market_mode"`
	Session              SessionState   `json:"session"`
	AfterRiskFilter      int            `json:"after_risk_filter"`
	AfterTechnicalFilter *int           `json:"after_technical_filter,omitempty"`
	AfterCriteriaFilter  int            `json:"after_criteria_filter"`
	AfterIndustryFilter  *int           `json:"after_industry_filter,omitempty"`
	FinalSelection       int            `json:"final_selection"`
	RiskExcluded         map[string]int `json:"risk_excluded,omitempty"`
	Reason               string         `json:"reason,omitempty"`
	Stages               []StageResult  `json:"stages,omitempty"`
	Timestamp            time.Time      `json:"timestamp"`
}

// Terminated reports a run that stopped before ranking
func (s *RunStatistics) Terminated() bool {
	return s.Reason != ""
}

// RunRecord is the persisted form of one selection run
type RunRecord struct {
	RunID      string           `json:"run_id"`
	TradeDate  string           `json:"trade_date"`
	Source     string           `json:"source"`
	Trigger    string           `json:"trigger"` // cli, api, scheduler
	ConfigHash string           `json:"config_hash,omitempty"`
	Stats      RunStatistics    `json:"stats"`
	Selection  []ScoredRecord   `json:"selection"`
	Enriched   []EnrichedRecord `json:"enriched,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
