package strategyconfig

import (
	"github.com/wonny/itrading/internal/enrichment"
	"github.com/wonny/itrading/internal/selection"
)

// Config는 종목 선정 전략의 전체 설정
// 비어 있는 섹션은 내장 기본값을 그대로 사용 (YAML은 기본값 위에 덮어씀)
type Config struct {
	Meta       Meta                                 `yaml:"meta" json:"meta"`
	Selection  Selection                            `yaml:"selection" json:"selection"`
	Profile    selection.ProfileOverride            `yaml:"profile" json:"profile"`
	Modes      map[string]selection.ProfileOverride `yaml:"modes" json:"modes,omitempty"`
	Classifier Classifier                           `yaml:"classifier" json:"classifier"`
	Risk       *selection.RiskRules                 `yaml:"risk" json:"risk,omitempty"`
	Scoring    *selection.WeightConfig              `yaml:"scoring" json:"scoring,omitempty"`
	Industry   map[string]float64                   `yaml:"industry_weights" json:"industry_weights,omitempty"`
	Enrichment Enrichment                           `yaml:"enrichment" json:"enrichment"`
	Calendar   Calendar                             `yaml:"calendar" json:"calendar"`
	Sources    Sources                              `yaml:"sources" json:"sources"`
	Schedule   Schedule                             `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Selection 실행 옵션
type Selection struct {
	MaxStocks    int     `yaml:"max_stocks" json:"max_stocks"`         // 0 = 기본값 8
	Advanced     bool    `yaml:"advanced" json:"advanced"`             // 리스크/기술적 필터 포함
	AutoAdjust   bool    `yaml:"auto_adjust" json:"auto_adjust"`       // 시장 판단 후 모드 재선택
	Mode         string  `yaml:"mode" json:"mode"`                     // normal, bull, bear, volatile
	LimitUpGuard float64 `yaml:"limit_up_guard" json:"limit_up_guard"` // 0 = 기본값 9.5
}

// Classifier 시장 판단 임계값 (nil = 기본값)
type Classifier struct {
	BullBreadth    *float64 `yaml:"bull_breadth" json:"bull_breadth,omitempty"`
	BullMeanGain   *float64 `yaml:"bull_mean_gain" json:"bull_mean_gain,omitempty"`
	BearBreadth    *float64 `yaml:"bear_breadth" json:"bear_breadth,omitempty"`
	BearMeanGain   *float64 `yaml:"bear_mean_gain" json:"bear_mean_gain,omitempty"`
	VolatileStdDev *float64 `yaml:"volatile_std_dev" json:"volatile_std_dev,omitempty"`
}

// Enrichment AI 보강 설정
type Enrichment struct {
	Enabled  bool                     `yaml:"enabled" json:"enabled"`
	Provider string                   `yaml:"provider" json:"provider"` // auto, gemini, rule
	Weights  *enrichment.FinalWeights `yaml:"weights" json:"weights,omitempty"`
}

// Calendar 휴장일
type Calendar struct {
	Holidays      []string `yaml:"holidays" json:"holidays,omitempty"`             // 지정 시 기본 목록 대체
	ExtraHolidays []string `yaml:"extra_holidays" json:"extra_holidays,omitempty"` // 기본 목록에 추가
}

// Sources 시세 소스
type Sources struct {
	Order   []string            `yaml:"order" json:"order,omitempty"`
	Aliases map[string][]string `yaml:"aliases" json:"aliases,omitempty"` // field → 추가 컬럼명
}

// Schedule 스케줄러 cron (초 포함 6필드)
type Schedule struct {
	PreOpen string `yaml:"pre_open" json:"pre_open"`
	Open    string `yaml:"open" json:"open"`
}

// Enrichment providers
const (
	ProviderAuto   = "auto"
	ProviderGemini = "gemini"
	ProviderRule   = "rule"
)

// Default schedule specs
const (
	DefaultPreOpenSchedule = "0 26 9 * * 1-5"
	DefaultOpenSchedule    = "0 0 10 * * 1-5"
)

// Default returns a config that resolves to the built-in settings
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "a_share_picker",
			Version:    "1.0.0",
		},
		Selection: Selection{
			MaxStocks:  selection.DefaultMaxStocks,
			Advanced:   true,
			AutoAdjust: true,
			Mode:       "normal",
		},
		Enrichment: Enrichment{
			Enabled:  true,
			Provider: ProviderAuto,
		},
		Schedule: Schedule{
			PreOpen: DefaultPreOpenSchedule,
			Open:    DefaultOpenSchedule,
		},
	}
}
