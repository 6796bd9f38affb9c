package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/itrading/internal/contracts"
)

// ErrUnknownMode is returned for a market mode outside normal/bull/bear/volatile
var ErrUnknownMode = errors.New("unknown market mode")

// ParseMode accepts the short names and the long forms (bull_market, ...)
func ParseMode(s string) (contracts.MarketMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "_market")
	switch contracts.MarketMode(name) {
	case "":
		return contracts.ModeNormal, nil
	case contracts.ModeNormal, contracts.ModeBull, contracts.ModeBear, contracts.ModeVolatile:
		return contracts.MarketMode(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Profile is the set of numeric bounds one selection run screens with.
// It is a value: resolving a mode returns a fresh copy, nothing mutates it in place.
type Profile struct {
	Mode            contracts.MarketMode `json:"mode"`
	MinMarketCap    float64              `json:"min_market_cap"` // 유통 시가총액 (위안)
	MaxMarketCap    float64              `json:"max_market_cap"`
	MinPrice        float64              `json:"min_price"` // 위안
	MaxPrice        float64              `json:"max_price"`
	MinTurnover     float64              `json:"min_turnover"` // %
	MaxTurnover     float64              `json:"max_turnover"`
	MinGain         float64              `json:"min_gain"` // %
	MaxGain         float64              `json:"max_gain"`
	MinVolumeRatio  float64              `json:"min_volume_ratio"`
	MaxVolumeRatio  float64              `json:"max_volume_ratio"`
	MarketThreshold float64              `json:"market_threshold"` // 상승 종목 비율 기준
}

// ProfileOverride replaces only the bounds that are set
type ProfileOverride struct {
	MinMarketCap    *float64 `json:"min_market_cap,omitempty" yaml:"min_market_cap"`
	MaxMarketCap    *float64 `json:"max_market_cap,omitempty" yaml:"max_market_cap"`
	MinPrice        *float64 `json:"min_price,omitempty" yaml:"min_price"`
	MaxPrice        *float64 `json:"max_price,omitempty" yaml:"max_price"`
	MinTurnover     *float64 `json:"min_turnover,omitempty" yaml:"min_turnover"`
	MaxTurnover     *float64 `json:"max_turnover,omitempty" yaml:"max_turnover"`
	MinGain         *float64 `json:"min_gain,omitempty" yaml:"min_gain"`
	MaxGain         *float64 `json:"max_gain,omitempty" yaml:"max_gain"`
	MinVolumeRatio  *float64 `json:"min_volume_ratio,omitempty" yaml:"min_volume_ratio"`
	MaxVolumeRatio  *float64 `json:"max_volume_ratio,omitempty" yaml:"max_volume_ratio"`
	MarketThreshold *float64 `json:"market_threshold,omitempty" yaml:"market_threshold"`
}

// Apply returns base with the set fields replaced
func (o ProfileOverride) Apply(base Profile) Profile {
	out := base
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.MinMarketCap, o.MinMarketCap)
	set(&out.MaxMarketCap, o.MaxMarketCap)
	set(&out.MinPrice, o.MinPrice)
	set(&out.MaxPrice, o.MaxPrice)
	set(&out.MinTurnover, o.MinTurnover)
	set(&out.MaxTurnover, o.MaxTurnover)
	set(&out.MinGain, o.MinGain)
	set(&out.MaxGain, o.MaxGain)
	set(&out.MinVolumeRatio, o.MinVolumeRatio)
	set(&out.MaxVolumeRatio, o.MaxVolumeRatio)
	set(&out.MarketThreshold, o.MarketThreshold)
	return out
}

// ProfileSet holds the base profile and the per-mode overrides
// ⭐ SSOT: 모드별 파라미터 조정은 여기서만
type ProfileSet struct {
	Base      Profile
	Overrides map[contracts.MarketMode]ProfileOverride
}

// Resolve overlays the mode's override onto the base profile
func (ps ProfileSet) Resolve(mode contracts.MarketMode) (Profile, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return Profile{}, err
	}

	profile := ps.Base
	if o, ok := ps.Overrides[mode]; ok {
		profile = o.Apply(ps.Base)
	}
	profile.Mode = mode
	return profile, nil
}

func ptr(v float64) *float64 { return &v }

// DefaultProfileSet returns the built-in bounds
// SSOT: config/strategy/a_share_picker.yaml profile / modes
func DefaultProfileSet() ProfileSet {
	return ProfileSet{
		Base: Profile{
			Mode:            contracts.ModeNormal,
			MinMarketCap:    3e9,    // 30억 위안
			MaxMarketCap:    1.5e10, // 150억 위안
			MinPrice:        5,
			MaxPrice:        50,
			MinTurnover:     3,
			MaxTurnover:     15,
			MinGain:         1,
			MaxGain:         7,
			MinVolumeRatio:  1.5,
			MaxVolumeRatio:  5,
			MarketThreshold: 0.5,
		},
		Overrides: map[contracts.MarketMode]ProfileOverride{
			contracts.ModeBull: {
				MaxGain:      ptr(10),
				MaxTurnover:  ptr(20),
				MinMarketCap: ptr(2e9),
			},
			contracts.ModeBear: {
				MaxGain:      ptr(5),
				MaxTurnover:  ptr(10),
				MinMarketCap: ptr(5e9),
			},
			contracts.ModeVolatile: {
				MinGain:        ptr(0.5),
				MaxGain:        ptr(6),
				MinVolumeRatio: ptr(1.2),
			},
		},
	}
}
