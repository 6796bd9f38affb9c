package strategyconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/robfig/cron/v3"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/internal/snapshot"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// maxStocksLimit caps max_stocks so enrichment stays affordable
const maxStocksLimit = 100

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Selection ===
	if cfg.Selection.MaxStocks < 0 || cfg.Selection.MaxStocks > maxStocksLimit {
		return ValidationError{"selection.max_stocks", fmt.Sprintf("must be in [0, %d]", maxStocksLimit)}
	}
	if _, err := selection.ParseMode(cfg.Selection.Mode); err != nil {
		return ValidationError{"selection.mode", err.Error()}
	}
	if cfg.Selection.LimitUpGuard < 0 || cfg.Selection.LimitUpGuard > 20 {
		return ValidationError{"selection.limit_up_guard", "must be in [0, 20]"}
	}

	// === Profiles ===
	profiles, err := cfg.ProfileSet()
	if err != nil {
		return err
	}
	for _, mode := range contracts.AllModes() {
		p, err := profiles.Resolve(mode)
		if err != nil {
			return ValidationError{"modes." + string(mode), err.Error()}
		}
		if err := validateProfile(p); err != nil {
			return err
		}
	}

	// === Classifier ===
	cc := cfg.ClassifierConfig()
	if err := validatePctRange(cc.BullBreadth, "classifier.bull_breadth"); err != nil {
		return err
	}
	if err := validatePctRange(cc.BearBreadth, "classifier.bear_breadth"); err != nil {
		return err
	}
	if cc.BearBreadth >= cc.BullBreadth {
		return ValidationError{"classifier", "bear_breadth must be < bull_breadth"}
	}
	if cc.BearMeanGain >= cc.BullMeanGain {
		return ValidationError{"classifier", "bear_mean_gain must be < bull_mean_gain"}
	}
	if cc.VolatileStdDev <= 0 {
		return ValidationError{"classifier.volatile_std_dev", "must be > 0"}
	}

	// === Risk ===
	if r := cfg.Risk; r != nil {
		if len(r.NamePrefixes)+len(r.NameContains)+len(r.CodePrefixes)+len(r.CodeContains) == 0 {
			return ValidationError{"risk", "at least one rule required"}
		}
	}

	// === Scoring ===
	if w := cfg.Scoring; w != nil {
		if err := validateWeightsSum([]float64{w.VolumeRatio, w.Turnover, w.Gain}, 1.0, 1e-6); err != nil {
			return ValidationError{"scoring.volume_ratio+turnover+gain", err.Error()}
		}
		if err := validateWeightsSum([]float64{w.MarketCap, w.PE}, 1.0, 1e-6); err != nil {
			return ValidationError{"scoring.market_cap+pe", err.Error()}
		}
		if err := validateWeightsSum([]float64{w.RiskVolatility, w.RiskValuation, w.RiskLiquidity}, 1.0, 1e-6); err != nil {
			return ValidationError{"scoring.risk_*", err.Error()}
		}
		if w.TurnoverRiskScale <= 0 {
			return ValidationError{"scoring.turnover_risk_scale", "must be > 0"}
		}
	}

	// === Industry ===
	for sector, weight := range cfg.Industry {
		if weight < 0 {
			return ValidationError{"industry_weights." + sector, "must be >= 0"}
		}
	}

	// === Enrichment ===
	switch cfg.Enrichment.Provider {
	case ProviderAuto, ProviderGemini, ProviderRule:
	default:
		return ValidationError{"enrichment.provider", "must be one of: auto, gemini, rule"}
	}
	if w := cfg.Enrichment.Weights; w != nil {
		err := validateWeightsSum([]float64{w.MarketCap, w.Composite, w.Risk, w.RiskAdjusted, w.AI}, 1.0, 1e-6)
		if err != nil {
			return ValidationError{"enrichment.weights", err.Error()}
		}
	}

	// === Calendar ===
	for i, h := range append(append([]string(nil), cfg.Calendar.Holidays...), cfg.Calendar.ExtraHolidays...) {
		if _, err := calendar.ParseTradeDate(h); err != nil {
			return ValidationError{fmt.Sprintf("calendar.holidays[%d]", i), err.Error()}
		}
	}

	// === Sources ===
	seen := make(map[string]bool, len(cfg.Sources.Order))
	for i, name := range cfg.Sources.Order {
		if name == "" {
			return ValidationError{fmt.Sprintf("sources.order[%d]", i), "must not be empty"}
		}
		if seen[name] {
			return ValidationError{fmt.Sprintf("sources.order[%d]", i), fmt.Sprintf("duplicate source %q", name)}
		}
		seen[name] = true
	}
	known := snapshot.DefaultAliases()
	for field, names := range cfg.Sources.Aliases {
		if _, ok := known[contracts.Field(field)]; !ok {
			return ValidationError{"sources.aliases." + field, "unknown field"}
		}
		if len(names) == 0 {
			return ValidationError{"sources.aliases." + field, "must not be empty"}
		}
	}

	// === Schedule ===
	if err := validateCron(cfg.Schedule.PreOpen); err != nil {
		return ValidationError{"schedule.pre_open", err.Error()}
	}
	if err := validateCron(cfg.Schedule.Open); err != nil {
		return ValidationError{"schedule.open", err.Error()}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Selection.MaxStocks > 20 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_SELECTION",
			Message: "max_stocks > 20: AI 분석 호출 수 증가",
		})
	}

	if !cfg.Selection.Advanced {
		warnings = append(warnings, Warning{
			Code:    "BASIC_PIPELINE",
			Message: "advanced=false: 상한가 근접 종목 제외/리스크 조정 미적용",
		})
	}

	if cfg.Selection.LimitUpGuard >= 10 {
		warnings = append(warnings, Warning{
			Code:    "LIMIT_UP_PASSES",
			Message: "limit_up_guard >= 10%: 상한가 종목이 걸러지지 않음",
		})
	}

	if profiles, err := cfg.ProfileSet(); err == nil && profiles.Base.MarketThreshold < 0.3 {
		warnings = append(warnings, Warning{
			Code:    "LOW_MARKET_THRESHOLD",
			Message: "market_threshold < 0.3: 약세장에서도 선정 진행",
		})
	}

	if len(cfg.Calendar.Holidays) > 0 {
		warnings = append(warnings, Warning{
			Code:    "HOLIDAYS_REPLACED",
			Message: "calendar.holidays 지정: 내장 휴장일 목록 대신 사용",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateProfile(p selection.Profile) error {
	field := func(name string) string {
		return fmt.Sprintf("modes.%s.%s", p.Mode, name)
	}
	pairs := []struct {
		name     string
		min, max float64
	}{
		{"market_cap", p.MinMarketCap, p.MaxMarketCap},
		{"price", p.MinPrice, p.MaxPrice},
		{"turnover", p.MinTurnover, p.MaxTurnover},
		{"gain", p.MinGain, p.MaxGain},
		{"volume_ratio", p.MinVolumeRatio, p.MaxVolumeRatio},
	}
	for _, pair := range pairs {
		if pair.min > pair.max {
			return ValidationError{field(pair.name), fmt.Sprintf("min %.4g > max %.4g", pair.min, pair.max)}
		}
	}
	if p.MinMarketCap < 0 || p.MinPrice < 0 || p.MinTurnover < 0 || p.MinVolumeRatio < 0 {
		return ValidationError{field("bounds"), "market cap, price, turnover and volume ratio must be >= 0"}
	}
	return validatePctRange(p.MarketThreshold, field("market_threshold"))
}

func validateCron(spec string) error {
	if spec == "" {
		return errors.New("required")
	}
	_, err := cronParser.Parse(spec)
	return err
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return errors.New("weights must be >= 0")
		}
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
