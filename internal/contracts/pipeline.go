package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 통계, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   Fetch → Classify → Gate → Risk → (Technical) → Criteria → (Industry) → Rank → Truncate
//   괄호 단계는 advanced 모드에서만 실행

// Stage represents a selection pipeline stage
type Stage string

const (
	// StageFetch: 스냅샷 수집
	// 책임: 데이터 소스 fallback, 캐시
	// 위치: internal/marketdata/
	StageFetch Stage = "FETCH"

	// StageClassify: 시장 환경 분류
	// 책임: 상승 비율, 모드 판정, auto-adjust
	// 위치: internal/selection/classifier.go
	StageClassify Stage = "CLASSIFY"

	// StageGate: 시장 환경 게이트
	// 책임: 비우호적 시장이면 조기 종료
	StageGate Stage = "GATE"

	// StageRiskFilter: 위험 종목 제외 (ST, 신규상장, 상장폐지)
	// 위치: internal/selection/risk.go
	StageRiskFilter Stage = "RISK_FILTER"

	// StageTechnicalFilter: 상한가 근접 종목 제외 (advanced)
	// 위치: internal/selection/technical.go
	StageTechnicalFilter Stage = "TECHNICAL_FILTER"

	// StageCriteriaFilter: 시총/가격/회전율/등락률/량비 필터
	// 위치: internal/selection/criteria.go
	StageCriteriaFilter Stage = "CRITERIA_FILTER"

	// StageIndustryFilter: 업종 필터 (advanced, 현재 identity)
	// 위치: internal/selection/industry.go
	StageIndustryFilter Stage = "INDUSTRY_FILTER"

	// StageRank: 종합 점수/리스크 조정 점수 산출
	// 위치: internal/selection/scoring.go
	StageRank Stage = "RANK"

	// StageTruncate: max_stocks 만큼 절단
	StageTruncate Stage = "TRUNCATE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageFetch:
		return "스냅샷 수집"
	case StageClassify:
		return "시장 환경 분류"
	case StageGate:
		return "시장 환경 게이트"
	case StageRiskFilter:
		return "위험 종목 제외"
	case StageTechnicalFilter:
		return "기술적 필터"
	case StageCriteriaFilter:
		return "선정 기준 필터"
	case StageIndustryFilter:
		return "업종 필터"
	case StageRank:
		return "종합 점수/순위"
	case StageTruncate:
		return "최종 절단"
	default:
		return "알 수 없음"
	}
}

// AdvancedOnly reports whether the stage runs only in the advanced pipeline
func (s Stage) AdvancedOnly() bool {
	return s == StageTechnicalFilter || s == StageIndustryFilter
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageFetch,
		StageClassify,
		StageGate,
		StageRiskFilter,
		StageTechnicalFilter,
		StageCriteriaFilter,
		StageIndustryFilter,
		StageRank,
		StageTruncate,
	}
}

// StagesFor returns the stages executed by the basic or advanced pipeline
func StagesFor(advanced bool) []Stage {
	stages := make([]Stage, 0, len(AllStages()))
	for _, s := range AllStages() {
		if s.AdvancedOnly() && !advanced {
			continue
		}
		stages = append(stages, s)
	}
	return stages
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records the row counts of one executed stage
type StageResult struct {
	Stage       Stage  `json:"stage"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Skipped     bool   `json:"skipped,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
