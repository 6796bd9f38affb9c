package contracts

// ScoreFormula names the composite formula that produced a score
type ScoreFormula string

const (
	FormulaTrading ScoreFormula = "trading"  // 량비/회전율/등락률
	FormulaPreOpen ScoreFormula = "pre_open" // 시총(역)/PE 선호도
)

// ScoredRecord is a SecurityRecord plus derived scores
// ⭐ SSOT: 랭킹 결과 전달 (selection → enrichment/store/api)
type ScoredRecord struct {
	SecurityRecord
	Rank           int          `json:"rank"` // 1-based ranking
	Formula        ScoreFormula `json:"formula"`
	Factors        ScoreDetail  `json:"factors"`
	CompositeScore float64      `json:"composite_score"`
	Risk           *RiskDetail  `json:"risk,omitempty"` // advanced 경로에서만 채워짐
}

// ScoreDetail contains the normalized sub-scores behind the composite score
type ScoreDetail struct {
	VolumeRatio float64 `json:"volume_ratio,omitempty"`
	Turnover    float64 `json:"turnover,omitempty"`
	Gain        float64 `json:"gain,omitempty"`
	MarketCap   float64 `json:"market_cap,omitempty"` // 소형주일수록 높음
	PE          float64 `json:"pe,omitempty"`         // PE 선호도 테이블
}

// RiskDetail breaks down the advanced risk score
type RiskDetail struct {
	Volatility    float64 `json:"volatility"`
	Valuation     float64 `json:"valuation"`
	Liquidity     float64 `json:"liquidity"`
	Score         float64 `json:"score"`
	AdjustedScore float64 `json:"adjusted_score"` // composite × (1 − score)
}

// RankingScore is the key the selection is ordered by:
// the risk-adjusted score when present, else the composite score.
func (r *ScoredRecord) RankingScore() float64 {
	if r.Risk != nil {
		return r.Risk.AdjustedScore
	}
	return r.CompositeScore
}

// IsTopRanked checks if the stock is in top N ranks
func (r *ScoredRecord) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// Ref returns the identifier pair handed to enrichment
func (r *ScoredRecord) Ref() SecurityRef {
	return SecurityRef{
		Code:           r.Code,
		Name:           r.Name,
		CompositeScore: r.CompositeScore,
		RankingScore:   r.RankingScore(),
		Gain:           r.Gain,
		Turnover:       r.Turnover,
		PE:             r.PE,
		FloatMarketCap: r.FloatMarketCap,
	}
}
