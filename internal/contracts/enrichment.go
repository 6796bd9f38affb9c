package contracts

// SecurityRef is the contract boundary handed to enrichment:
// identifiers plus the numbers an annotator may reason about.
type SecurityRef struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	CompositeScore float64 `json:"composite_score"`
	RankingScore   float64 `json:"ranking_score"`
	Gain           Number  `json:"gain"`
	Turnover       Number  `json:"turnover"`
	PE             Number  `json:"pe"`
	FloatMarketCap Number  `json:"float_market_cap"`
}

// Recommendation is the annotator's qualitative verdict
type Recommendation string

const (
	RecommendBuy  Recommendation = "buy"
	RecommendHold Recommendation = "hold"
	RecommendSell Recommendation = "sell"
)

// Annotation is the per-security enrichment result
type Annotation struct {
	Score          float64        `json:"score"` // 0-100
	Recommendation Recommendation `json:"recommendation"`
	Analysis       string         `json:"analysis"`
	Provider       string         `json:"provider,omitempty"`
}

// EnrichedRecord is a selected record merged with its annotation and final score
type EnrichedRecord struct {
	ScoredRecord
	AIScore        float64        `json:"ai_score"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Analysis       string         `json:"ai_analysis"`
	FinalScore     float64        `json:"final_score"` // 0-100
	FinalRank      int            `json:"final_rank"`
}
