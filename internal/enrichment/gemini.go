package enrichment

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/logger"
	"github.com/wonny/itrading/pkg/redis"
)

// ErrNoAPIKey is returned when the Gemini annotator is built without a key
var ErrNoAPIKey = errors.New("gemini api key not configured")

const systemInstruction = `你是一位资深的A股分析师。根据给出的选股数据，对该股票给出 0-100 的评分、
操作建议 (buy, hold, sell) 以及不超过 200 字的中文分析。
只返回 JSON: {"score": number, "recommendation": "buy|hold|sell", "analysis": "..."}`

// generateFunc sends one prompt and returns the raw model text
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiAnnotator asks Gemini for a score and a short analysis per security.
// Calls are throttled, cached per input hash, and fall back to rules on failure.
type GeminiAnnotator struct {
	generate generateFunc
	model    string
	limiter  *rate.Limiter
	cache    *redis.Cache
	cacheTTL time.Duration
	fallback *RuleAnnotator
	logger   *logger.Logger
}

// NewGeminiAnnotator creates a Gemini-backed annotator
func NewGeminiAnnotator(ctx context.Context, cfg config.GeminiConfig, cache *redis.Cache, log *logger.Logger) (*GeminiAnnotator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.3)),
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}, genConfig)
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if text == "" {
			return "", errors.New("empty response from gemini")
		}
		return text, nil
	}

	return newGeminiAnnotator(generate, cfg, cache, log), nil
}

func newGeminiAnnotator(generate generateFunc, cfg config.GeminiConfig, cache *redis.Cache, log *logger.Logger) *GeminiAnnotator {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = redis.TTLAnalysis
	}

	return &GeminiAnnotator{
		generate: generate,
		model:    cfg.Model,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		cache:    cache,
		cacheTTL: ttl,
		fallback: NewRuleAnnotator(log),
		logger:   log.Component("gemini"),
	}
}

// Name returns the provider name
func (a *GeminiAnnotator) Name() string {
	return "gemini"
}

// Annotate returns one annotation per ref. Per-security failures fall back to
// the rule annotator; only a cancelled context is returned as an error.
func (a *GeminiAnnotator) Annotate(ctx context.Context, refs []contracts.SecurityRef) (map[string]contracts.Annotation, error) {
	out := make(map[string]contracts.Annotation, len(refs))
	var cached, called, fellBack int

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		key := redis.AnalysisKey(ref.Code, dataHash(ref))
		var hit contracts.Annotation
		if ok, err := a.cache.Get(ctx, key, &hit); err == nil && ok {
			out[ref.Code] = hit
			cached++
			continue
		}

		var cooling int64
		if ok, _ := a.cache.Get(ctx, redis.CooldownKey(ref.Code), &cooling); ok {
			out[ref.Code] = a.fallback.annotate(ref)
			fellBack++
			continue
		}

		if err := a.limiter.Wait(ctx); err != nil {
			return out, err
		}

		ann, err := a.annotate(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			a.logger.WithFields(map[string]interface{}{
				"code":  ref.Code,
				"error": err.Error(),
			}).Warn("Gemini annotation failed, using rules")

			_ = a.cache.Set(ctx, redis.CooldownKey(ref.Code), time.Now().Unix(), redis.TTLCooldown)
			out[ref.Code] = a.fallback.annotate(ref)
			fellBack++
			continue
		}

		if err := a.cache.Set(ctx, key, ann, a.cacheTTL); err != nil {
			a.logger.WithError(err).Warn("Failed to cache annotation")
		}
		out[ref.Code] = ann
		called++
	}

	a.logger.WithFields(map[string]interface{}{
		"requested": len(refs),
		"cached":    cached,
		"called":    called,
		"fallback":  fellBack,
	}).Info("Gemini annotation completed")

	return out, nil
}

type geminiReply struct {
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation"`
	Analysis       string  `json:"analysis"`
}

func (a *GeminiAnnotator) annotate(ctx context.Context, ref contracts.SecurityRef) (contracts.Annotation, error) {
	text, err := a.generate(ctx, buildPrompt(ref))
	if err != nil {
		return contracts.Annotation{}, fmt.Errorf("generate content: %w", err)
	}
	return parseReply(text, a.Name())
}

func buildPrompt(ref contracts.SecurityRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "股票: %s (%s)\n", ref.Name, ref.Code)
	fmt.Fprintf(&b, "综合得分: %.4f\n", ref.CompositeScore)
	fmt.Fprintf(&b, "排序得分: %.4f\n", ref.RankingScore)
	writeNumber(&b, "涨幅(%)", ref.Gain, 2)
	writeNumber(&b, "换手率(%)", ref.Turnover, 2)
	writeNumber(&b, "市盈率", ref.PE, 2)
	if ref.FloatMarketCap.Valid {
		fmt.Fprintf(&b, "流通市值(亿): %.1f\n", ref.FloatMarketCap.Value/1e8)
	}
	return b.String()
}

func writeNumber(b *strings.Builder, label string, n contracts.Number, prec int) {
	if !n.Valid {
		fmt.Fprintf(b, "%s: -\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %.*f\n", label, prec, n.Value)
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// parseReply decodes the model's JSON, tolerating markdown fences
func parseReply(text, provider string) (contracts.Annotation, error) {
	s := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}

	var reply geminiReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return contracts.Annotation{}, fmt.Errorf("failed to parse reply: %w", err)
	}

	score := clip01(reply.Score/100) * 100
	rec := contracts.Recommendation(strings.ToLower(strings.TrimSpace(reply.Recommendation)))
	switch rec {
	case contracts.RecommendBuy, contracts.RecommendHold, contracts.RecommendSell:
	default:
		rec = RecommendationFor(score)
	}

	return contracts.Annotation{
		Score:          score,
		Recommendation: rec,
		Analysis:       strings.TrimSpace(reply.Analysis),
		Provider:       provider,
	}, nil
}

// dataHash fingerprints the inputs so a changed snapshot misses the cache
func dataHash(ref contracts.SecurityRef) string {
	data, _ := json.Marshal(ref)
	sum := md5.Sum(data)
	return fmt.Sprintf("%x", sum[:8])
}
