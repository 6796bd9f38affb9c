package enrichment

import (
	"context"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Enricher annotates a selection and computes the final score
// ⭐ SSOT: 선정 이후 AI 보강/최종 점수는 여기서만
type Enricher struct {
	annotator contracts.Annotator
	weights   FinalWeights
	logger    *logger.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(annotator contracts.Annotator, weights FinalWeights, log *logger.Logger) *Enricher {
	return &Enricher{
		annotator: annotator,
		weights:   weights,
		logger:    log.Component("enrichment"),
	}
}

// Provider names the annotator in use
func (e *Enricher) Provider() string {
	return e.annotator.Name()
}

// Enrich merges annotations into the selection and orders it by final score.
// An annotator error other than cancellation leaves every AI score at 0.
func (e *Enricher) Enrich(ctx context.Context, selection []contracts.ScoredRecord) ([]contracts.EnrichedRecord, error) {
	if len(selection) == 0 {
		return []contracts.EnrichedRecord{}, nil
	}

	refs := make([]contracts.SecurityRef, len(selection))
	for i := range selection {
		refs[i] = selection[i].Ref()
	}

	annotations, err := e.annotator.Annotate(ctx, refs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.WithFields(map[string]interface{}{
			"provider": e.annotator.Name(),
			"error":    err.Error(),
		}).Warn("Annotation failed, continuing without AI scores")
		annotations = nil
	}

	for _, r := range selection {
		if _, ok := annotations[r.Code]; !ok {
			e.logger.WithField("code", r.Code).Warn("No annotation for security")
		}
	}

	enriched := FinalScore(Merge(selection, annotations), e.weights)

	e.logger.WithFields(map[string]interface{}{
		"provider": e.annotator.Name(),
		"count":    len(enriched),
	}).Info("Enrichment completed")

	return enriched, nil
}
