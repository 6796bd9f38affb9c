package recorder

import (
	"context"

	"github.com/wonny/itrading/internal/contracts"
)

// Noop discards every run. Used when STORE_DRIVER=none.
type Noop struct{}

func (Noop) SaveRun(ctx context.Context, run *contracts.RunRecord) error { return nil }

func (Noop) LatestRun(ctx context.Context) (*contracts.RunRecord, error) {
	return nil, contracts.ErrRunNotFound
}

func (Noop) GetRun(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	return nil, contracts.ErrRunNotFound
}
