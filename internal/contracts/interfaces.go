package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrLiveOnly is returned by a source asked for a date it cannot serve
// (spot-quote sources only know the current session)
var ErrLiveOnly = errors.New("source serves the current session only")

// SnapshotSource fetches one market snapshot
// ⭐ SSOT: 시세 데이터 소스 인터페이스
type SnapshotSource interface {
	Name() string
	Fetch(ctx context.Context, date time.Time) (*MarketSnapshot, error)
}

// Annotator returns qualitative annotations keyed by security code
// ⭐ SSOT: AI/규칙 기반 보강 인터페이스
type Annotator interface {
	Name() string
	Annotate(ctx context.Context, refs []SecurityRef) (map[string]Annotation, error)
}

// RunStore persists selection runs
// ⭐ SSOT: 선정 결과 저장소 인터페이스
type RunStore interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	LatestRun(ctx context.Context) (*RunRecord, error)
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
}

// StoreHealth is implemented by run stores that can report connectivity
type StoreHealth interface {
	Health(ctx context.Context) (map[string]interface{}, error)
}
