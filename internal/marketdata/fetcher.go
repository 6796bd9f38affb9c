package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
	"github.com/wonny/itrading/pkg/redis"
)

// ErrAllSourcesFailed is returned when no source produced a non-empty snapshot
var ErrAllSourcesFailed = errors.New("all market data sources failed")

// Fetcher walks the configured sources in order until one returns data
// ⭐ SSOT: 시세 스냅샷 조회는 이 Fetcher 를 통해서만
type Fetcher struct {
	sources  []contracts.SnapshotSource
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

// NewFetcher creates a fetcher over sources (tried in slice order)
func NewFetcher(sources []contracts.SnapshotSource, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *Fetcher {
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLSnapshot
	}
	return &Fetcher{
		sources:  sources,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.Component("marketdata"),
		now:      time.Now,
	}
}

// Sources returns the source names in fallback order
func (f *Fetcher) Sources() []string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return names
}

// Fetch returns the first non-empty snapshot for date (zero date = current session).
// A cached snapshot for the same trade date is reused within the cache TTL.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) (*contracts.MarketSnapshot, error) {
	tradeDate := f.tradeDate(date)
	key := redis.SnapshotKey(tradeDate, "any")

	if f.cache != nil {
		var cached contracts.MarketSnapshot
		found, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			f.logger.WithError(err).Warn("Snapshot cache read failed")
		} else if found && cached.Len() > 0 {
			f.logger.WithFields(map[string]interface{}{
				"trade_date": tradeDate,
				"source":     cached.Source,
			}).Debug("Snapshot cache hit")
			return &cached, nil
		}
	}

	var failures []string
	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := src.Fetch(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.WithFields(map[string]interface{}{
				"source": src.Name(),
				"error":  err.Error(),
			}).Warn("Source failed, trying next")
			failures = append(failures, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		if snap.Len() == 0 {
			f.logger.WithField("source", src.Name()).Warn("Source returned empty snapshot, trying next")
			failures = append(failures, fmt.Sprintf("%s: empty snapshot", src.Name()))
			continue
		}

		if snap.Source == "" {
			snap.Source = src.Name()
		}

		f.logger.WithFields(map[string]interface{}{
			"trade_date": tradeDate,
			"source":     snap.Source,
			"rows":       snap.Len(),
		}).Info("Snapshot fetched")

		if f.cache != nil {
			if err := f.cache.Set(ctx, key, snap, f.cacheTTL); err != nil {
				f.logger.WithError(err).Warn("Snapshot cache write failed")
			}
		}
		return snap, nil
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", ErrAllSourcesFailed)
	}
	return nil, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(failures, "; "))
}

func (f *Fetcher) tradeDate(date time.Time) string {
	if date.IsZero() {
		date = f.now()
	}
	return calendar.FormatTradeDate(date.In(calendar.Shanghai()))
}
