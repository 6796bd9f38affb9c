package marketdata

import (
	"fmt"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/external/eastmoney"
	"github.com/wonny/itrading/internal/external/mock"
	"github.com/wonny/itrading/internal/external/quotepage"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/httputil"
	"github.com/wonny/itrading/pkg/logger"
	"github.com/wonny/itrading/pkg/redis"
)

// Source names accepted in the fallback order
const (
	SourceEastmoney = "eastmoney"
	SourceQuotePage = "quotepage"
	SourceMock      = "mock"
)

// KnownSources lists every buildable source name
func KnownSources() []string {
	return []string{SourceEastmoney, SourceQuotePage, SourceMock}
}

// BuildSources creates the sources named in order.
// Remote sources share the Redis sliding-window limiter when Redis is enabled.
func BuildSources(order []string, cfg *config.Config, rdb *redis.Client, log *logger.Logger) ([]contracts.SnapshotSource, error) {
	var limiter *redis.RateLimiter
	if rdb != nil && rdb.Enabled() {
		limiter = redis.NewRateLimiter(rdb, "picker:ratelimit")
	}

	sources := make([]contracts.SnapshotSource, 0, len(order))
	for _, name := range order {
		switch name {
		case SourceEastmoney:
			// push2 는 Referer 없는 요청을 간헐적으로 거부
			client := httputil.New(log).WithHeader("Referer", "https://quote.eastmoney.com/")
			if limiter != nil {
				client = client.WithRateLimiter(limiter, redis.EastmoneyRateLimit)
			}
			sources = append(sources, eastmoney.NewClient(client, cfg.Sources.EastmoneyBaseURL, log))
		case SourceQuotePage:
			if cfg.Sources.QuotePageURL == "" {
				log.WithField("source", name).Warn("Quote page URL not set, source skipped")
				continue
			}
			client := httputil.New(log)
			if limiter != nil {
				client = client.WithRateLimiter(limiter, redis.QuotePageRateLimit)
			}
			sources = append(sources, quotepage.NewClient(client, cfg.Sources.QuotePageURL, log))
		case SourceMock:
			sources = append(sources, mock.NewSource(log))
		default:
			return nil, fmt.Errorf("unknown market data source: %s", name)
		}
	}

	return sources, nil
}
