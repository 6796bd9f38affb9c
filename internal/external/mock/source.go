package mock

import (
	"context"
	"math"
	"time"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Columns of the demo snapshot
var Columns = []string{
	"代码", "名称", "昨收", "最新", "最高", "最低", "今开",
	"涨幅", "换手率", "市盈率", "成交量", "成交额", "量比", "总市值", "流通市值",
}

// 데모 종목: 代码, 名称, 昨收, 最新, 最高, 最低, 今开, (涨幅 계산), 换手率, 市盈率, 成交量, 成交额, 量比, 总市值, 流通市值
var demoStocks = []struct {
	code, name                     string
	prevClose, latest, high, low   float64
	open, turnover, pe             float64
	volume, amount, volumeRatio    float64
	totalMarketCap, floatMarketCap float64
}{
	{"000001", "平安银行", 12.50, 12.60, 12.80, 12.30, 12.45, 1.2, 8.5, 1000000, 1.26e9, 12.34, 5.2e10, 4.8e10},
	{"000002", "万科A", 18.20, 18.50, 18.65, 18.10, 18.15, 0.9, 12.3, 800000, 1.48e9, 18.12, 2.1e11, 1.95e11},
	{"000858", "五粮液", 165.30, 168.20, 170.00, 164.50, 166.80, 1.5, 22.1, 500000, 8.41e9, 163.45, 6.5e11, 6.2e11},
	{"600036", "招商银行", 45.80, 46.20, 46.50, 45.60, 45.95, 1.1, 9.2, 300000, 1.38e9, 45.75, 1.8e12, 1.7e12},
	{"600519", "贵州茅台", 1680.50, 1705.30, 1720.00, 1675.20, 1690.80, 2.1, 35.8, 100000, 1.71e10, 1672.40, 2.1e12, 2.0e12},
	{"002594", "比亚迪", 280.40, 285.60, 290.00, 278.50, 282.30, 1.8, 18.6, 600000, 1.71e9, 277.80, 8.2e11, 7.8e11},
	{"002415", "海康威视", 35.60, 36.20, 36.80, 35.40, 35.85, 1.3, 15.2, 400000, 1.45e9, 35.45, 3.4e11, 3.2e11},
	{"300059", "东方财富", 18.90, 19.20, 19.50, 18.70, 19.10, 2.1, 28.5, 2000000, 3.84e9, 18.75, 2.9e11, 2.8e11},
	{"600050", "中国联通", 5.80, 5.90, 6.00, 5.75, 5.85, 1.4, 18.9, 1500000, 8.85e8, 5.75, 1.8e11, 1.7e11},
	{"601318", "中国平安", 62.30, 63.50, 64.00, 62.00, 62.80, 1.0, 11.8, 800000, 5.08e9, 62.15, 1.1e12, 1.0e12},
}

// Source serves a fixed ten-row snapshot. It is the last entry of the fallback
// chain so a run always has data to work with in demos and tests.
type Source struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewSource creates the demo source
func NewSource(log *logger.Logger) *Source {
	return &Source{
		logger: log.Component("mock_source"),
		now:    time.Now,
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "mock"
}

// Fetch returns the demo snapshot for any date.
// 涨幅 is derived from 最新 and 昨收, rounded to two decimals.
func (s *Source) Fetch(ctx context.Context, date time.Time) (*contracts.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(demoStocks))
	for _, d := range demoStocks {
		gain := math.Round((d.latest-d.prevClose)/d.prevClose*100*100) / 100
		rows = append(rows, map[string]any{
			"代码":   d.code,
			"名称":   d.name,
			"昨收":   d.prevClose,
			"最新":   d.latest,
			"最高":   d.high,
			"最低":   d.low,
			"今开":   d.open,
			"涨幅":   gain,
			"换手率":  d.turnover,
			"市盈率":  d.pe,
			"成交量":  d.volume,
			"成交额":  d.amount,
			"量比":   d.volumeRatio,
			"总市值":  d.totalMarketCap,
			"流通市值": d.floatMarketCap,
		})
	}

	s.logger.WithField("rows", len(rows)).Warn("Serving demo snapshot")

	return &contracts.MarketSnapshot{
		Date:      date,
		Source:    s.Name(),
		Columns:   append([]string(nil), Columns...),
		Rows:      rows,
		FetchedAt: s.now(),
	}, nil
}
