package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/httputil"
	"github.com/wonny/itrading/pkg/logger"
)

const (
	// DefaultBaseURL is the push2 quote API host
	DefaultBaseURL = "https://push2.eastmoney.com"

	defaultPageSize = 500
	defaultMaxPages = 20

	// A주 전체: 선전 메인보드, 창업판, 상하이 메인보드, 과창판, 베이징거래소
	marketFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"
)

// fieldColumn maps an f-code of the clist API to the snapshot column it fills
type fieldColumn struct {
	code   string
	column string
}

// columns lists the requested f-codes in display order
var columns = []fieldColumn{
	{"f12", "代码"},
	{"f14", "名称"},
	{"f2", "最新价"},
	{"f3", "涨跌幅"},
	{"f8", "换手率"},
	{"f10", "量比"},
	{"f9", "市盈率-动态"},
	{"f21", "流通市值"},
	{"f18", "昨收"},
	{"f5", "成交量"},
	{"f6", "成交额"},
}

// Client fetches the A-share spot list from Eastmoney
// ⭐ SSOT: Eastmoney API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	pageSize   int
	maxPages   int
	now        func() time.Time
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("eastmoney"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
		now:        time.Now,
	}
}

// Name returns the source name
func (c *Client) Name() string {
	return "eastmoney"
}

// clistResponse is the envelope of /api/qt/clist/get
type clistResponse struct {
	RC   int `json:"rc"`
	Data *struct {
		Total int              `json:"total"`
		Diff  []map[string]any `json:"diff"`
	} `json:"data"`
}

// Fetch pages through the spot list. Only the current session is available.
func (c *Client) Fetch(ctx context.Context, date time.Time) (*contracts.MarketSnapshot, error) {
	loc := calendar.Shanghai()
	if !date.IsZero() {
		day := calendar.FormatTradeDate(date.In(loc))
		if day < calendar.FormatTradeDate(c.now().In(loc)) {
			return nil, fmt.Errorf("eastmoney %s: %w", day, contracts.ErrLiveOnly)
		}
	}

	snap := &contracts.MarketSnapshot{
		Date:      date,
		Source:    c.Name(),
		Columns:   columnNames(),
		FetchedAt: c.now(),
	}

	for page := 1; page <= c.maxPages; page++ {
		var resp clistResponse
		if err := c.httpClient.GetJSON(ctx, c.pageURL(page), &resp); err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if resp.RC != 0 {
			return nil, fmt.Errorf("eastmoney returned rc=%d", resp.RC)
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, item := range resp.Data.Diff {
			snap.Rows = append(snap.Rows, mapRow(item))
		}

		if len(snap.Rows) >= resp.Data.Total {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"rows": len(snap.Rows),
	}).Debug("Fetched spot list")

	return snap, nil
}

func (c *Client) pageURL(page int) string {
	codes := make([]string, len(columns))
	for i, fc := range columns {
		codes[i] = fc.code
	}

	params := url.Values{}
	params.Set("pn", strconv.Itoa(page))
	params.Set("pz", strconv.Itoa(c.pageSize))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f3")
	params.Set("fs", marketFilter)
	params.Set("fields", strings.Join(codes, ","))

	return fmt.Sprintf("%s/api/qt/clist/get?%s", c.baseURL, params.Encode())
}

// mapRow renames f-codes to columns; "-" cells are kept and parse as missing
func mapRow(item map[string]any) map[string]any {
	row := make(map[string]any, len(columns))
	for _, fc := range columns {
		v, ok := item[fc.code]
		if !ok {
			continue
		}
		row[fc.column] = v
	}
	return row
}

func columnNames() []string {
	out := make([]string, len(columns))
	for i, fc := range columns {
		out[i] = fc.column
	}
	return out
}
