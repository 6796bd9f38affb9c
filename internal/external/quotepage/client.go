package quotepage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/httputil"
	"github.com/wonny/itrading/pkg/logger"
)

// ErrNotConfigured is returned when no quote page URL is set
var ErrNotConfigured = errors.New("quote page url not configured")

// DefaultSelector picks the quote table on the page
const DefaultSelector = "table"

// Client scrapes an HTML quote table (one row per security, header row of column names)
// ⭐ SSOT: HTML 시세표 파싱은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	pageURL    string
	selector   string
	now        func() time.Time
}

// NewClient creates a new quote page client
func NewClient(httpClient *httputil.Client, pageURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("quotepage"),
		pageURL:    pageURL,
		selector:   DefaultSelector,
		now:        time.Now,
	}
}

// WithSelector overrides the table selector
func (c *Client) WithSelector(selector string) *Client {
	c.selector = selector
	return c
}

// Name returns the source name
func (c *Client) Name() string {
	return "quotepage"
}

// Fetch downloads and parses the quote page. Only the current session is available.
func (c *Client) Fetch(ctx context.Context, date time.Time) (*contracts.MarketSnapshot, error) {
	if c.pageURL == "" {
		return nil, ErrNotConfigured
	}

	loc := calendar.Shanghai()
	if !date.IsZero() {
		day := calendar.FormatTradeDate(date.In(loc))
		if day < calendar.FormatTradeDate(c.now().In(loc)) {
			return nil, fmt.Errorf("quotepage %s: %w", day, contracts.ErrLiveOnly)
		}
	}

	body, err := c.httpClient.GetText(ctx, c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	columns, rows, err := c.parseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"columns": len(columns),
		"rows":    len(rows),
	}).Debug("Fetched quote page")

	return &contracts.MarketSnapshot{
		Date:      date,
		Source:    c.Name(),
		Columns:   columns,
		Rows:      rows,
		FetchedAt: c.now(),
	}, nil
}

// parseHTML reads the header cells as column names and every body row as one record.
// Cell text is kept as-is; numeric coercion happens during schema resolution.
func (c *Client) parseHTML(body []byte) ([]string, []map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	table := doc.Find(c.selector).First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("no element matches %q", c.selector)
	}

	var columns []string
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		headers := row.Find("th")
		if headers.Length() == 0 {
			return true
		}
		headers.Each(func(j int, cell *goquery.Selection) {
			columns = append(columns, cleanText(cell.Text()))
		})
		return false
	})
	if len(columns) == 0 {
		return nil, nil, errors.New("header row not found")
	}

	rows := make([]map[string]any, 0)
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		record := make(map[string]any, len(columns))
		cells.Each(func(j int, cell *goquery.Selection) {
			if j >= len(columns) || columns[j] == "" {
				return
			}
			record[columns[j]] = cleanText(cell.Text())
		})
		rows = append(rows, record)
	})

	return columns, rows, nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}
