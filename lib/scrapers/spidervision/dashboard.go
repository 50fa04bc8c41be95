package spidervision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// a dashboard row carries at least: id, dealer, crawled, failed, total, and
// one or more percentage columns
const minDashboardCells = 6

var (
	headerKeywords = []string{"dealer", "store", "crawl", "domain"}
	percentRegex   = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)\s*%`)
)

// DashboardRow is one line of the dashboard table.
type DashboardRow struct {
	Id            string
	Name          string
	StoresCrawled int
	StoresFailed  int
	StoresTotal   int
	Progress      *float64
	Success       *float64
}

func (r DashboardRow) Record() crawlstatus.Record {
	return crawlstatus.Record{
		Name: r.Name,
		Current: crawlstatus.DaySnapshot{
			Progress:       r.Progress,
			SuccessPercent: r.Success,
		},
		HistoryUnavailable: true,
	}
}

// Dashboard fetches an html dashboard page and parses its retailer table.
// It is the fallback when the overview endpoint is unavailable.
func (c *Client) Dashboard(ctx context.Context, path string) ([]DashboardRow, error) {
	ctx, span := tracer.Start(ctx, "client:Dashboard")
	defer span.End()

	req := c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "text/html").
		SetDoNotParseResponse(true)
	if c.Authenticated() {
		req.SetAuthToken(c.token)
	}
	res, err := req.Get(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dashboard")
		return nil, err
	}
	body := res.RawBody()
	defer body.Close()
	if res.IsError() {
		span.SetStatus(codes.Error, "unexpected dashboard status")
		return nil, fmt.Errorf("dashboard: unexpected status %s", res.Status())
	}

	rows, err := ParseDashboardTable(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse dashboard")
		return nil, err
	}
	return rows, nil
}

// ParseDashboardTable reads every table whose header mentions a dealer,
// store, crawl or domain column.
func ParseDashboardTable(r io.Reader) ([]DashboardRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []DashboardRow
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		var headers []string
		rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(htmlutil.SelectionText(cell)))
		})
		joined := strings.Join(headers, " ")
		relevant := false
		for _, keyword := range headerKeywords {
			if strings.Contains(joined, keyword) {
				relevant = true
				break
			}
		}
		if !relevant {
			return
		}
		slog.Debug("found dashboard table", "headers", headers)

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, htmlutil.SelectionText(cell))
			})
			if len(cells) < minDashboardCells {
				return
			}
			out = append(out, parseDashboardRow(cells))
		})
	})
	return out, nil
}

func parseDashboardRow(cells []string) DashboardRow {
	row := DashboardRow{
		Id:            cells[0],
		Name:          cells[1],
		StoresCrawled: extractNumber(cells[2]),
		StoresFailed:  extractNumber(cells[3]),
		StoresTotal:   extractNumber(cells[4]),
	}

	// the success column reads like "97.5% on 120 stores", sometimes with
	// the percentage in the previous cell. any other percentage is progress.
	for i := 5; i < len(cells); i++ {
		text := strings.ToLower(cells[i])
		mentionsStores := strings.Contains(text, "on") && strings.Contains(text, "stores")
		percent := extractPercent(text)
		switch {
		case percent != nil && mentionsStores:
			row.Success = percent
		case percent != nil && row.Progress == nil:
			row.Progress = percent
		case percent == nil && mentionsStores:
			if previous := extractPercent(cells[i-1]); previous != nil {
				row.Success = previous
				if row.Progress != nil && *row.Progress == *previous {
					row.Progress = nil
				}
			}
		}
	}
	return row
}

var numberRegex = regexp.MustCompile(`\d+`)

func extractNumber(text string) int {
	match := numberRegex.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

func extractPercent(text string) *float64 {
	groups := percentRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", "."), 64)
	if err != nil || f < 0 || f > 100 {
		return nil
	}
	return &f
}
