package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/textutil"
)

// FilePrefix is the stem of every generated report file.
const FilePrefix = "dealer-report"

type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormats reads a --fmt value: csv, html or both.
func ParseFormats(value string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return []Format{FormatCSV}, nil
	case "html":
		return []Format{FormatHTML}, nil
	case "both", "":
		return []Format{FormatCSV, FormatHTML}, nil
	}
	return nil, fmt.Errorf("unknown report format %q, expected csv, html or both", value)
}

// FileName is the name of the report of `date`, for example
// dealer-report-20250314.html.
func FileName(date time.Time, format Format) string {
	return fmt.Sprintf("%s-%s.%s", FilePrefix, date.Format("20060102"), format)
}

// Report is a set of analyses ready to be rendered.
type Report struct {
	Date time.Time
	Rows []crawlstatus.Analysis
	// Total is the number of retailers analyzed, before filtering.
	Total int
}

type Options struct {
	Date time.Time
	// IncludeSuccesses keeps retailers that need no attention (Success and
	// N/A) in the rows.
	IncludeSuccesses bool
}

// New orders the analyses worst global status first, then by retailer name.
func New(analyses []crawlstatus.Analysis, opts Options) Report {
	rows := make([]crawlstatus.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if !opts.IncludeSuccesses && (a.Global == crawlstatus.Success || a.Global == crawlstatus.NA) {
			continue
		}
		rows = append(rows, a)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Global != rows[j].Global {
			return rows[i].Global > rows[j].Global
		}
		return textutil.NormalizeName(rows[i].Retailer) < textutil.NormalizeName(rows[j].Retailer)
	})
	return Report{
		Date:  opts.Date,
		Rows:  rows,
		Total: len(analyses),
	}
}

type StatusCount struct {
	Status crawlstatus.Status
	Count  int
}

// Summary counts the rows per global status, most severe first. Statuses
// with no row are included with a count of 0.
func (r Report) Summary() []StatusCount {
	counts := map[crawlstatus.Status]int{}
	for _, row := range r.Rows {
		counts[row.Global]++
	}
	statuses := crawlstatus.Statuses()
	out := make([]StatusCount, 0, len(statuses))
	for i := len(statuses) - 1; i >= 0; i-- {
		out = append(out, StatusCount{Status: statuses[i], Count: counts[statuses[i]]})
	}
	return out
}

// Worst is the most severe global status of the report.
func (r Report) Worst() crawlstatus.Status {
	statuses := make([]crawlstatus.Status, len(r.Rows))
	for i, row := range r.Rows {
		statuses[i] = row.Global
	}
	return crawlstatus.Worst(statuses...)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ";")
}

// formatAverage renders the average with one decimal, or "" when the metric
// had no reading at all.
func formatAverage(m crawlstatus.MetricAnalysis) string {
	if len(m.Coherent) == 0 {
		return ""
	}
	return strconv.FormatFloat(m.Average, 'f', 1, 64)
}
