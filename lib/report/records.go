package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"time"

	"spidervision-report/lib/crawlstatus"

	"github.com/jedib0t/go-pretty/v6/table"
)

// OverviewFileName is the name of a raw overview export.
func OverviewFileName(date time.Time, format Format) string {
	return fmt.Sprintf("spidervision-overview-%s.%s", date.Format("20060102"), format)
}

func recordHeader() []string {
	header := []string{"retailer", "crawl_progress", "crawl_success_progress"}
	for i := 0; i < crawlstatus.DayCount; i++ {
		header = append(header, fmt.Sprintf("day%d", i))
	}
	return header
}

func recordCells(record crawlstatus.Record) []string {
	cells := []string{record.Name, formatOptional(record.Current.Progress), formatOptional(record.Current.SuccessPercent)}
	for i := 0; i < crawlstatus.DayCount; i++ {
		day := ""
		if i < len(record.Days) {
			day = record.Days[i]
		}
		cells = append(cells, day)
	}
	return cells
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatNumber(*f)
}

// WriteRecordsCSV exports overview records as they were fetched, before any
// analysis.
func WriteRecordsCSV(w io.Writer, records []crawlstatus.Record) error {
	writer := csv.NewWriter(w)
	err := writer.Write(recordHeader())
	if err != nil {
		return err
	}
	for _, record := range records {
		err = writer.Write(recordCells(record))
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var recordsPageTemplate = template.Must(template.New("records").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #cbd2d9; padding: 0.3rem 0.6rem; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Count}} retailers</p>
{{.Table}}
</body>
</html>
`))

func WriteRecordsHTML(w io.Writer, date time.Time, records []crawlstatus.Record) error {
	t := table.NewWriter()
	header := table.Row{}
	for _, h := range recordHeader() {
		header = append(header, h)
	}
	t.AppendHeader(header)
	for _, record := range records {
		row := table.Row{}
		for _, cell := range recordCells(record) {
			row = append(row, cell)
		}
		t.AppendRow(row)
	}

	return recordsPageTemplate.Execute(w, struct {
		Title string
		Count int
		Table template.HTML
	}{
		Title: "Spider Vision overview " + date.Format("2006-01-02"),
		Count: len(records),
		Table: template.HTML(t.RenderHTML()),
	})
}
