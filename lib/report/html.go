package report

import (
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"spidervision-report/lib/crawlstatus"

	"github.com/jedib0t/go-pretty/v6/table"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Title   string
	Date    string
	Total   int
	Shown   int
	Worst   crawlstatus.Status
	Summary []StatusCount
	Legend  []legendEntry
	Table   template.HTML
}

type legendEntry struct {
	Status      crawlstatus.Status
	Description string
}

var legend = []legendEntry{
	{Status: crawlstatus.Success, Description: "at or above the threshold"},
	{Status: crawlstatus.Warning, Description: "within the warning band below the threshold"},
	{Status: crawlstatus.Error, Description: "below the warning band"},
	{Status: crawlstatus.CriticalError, Description: "at 0% for three days or more"},
	{Status: crawlstatus.NA, Description: "no rule configured for the retailer"},
}

func badge(s crawlstatus.Status) string {
	return fmt.Sprintf(
		`<span class="badge %s" data-status="%s">%s</span>`,
		s.Class(), s.Class(), html.EscapeString(s.String()),
	)
}

func progressBar(m crawlstatus.MetricAnalysis) string {
	if len(m.Coherent) == 0 {
		return `<span class="empty">no data</span>`
	}
	width := m.Average
	if width > 100 {
		width = 100
	}
	return fmt.Sprintf(
		`<div class="bar %s"><div class="fill" style="width: %.1f%%"></div><span>%s%%</span></div>`,
		m.Status.Class(), width, formatAverage(m),
	)
}

func history(m crawlstatus.MetricAnalysis) string {
	if len(m.Values) == 0 {
		return ""
	}
	coherent := map[float64]int{}
	for _, v := range m.Coherent {
		coherent[v]++
	}
	var out strings.Builder
	for _, v := range m.Values {
		class := "day"
		if coherent[v] > 0 {
			coherent[v]--
		} else {
			class += " outlier"
		}
		fmt.Fprintf(&out, `<span class="%s" title="%s%%">%s</span>`, class, formatNumber(v), formatNumber(v))
	}
	return out.String()
}

func (r Report) htmlTable() string {
	t := table.NewWriter()
	style := table.StyleDefault
	style.HTML.CSSClass = "dealer-report"
	style.HTML.EscapeText = false
	t.SetStyle(style)

	t.AppendHeader(table.Row{"Retailer", "Progress history", "Progress", "Success history", "Success", "Status"})
	for _, row := range r.Rows {
		t.AppendRow(table.Row{
			html.EscapeString(row.Retailer),
			history(row.Progress),
			progressBar(row.Progress) + badge(row.Progress.Status),
			history(row.Success),
			progressBar(row.Success) + badge(row.Success.Status),
			badge(row.Global),
		})
	}
	return t.RenderHTML()
}

func (r Report) WriteHTML(w io.Writer) error {
	return pageTemplate.Execute(w, pageData{
		Title:   "Dealer report " + r.Date.Format("2006-01-02"),
		Date:    r.Date.Format("02/01/2006 15:04"),
		Total:   r.Total,
		Shown:   len(r.Rows),
		Worst:   r.Worst(),
		Summary: r.Summary(),
		Legend:  legend,
		Table:   template.HTML(r.htmlTable()),
	})
}
