package report

import (
	"io"

	"spidervision-report/lib/crawlstatus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var statusColors = map[crawlstatus.Status]text.Colors{
	crawlstatus.NA:            {text.FgHiBlack},
	crawlstatus.Success:       {text.FgGreen},
	crawlstatus.Warning:       {text.FgYellow},
	crawlstatus.Error:         {text.FgRed},
	crawlstatus.CriticalError: {text.FgHiRed, text.Bold},
}

func colorStatus(s crawlstatus.Status) string {
	return statusColors[s].Sprint(s.String())
}

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// RenderTerminal prints the report as a rounded table, statuses are colored
// when `color` is set.
func (r Report) RenderTerminal(w io.Writer, color bool) {
	status := crawlstatus.Status.String
	if color {
		status = colorStatus
	}

	t := NewTable(w)
	t.SetTitle("Dealer report " + r.Date.Format("2006-01-02"))
	t.AppendHeader(table.Row{"Retailer", "Progress days", "Progress", "", "Success days", "Success", "", "Global"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for _, row := range r.Rows {
		t.AppendRow(table.Row{
			row.Retailer,
			formatValues(row.Progress.Values),
			formatAverage(row.Progress),
			status(row.Progress.Status),
			formatValues(row.Success.Values),
			formatAverage(row.Success),
			status(row.Success.Status),
			status(row.Global),
		})
	}
	t.AppendFooter(table.Row{"Retailers", r.Total, "", "", "Shown", len(r.Rows), "", status(r.Worst())})
	t.Render()
}
