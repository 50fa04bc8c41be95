package report

import (
	"encoding/csv"
	"io"
)

var csvHeader = []string{
	"date",
	"retailer",
	"progress_days",
	"progress_coherent",
	"progress_avg",
	"progress_status",
	"success_days",
	"success_coherent",
	"success_avg",
	"success_status",
	"global_status",
}

func (r Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	err := writer.Write(csvHeader)
	if err != nil {
		return err
	}

	date := r.Date.Format("2006-01-02")
	for _, row := range r.Rows {
		err = writer.Write([]string{
			date,
			row.Retailer,
			formatValues(row.Progress.Values),
			formatValues(row.Progress.Coherent),
			formatAverage(row.Progress),
			row.Progress.Status.String(),
			formatValues(row.Success.Values),
			formatValues(row.Success.Coherent),
			formatAverage(row.Success),
			row.Success.Status.String(),
			row.Global.String(),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
