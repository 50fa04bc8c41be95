package commands

import (
	"fmt"
	"path/filepath"

	"spidervision-report/lib/report"
	"spidervision-report/lib/serviceutil"
	"spidervision-report/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	fetchFormat *string
	fetchOutput *string
)

func init() {
	fetchFormat = fetchOverviewCmd.Flags().String("format", "csv", "The export format: csv or html.")
	fetchOutput = fetchOverviewCmd.Flags().String("output", "", "The output file, defaults to a dated file in the reports directory.")
	rootCmd.AddCommand(fetchOverviewCmd)
}

var fetchOverviewCmd = &cobra.Command{
	Use:   "fetch-overview [--format csv|html] [--output <file>]",
	Short: "Exports the raw Spider Vision overview without analyzing it.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format := report.Format(*fetchFormat)
		if format != report.FormatCSV && format != report.FormatHTML {
			serviceutil.Fatal("invalid --format", fmt.Errorf("expected csv or html, got %q", *fetchFormat))
		}

		service, _ := newService(cmd.Context(), serviceParts{})
		records, err := service.Records(cmd.Context(), "")
		if err != nil {
			serviceutil.Fatal("failed to fetch the overview", err)
		}

		now := timezone.Now()
		output := *fetchOutput
		if output == "" {
			output = filepath.Join(config.ReportsDir, report.OverviewFileName(now, format))
		}
		err = report.WriteRecordsFile(output, format, now, records)
		if err != nil {
			serviceutil.Fatal("failed to export the overview", err)
		}
		fmt.Println(output)
	},
}
