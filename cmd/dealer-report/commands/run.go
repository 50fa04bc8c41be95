package commands

import (
	"fmt"
	"log/slog"

	"spidervision-report/lib/report"
	"spidervision-report/lib/serviceutil"
	"spidervision-report/services/dealerreport"

	"github.com/spf13/cobra"
)

var (
	runFormat  *string
	runDealer  *string
	runMessage *string
)

func init() {
	runFormat = runCmd.Flags().String("fmt", "both", "The report format: csv, html or both.")
	runDealer = runCmd.Flags().String("dealer", "", "Only report on retailers whose name contains this.")
	runMessage = runCmd.Flags().String("message", "", "The notification message, defaults to TEAMS_DEFAULT_MESSAGE.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--fmt csv|html|both] [--dealer <name>] [--message <text>]",
	Short: "Generates, publishes and announces the daily dealer report.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		formats, err := report.ParseFormats(*runFormat)
		if err != nil {
			serviceutil.Fatal("invalid --fmt", err)
		}

		service, publisher := newService(cmd.Context(), serviceParts{
			publish: true,
			notify:  config.Teams.WebhookURL != "",
		})
		defer publisher.Close()

		result, err := service.Run(cmd.Context(), dealerreport.Request{
			Formats:  formats,
			Retailer: *runDealer,
		}, *runMessage)
		if err != nil {
			serviceutil.Fatal("daily run failed", err)
		}

		for _, format := range formats {
			fmt.Println(result.Generated.Paths[format])
			if published, ok := result.Published[format]; ok {
				fmt.Println(published.URL)
			}
		}
		slog.Info(
			"daily run finished",
			"retailers", result.Generated.Report.Total,
			"reported", len(result.Generated.Report.Rows),
			"worst", result.Generated.Report.Worst(),
			"notified", result.Notified,
		)
	},
}
