package commands

import (
	"fmt"

	"spidervision-report/lib/report"
	"spidervision-report/lib/serviceutil"
	"spidervision-report/services/dealerreport"

	"github.com/spf13/cobra"
)

var (
	generateFormat *string
	generateDealer *string
)

func init() {
	generateFormat = generateCmd.Flags().String("fmt", "both", "The report format: csv, html or both.")
	generateDealer = generateCmd.Flags().String("dealer", "", "Only report on retailers whose name contains this.")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [--fmt csv|html|both] [--dealer <name>]",
	Short: "Generates the dealer report into the reports directory.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		formats, err := report.ParseFormats(*generateFormat)
		if err != nil {
			serviceutil.Fatal("invalid --fmt", err)
		}

		service, _ := newService(cmd.Context(), serviceParts{})
		generated, err := service.Generate(cmd.Context(), dealerreport.Request{
			Formats:  formats,
			Retailer: *generateDealer,
		})
		if err != nil {
			serviceutil.Fatal("failed to generate the report", err)
		}

		for _, format := range formats {
			fmt.Println(generated.Paths[format])
		}
	},
}
