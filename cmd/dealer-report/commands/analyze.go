package commands

import (
	"spidervision-report/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	analyzeDealer  *string
	analyzeAll     *bool
	analyzeNoColor *bool
)

func init() {
	analyzeDealer = analyzeCmd.Flags().String("dealer", "", "Only analyze retailers whose name contains this.")
	analyzeAll = analyzeCmd.Flags().Bool("all", false, "Also show retailers that need no attention.")
	analyzeNoColor = analyzeCmd.Flags().Bool("no-color", false, "Do not color statuses.")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--dealer <name>] [--all]",
	Short: "Prints the dealer report as a table without writing any file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *analyzeAll {
			config.IncludeSuccesses = true
		}
		service, _ := newService(cmd.Context(), serviceParts{})
		r, err := service.Analyze(cmd.Context(), *analyzeDealer)
		if err != nil {
			serviceutil.Fatal("failed to analyze the overview", err)
		}
		r.RenderTerminal(cmd.OutOrStdout(), !*analyzeNoColor)
	},
}
