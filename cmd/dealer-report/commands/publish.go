package commands

import (
	"fmt"

	"spidervision-report/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	publishPath   *string
	publishBucket *string
	publishDst    *string
)

func init() {
	publishPath = publishCmd.Flags().String("path", "", "The local report file to upload.")
	publishBucket = publishCmd.Flags().String("bucket", "", "The bucket to upload to, defaults to GCS_BUCKET.")
	publishDst = publishCmd.Flags().String("dst", "", "The object path, defaults to reports/YYYY/MM/DD/<file name>.")
	publishCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(publishCmd)
}

var publishCmd = &cobra.Command{
	Use:   "publish --path <file> [--bucket <bucket>] [--dst <object>]",
	Short: "Uploads a report to cloud storage, html reports also replace the latest report.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, publisher := newService(cmd.Context(), serviceParts{publish: true})
		defer publisher.Close()

		published, err := service.Publish(cmd.Context(), *publishPath, *publishDst, *publishBucket)
		if err != nil {
			serviceutil.Fatal("failed to publish the report", err)
		}
		fmt.Println(published.URL)
		if published.LatestURL != "" {
			fmt.Println(published.LatestURL)
		}
	},
}
