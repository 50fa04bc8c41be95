package commands

import (
	"spidervision-report/lib/serviceutil"
	"spidervision-report/services/dealerreport"

	"github.com/spf13/cobra"
)

var (
	notifyUrl     *string
	notifyMessage *string
	notifyWebhook *string
)

func init() {
	notifyUrl = notifyCmd.Flags().String("url", "", "The report url to share, gs:// urls are made browsable.")
	notifyMessage = notifyCmd.Flags().String("message", "", "The message, defaults to TEAMS_DEFAULT_MESSAGE.")
	notifyWebhook = notifyCmd.Flags().String("channel-webhook", "", "The Teams webhook, defaults to TEAMS_WEBHOOK_URL.")
	notifyCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify --url <url> [--message <text>] [--channel-webhook <url>]",
	Short: "Posts a report link to a Teams channel.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := newService(cmd.Context(), serviceParts{notify: true})
		err := service.Notify(cmd.Context(), dealerreport.Notification{
			URL:     *notifyUrl,
			Message: *notifyMessage,
			Webhook: *notifyWebhook,
		})
		if err != nil {
			serviceutil.Fatal("failed to notify", err)
		}
	},
}
