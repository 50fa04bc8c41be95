package commands

import (
	"context"
	"sync"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/notify/mail"
	"spidervision-report/lib/notify/teams"
	"spidervision-report/lib/publish/gcs"
	"spidervision-report/lib/scrapers/spidervision"
	"spidervision-report/lib/serviceutil"
	"spidervision-report/lib/thresholds"
	"spidervision-report/services/dealerreport"
)

// lazyFetcher only creates the spider vision client when the overview is
// actually needed, so that publish and notify work without credentials.
type lazyFetcher struct {
	once    sync.Once
	fetcher dealerreport.SpiderVisionFetcher
	err     error
}

func (f *lazyFetcher) Overview(ctx context.Context) ([]crawlstatus.Record, error) {
	f.once.Do(func() {
		client, err := newSpiderVisionClient()
		if err != nil {
			f.err = err
			return
		}
		f.fetcher = dealerreport.SpiderVisionFetcher{
			Client:        client,
			Email:         config.SpiderVision.Email,
			Password:      config.SpiderVision.Password,
			Token:         config.SpiderVision.Token,
			DashboardPath: config.SpiderVision.DashboardPath,
		}
	})
	if f.err != nil {
		return nil, f.err
	}
	return f.fetcher.Overview(ctx)
}

func newSpiderVisionClient() (*spidervision.Client, error) {
	return spidervision.NewClient(spidervision.ClientOptions{
		BaseUrl:          config.SpiderVision.BaseUrl,
		LoginEndpoint:    config.SpiderVision.LoginEndpoint,
		OverviewEndpoint: config.SpiderVision.OverviewEndpoint,
		DumpOutput:       dumpOutput,
	})
}

type serviceParts struct {
	publish bool
	notify  bool
}

// newService builds the dealer report service with the collaborators the
// command needs, the caller must close the returned publisher if not nil.
func newService(ctx context.Context, parts serviceParts) (dealerreport.Service, *gcs.Publisher) {
	table, err := thresholds.LoadOrDefault(config.Thresholds)
	if err != nil {
		serviceutil.Fatal("failed to load thresholds", err)
	}

	opts := dealerreport.Options{
		Fetcher:          &lazyFetcher{},
		Thresholds:       &table,
		ReportsDir:       config.ReportsDir,
		IncludeSuccesses: config.IncludeSuccesses,
		LatestHTMLPath:   config.Gcs.LatestHTMLPath,
	}

	var publisher *gcs.Publisher
	if parts.publish {
		publisher = gcs.NewPublisher(ctx, gcs.Options{
			Bucket:  config.Gcs.Bucket,
			Project: config.Gcs.Project,
			DryRun:  config.Gcs.DryRun,
		})
		opts.Publisher = publisher
	}
	if parts.notify {
		opts.Notifier = teams.NewNotifier(teams.Options{
			WebhookURL:     config.Teams.WebhookURL,
			DefaultMessage: config.Teams.DefaultMessage,
		})
		if config.Smtp.Enabled() {
			opts.Mailer = mail.NewMailer(config.Smtp)
		}
	}

	service, err := dealerreport.NewService(opts)
	if err != nil {
		serviceutil.Fatal("failed to create dealer report service", err)
	}
	return service, publisher
}
