package dealerreport

import (
	"context"
	"errors"
	"log/slog"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/scrapers/spidervision"
)

// SpiderVisionFetcher reads the overview through the vendor API. It logs in
// lazily unless a token was issued beforehand, and falls back to scraping
// the html dashboard when DashboardPath is set.
type SpiderVisionFetcher struct {
	Client        *spidervision.Client
	Email         string
	Password      string
	Token         string
	DashboardPath string
}

func (f SpiderVisionFetcher) Overview(ctx context.Context) ([]crawlstatus.Record, error) {
	err := f.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	records, err := f.Client.Overview(ctx)
	if err == nil || f.DashboardPath == "" {
		return records, err
	}

	slog.WarnContext(ctx, "overview unavailable, reading the dashboard instead", "err", err, "path", f.DashboardPath)
	rows, dashboardErr := f.Client.Dashboard(ctx, f.DashboardPath)
	if dashboardErr != nil {
		return nil, errors.Join(err, dashboardErr)
	}
	records = make([]crawlstatus.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	return records, nil
}

func (f SpiderVisionFetcher) authenticate(ctx context.Context) error {
	if f.Client.Authenticated() {
		return nil
	}
	if f.Token != "" {
		slog.DebugContext(ctx, "using pre-issued spider vision token")
		f.Client.SetToken(f.Token)
		return nil
	}
	_, err := f.Client.Login(ctx, f.Email, f.Password)
	return err
}
