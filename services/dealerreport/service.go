package dealerreport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/notify/mail"
	"spidervision-report/lib/notify/teams"
	"spidervision-report/lib/publish/gcs"
	"spidervision-report/lib/report"
	"spidervision-report/lib/telemetry"
	"spidervision-report/lib/textutil"
	"spidervision-report/lib/thresholds"
	"spidervision-report/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = telemetry.Tracer("spidervision-report/services/dealerreport")
	meter  = telemetry.Meter("spidervision-report/services/dealerreport")
)

var ErrNoMatchingRetailer = errors.New("no retailer matches the filter")

// Fetcher provides the raw overview records.
type Fetcher interface {
	Overview(ctx context.Context) ([]crawlstatus.Record, error)
}

type Publisher interface {
	Upload(ctx context.Context, src, dst, bucket string) (string, error)
	UploadAndSetLatest(ctx context.Context, src, dst, latestPath, bucket string) (string, string, error)
}

type Notifier interface {
	Send(ctx context.Context, notification teams.Notification, webhookURL string) error
}

type Mailer interface {
	Send(ctx context.Context, summary mail.Summary) error
}

type Options struct {
	Fetcher    Fetcher
	// Thresholds defaults to thresholds.Default()
	Thresholds *thresholds.Table
	ReportsDir string
	// IncludeSuccesses keeps healthy retailers in generated reports.
	IncludeSuccesses bool

	// optional collaborators, a nil one disables the matching step
	Publisher      Publisher
	LatestHTMLPath string
	Notifier       Notifier
	Mailer         Mailer

	// Now defaults to timezone.Now
	Now func() time.Time
}

type Service struct {
	opts       Options
	aggregator crawlstatus.Aggregator
	statuses   metric.Int64Counter
}

func NewService(opts Options) (Service, error) {
	if opts.Fetcher == nil {
		return Service{}, errors.New("dealer report service needs a fetcher")
	}
	if opts.ReportsDir == "" {
		opts.ReportsDir = "reports"
	}
	if opts.LatestHTMLPath == "" {
		opts.LatestHTMLPath = gcs.DefaultLatestHTMLPath
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	if opts.Thresholds == nil {
		table := thresholds.Default()
		opts.Thresholds = &table
	}

	statuses, err := meter.Int64Counter(
		"dealer_report.retailer_status",
		metric.WithDescription("Retailers analyzed, by global status."),
	)
	if err != nil {
		return Service{}, err
	}

	aggregator := crawlstatus.NewAggregator(*opts.Thresholds, opts.Thresholds.Policy)
	aggregator.MaxDeviation = opts.Thresholds.MaxDeviation

	return Service{
		opts:       opts,
		aggregator: aggregator,
		statuses:   statuses,
	}, nil
}

// Records fetches the overview, keeping only the retailers whose name
// contains `retailer` when it is not empty.
func (s Service) Records(ctx context.Context, retailer string) ([]crawlstatus.Record, error) {
	ctx, span := tracer.Start(ctx, "Records")
	defer span.End()

	records, err := s.opts.Fetcher.Overview(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch overview")
		return nil, fmt.Errorf("fetch overview: %w", err)
	}
	if strings.TrimSpace(retailer) == "" {
		return records, nil
	}

	matcher := []string{textutil.NormalizeName(retailer)}
	var filtered []crawlstatus.Record
	for _, r := range records {
		if textutil.MatchName(r.Name, matcher) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingRetailer, retailer)
	}
	slog.InfoContext(ctx, "filtered retailers", "filter", retailer, "matched", len(filtered), "total", len(records))
	return filtered, nil
}

// Analyze fetches and analyzes every retailer.
func (s Service) Analyze(ctx context.Context, retailer string) (report.Report, error) {
	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()

	records, err := s.Records(ctx, retailer)
	if err != nil {
		return report.Report{}, err
	}

	analyses := s.aggregator.AnalyzeAll(records)
	for _, a := range analyses {
		s.statuses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", a.Global.String())))
		slog.DebugContext(
			ctx, "analyzed retailer",
			"retailer", a.Retailer,
			"progress", a.Progress.Status,
			"success", a.Success.Status,
			"global", a.Global,
		)
	}

	r := report.New(analyses, report.Options{
		Date:             s.opts.Now(),
		IncludeSuccesses: s.opts.IncludeSuccesses,
	})
	span.SetAttributes(
		attribute.Int("retailers", r.Total),
		attribute.Int("rows", len(r.Rows)),
		attribute.String("worst", r.Worst().String()),
	)
	return r, nil
}

type Request struct {
	Formats  []report.Format
	Retailer string
}

type Generated struct {
	Report report.Report
	Paths  map[report.Format]string
}

// Generate analyzes the overview and writes the report in every requested
// format under the reports directory.
func (s Service) Generate(ctx context.Context, req Request) (Generated, error) {
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	if len(req.Formats) == 0 {
		req.Formats = []report.Format{report.FormatCSV, report.FormatHTML}
	}

	r, err := s.Analyze(ctx, req.Retailer)
	if err != nil {
		return Generated{}, err
	}

	out := Generated{Report: r, Paths: map[report.Format]string{}}
	for _, format := range req.Formats {
		path, err := r.WriteFile(s.opts.ReportsDir, format)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write report")
			return Generated{}, err
		}
		out.Paths[format] = path
	}
	return out, nil
}

type Published struct {
	URL       string
	LatestURL string
}

// Publish uploads a report file. `dst` defaults to the dated path of the
// file, html reports are also copied to the latest path.
func (s Service) Publish(ctx context.Context, path, dst, bucket string) (Published, error) {
	ctx, span := tracer.Start(ctx, "Publish")
	defer span.End()

	if s.opts.Publisher == nil {
		return Published{}, errors.New("no publisher configured")
	}
	if dst == "" {
		dst = gcs.DatedPath(s.opts.Now(), path)
	}

	if strings.EqualFold(filepath.Ext(path), ".html") {
		url, latest, err := s.opts.Publisher.UploadAndSetLatest(ctx, path, dst, s.opts.LatestHTMLPath, bucket)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to publish")
			return Published{}, err
		}
		return Published{URL: url, LatestURL: latest}, nil
	}

	url, err := s.opts.Publisher.Upload(ctx, path, dst, bucket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish")
		return Published{}, err
	}
	return Published{URL: url}, nil
}

type Notification struct {
	URL     string
	Message string
	Webhook string
	// Report, when set, adds the status counts to the notification.
	Report *report.Report
}

var themeColors = map[crawlstatus.Status]string{
	crawlstatus.Success:       "2EB886",
	crawlstatus.Warning:       "F0B429",
	crawlstatus.Error:         "E12D39",
	crawlstatus.CriticalError: "7A0C2E",
}

// Notify posts the report link to Teams, and emails it when a mailer is
// configured. A failing email is logged, not returned.
func (s Service) Notify(ctx context.Context, n Notification) error {
	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()

	if s.opts.Notifier == nil {
		return errors.New("no notifier configured")
	}

	notification := teams.Notification{ReportURL: n.URL, Message: n.Message}
	summary := mail.Summary{Message: n.Message, ReportURL: n.URL, Subject: "Dealer report"}
	if n.Report != nil {
		worst := n.Report.Worst()
		notification.ThemeColor = themeColors[worst]
		summary.Subject = fmt.Sprintf("Dealer report %s: %s", n.Report.Date.Format("2006-01-02"), worst)
		for _, count := range n.Report.Summary() {
			if count.Count == 0 {
				continue
			}
			value := strconv.Itoa(count.Count)
			notification.Facts = append(notification.Facts, teams.Fact{Name: count.Status.String(), Value: value})
			summary.Lines = append(summary.Lines, mail.Line{Label: count.Status.String(), Value: value})
		}
	}

	err := s.opts.Notifier.Send(ctx, notification, n.Webhook)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to notify")
		return err
	}

	if s.opts.Mailer != nil {
		err = s.opts.Mailer.Send(ctx, summary)
		if err != nil {
			slog.WarnContext(ctx, "failed to email the report", "err", err)
		}
	}
	return nil
}

type RunResult struct {
	Generated Generated
	Published map[report.Format]Published
	Notified  bool
}

// Run generates the report, publishes every file and notifies with the
// latest html url. Publishing and notifying are skipped when their
// collaborator is not configured.
func (s Service) Run(ctx context.Context, req Request, message string) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	generated, err := s.Generate(ctx, req)
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{Generated: generated, Published: map[report.Format]Published{}}

	if s.opts.Publisher == nil {
		slog.InfoContext(ctx, "no publisher configured, skipping publish")
		return result, nil
	}
	for format, path := range generated.Paths {
		published, err := s.Publish(ctx, path, "", "")
		if err != nil {
			return result, err
		}
		result.Published[format] = published
	}

	link := ""
	if html, ok := result.Published[report.FormatHTML]; ok {
		link = html.LatestURL
	} else if csv, ok := result.Published[report.FormatCSV]; ok {
		link = csv.URL
	}

	if s.opts.Notifier == nil || link == "" {
		slog.InfoContext(ctx, "nothing to notify")
		return result, nil
	}
	err = s.Notify(ctx, Notification{URL: link, Message: message, Report: &generated.Report})
	if err != nil {
		return result, err
	}
	result.Notified = true
	return result, nil
}
