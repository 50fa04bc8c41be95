package teams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spidervision-report/lib/publish/gcs"
	"spidervision-report/lib/restyutil"
	"spidervision-report/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("spidervision-report/lib/notify/teams")

var ErrDeliveryFailed = errors.New("teams notification could not be delivered")

const (
	MaxAttempts       = 3
	DefaultThemeColor = "0076D7"
)

type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type section struct {
	ActivityTitle    string `json:"activityTitle"`
	ActivitySubtitle string `json:"activitySubtitle"`
	Facts            []Fact `json:"facts"`
	Markdown         bool   `json:"markdown"`
}

// MessageCard is the legacy connector card accepted by incoming webhooks.
type MessageCard struct {
	Type       string    `json:"@type"`
	Context    string    `json:"@context"`
	ThemeColor string    `json:"themeColor"`
	Summary    string    `json:"summary"`
	Sections   []section `json:"sections"`
}

// Notification is what gets posted to a channel.
type Notification struct {
	// ReportURL may be a gs:// url, it is turned into a browsable one.
	ReportURL string
	Message   string
	// Facts are appended after the report link.
	Facts      []Fact
	ThemeColor string
}

func (n Notification) Card() MessageCard {
	facts := []Fact{{
		Name:  "Report:",
		Value: fmt.Sprintf("[Open the report](%s)", gcs.PublicURL(n.ReportURL)),
	}}
	facts = append(facts, n.Facts...)

	color := n.ThemeColor
	if color == "" {
		color = DefaultThemeColor
	}
	return MessageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: color,
		Summary:    "Dealer report available",
		Sections: []section{{
			ActivityTitle:    "Dealer report",
			ActivitySubtitle: n.Message,
			Facts:            facts,
			Markdown:         true,
		}},
	}
}

type Options struct {
	WebhookURL     string
	DefaultMessage string
	// RetryWait is the wait before the second attempt, it doubles on every
	// retry.
	RetryWait time.Duration
}

type Notifier struct {
	http           *resty.Client
	webhookURL     string
	defaultMessage string
}

func NewNotifier(opts Options) *Notifier {
	if opts.RetryWait == 0 {
		opts.RetryWait = time.Second
	}

	client := resty.New()
	client.SetTimeout(time.Second * 10)
	client.SetRetryCount(MaxAttempts - 1)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(opts.RetryWait * (1 << (MaxAttempts - 2)))
	client.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		attempt := res.Request.Attempt
		if attempt < 1 {
			attempt = 1
		}
		return opts.RetryWait * (1 << (attempt - 1)), nil
	})
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		retry := res.StatusCode() >= 500
		if retry {
			slog.Warn(
				"teams webhook failed, retrying",
				"status", res.StatusCode(),
				"attempt", res.Request.Attempt,
				"max_attempts", MaxAttempts,
			)
		}
		return retry
	})
	restyutil.InstrumentClient(client, tracer, nil)

	return &Notifier{
		http:           client,
		webhookURL:     opts.WebhookURL,
		defaultMessage: opts.DefaultMessage,
	}
}

// Send posts the notification to `webhookURL`, or to the notifier's webhook
// when it is empty. An empty message falls back to the default one.
func (n *Notifier) Send(ctx context.Context, notification Notification, webhookURL string) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	if webhookURL == "" {
		webhookURL = n.webhookURL
	}
	if webhookURL == "" {
		span.SetStatus(codes.Error, "no webhook")
		return fmt.Errorf("%w: no webhook url configured", ErrDeliveryFailed)
	}
	if notification.Message == "" {
		notification.Message = n.defaultMessage
	}
	masked := MaskWebhook(webhookURL)

	res, err := n.http.R().
		SetContext(ctx).
		SetBody(notification.Card()).
		Post(webhookURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		slog.ErrorContext(ctx, "teams notification failed", "webhook", masked, "err", err)
		return fmt.Errorf("%w after %d attempt(s): %s", ErrDeliveryFailed, attempts(res), err.Error())
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		slog.ErrorContext(
			ctx, "teams webhook rejected the notification",
			"webhook", masked,
			"status", res.StatusCode(),
			"attempts", res.Request.Attempt,
			"body", res.String(),
		)
		return fmt.Errorf("%w: webhook returned %s", ErrDeliveryFailed, res.Status())
	}

	slog.InfoContext(ctx, "teams notification sent", "webhook", masked)
	return nil
}

func attempts(res *resty.Response) int {
	if res == nil || res.Request == nil || res.Request.Attempt == 0 {
		return 1
	}
	return res.Request.Attempt
}

// MaskWebhook hides the secret part of a webhook url for logging.
func MaskWebhook(url string) string {
	if len(url) > 50 {
		return url[:20] + "..." + url[len(url)-10:]
	}
	if len(url) > 10 {
		return url[:10] + "..."
	}
	return "..."
}
