package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"spidervision-report/lib/publish/gcs"
	"spidervision-report/lib/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("spidervision-report/lib/notify/mail")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.Recipients) > 0
}

type Line struct {
	Label string
	Value string
}

// Summary is the content of a report notification email.
type Summary struct {
	Subject   string
	Message   string
	ReportURL string
	Lines     []Line
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

type Mailer struct {
	config SmtpConfig
	send   sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{
		config: config,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (m Mailer) Message(summary Summary) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Dealer report <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = summary.Subject

	var body strings.Builder
	if summary.Message != "" {
		body.WriteString(summary.Message)
		body.WriteString("\n\n")
	}
	for _, line := range summary.Lines {
		fmt.Fprintf(&body, "%s: %s\n", line.Label, line.Value)
	}
	if summary.ReportURL != "" {
		fmt.Fprintf(&body, "\nReport: %s\n", gcs.PublicURL(summary.ReportURL))
	}
	mail.Text = []byte(body.String())
	return mail
}

func (m Mailer) Send(ctx context.Context, summary Summary) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	if !m.config.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	mail := m.Message(summary)
	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(mail, addr, smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
