package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/infra/metrics"
)

var _ adapter.Mailer = (*SMTPMailer)(nil)

const sendTimeout = 30 * time.Second

// SMTPMailer delivers access-code emails over SMTP. Sends are retried with a
// linear backoff; a delivery failure is reported to the caller but never
// blocks fulfillment.
type SMTPMailer struct {
	cfg *config.MailConfig
	log zerolog.Logger
}

func NewSMTPMailer(cfg *config.MailConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg: cfg,
		log: logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.User != "" && m.cfg.Password != ""
}

func (m *SMTPMailer) SendAccessCode(ctx context.Context, to, code string, services []string) error {
	if !m.Configured() {
		return fmt.Errorf("mailer not configured")
	}

	body, err := renderAccessCodeEmail(code, services)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from()); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject("Your Tlangau Server Access Code")
	msg.SetBodyString(gomail.TypeTextHTML, body)

	var lastErr error
	for attempt := 1; attempt <= m.cfg.Retries; attempt++ {
		if err := m.send(ctx, msg); err != nil {
			lastErr = err
			m.log.Warn().Err(err).
				Str("to", to).
				Int("attempt", attempt).
				Int("retries", m.cfg.Retries).
				Msg("email send failed")
			if attempt < m.cfg.Retries {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 2 * time.Second):
				}
			}
			continue
		}
		metrics.IncEmail("sent")
		m.log.Info().Str("to", to).Int("attempt", attempt).Msg("access code email sent")
		return nil
	}
	metrics.IncEmail("failed")
	return fmt.Errorf("send email after %d attempts: %w", m.cfg.Retries, lastErr)
}

func (m *SMTPMailer) send(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTimeout(sendTimeout),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) from() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.User
}

var accessCodeTmpl = template.Must(template.New("access-code").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
    .code-box { background: #fff; border: 2px dashed #667eea; padding: 20px; text-align: center; margin: 20px 0; border-radius: 8px; }
    .code { font-size: 24px; font-weight: bold; color: #667eea; letter-spacing: 3px; font-family: 'Courier New', monospace; }
    .services-box { background: #fff; padding: 15px 20px; margin: 15px 0; border-radius: 8px; border-left: 4px solid #48bb78; }
    .free-badge { background: #48bb78; color: white; padding: 2px 8px; border-radius: 10px; font-size: 11px; font-weight: bold; }
    .footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Welcome to Tlangau Server Access</h1>
    </div>
    <div class="content">
      <p>Thank you for your purchase of <strong>&#8377;{{.Amount}}</strong>!</p>
      <p>Your server access code has been generated successfully.</p>

      <div class="code-box">
        <p style="margin: 0 0 10px 0; color: #666;">Your Access Code:</p>
        <div class="code">{{.Code}}</div>
      </div>

      <div class="services-box">
        <p style="margin: 0 0 8px 0; font-weight: bold; color: #333;">Your Purchased Services:</p>
        <ul style="list-style: none; padding: 0; margin: 0;">
          {{range .Services}}<li style="padding: 4px 0;">{{.}}</li>
          {{end}}<li style="padding: 4px 0;">Statistics &amp; Insights <span class="free-badge">FREE</span></li>
        </ul>
      </div>

      <p><strong>Important:</strong></p>
      <ul>
        <li>This code can only be used once per account</li>
        <li>Enter this code in the "Server access code" field when signing in</li>
        <li>Keep this code secure and do not share it</li>
        <li>Code is valid for 30 days from purchase</li>
        <li>Only the services you purchased will be accessible</li>
      </ul>

      <p>If you have any questions, please contact our support team.</p>
    </div>
    <div class="footer">
      <p>&copy; {{.Year}} Tlangau. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`))

func renderAccessCodeEmail(code string, services []string) (string, error) {
	names := make([]string, 0, len(services))
	for _, id := range services {
		names = append(names, model.ServiceName(id))
	}
	amount := int64(len(services)) * model.ServicePrice
	if amount == 0 {
		amount = model.ServicePrice
	}
	var buf bytes.Buffer
	err := accessCodeTmpl.Execute(&buf, struct {
		Code     string
		Services []string
		Amount   int64
		Year     int
	}{Code: code, Services: names, Amount: amount, Year: time.Now().Year()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
