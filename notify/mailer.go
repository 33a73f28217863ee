package notify

import (
	"context"

	"github.com/wneessen/go-mail"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/errors"
)

// Mailer sends alert emails over SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer returns a Mailer for the given SMTP configuration.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendEmail delivers one plain-text message. A fresh connection per message
// is fine here: alert volume is throttled upstream.
func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrapf(err, "invalid sender %q", m.cfg.From)
	}
	if err := msg.To(to); err != nil {
		return errors.Wrapf(err, "invalid recipient %q", to)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "creating SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "sending email to %s", to)
	}
	return nil
}
