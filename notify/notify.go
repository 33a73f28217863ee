// Package notify defines the outbound notification boundary used by the
// alert throttle, plus SMTP and SMS-gateway implementations.
package notify

import (
	"context"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/errors"
)

// MaxSMSBytes is the largest body passed to an SMS transport. Callers digest
// longer texts down to this size before sending.
const MaxSMSBytes = 500

// Notifier delivers alerts. Delivery and queueing mechanics live behind this
// boundary; callers only decide recipients and content.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// Composite routes email and SMS to their respective transports. Either leg
// may be nil; sending through a nil leg is an error so a misconfigured job
// fails loudly instead of dropping alerts.
type Composite struct {
	Email Emailer
	SMS   SMSSender
}

// Emailer sends a single email.
type Emailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a single SMS-sized message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

func (c Composite) SendEmail(ctx context.Context, to, subject, body string) error {
	if c.Email == nil {
		return errors.New("email transport not configured (set notify.smtp.host)")
	}
	return c.Email.SendEmail(ctx, to, subject, body)
}

func (c Composite) SendSMS(ctx context.Context, to, body string) error {
	if c.SMS == nil {
		return errors.New("SMS transport not configured (set notify.sms_gateway_url)")
	}
	return c.SMS.SendSMS(ctx, to, body)
}

// FromConfig builds a Composite from configuration. Legs without config stay
// nil; that is fine as long as no recipients of that kind are configured.
func FromConfig(cfg config.NotifyConfig) Composite {
	var c Composite
	if cfg.SMTP.Host != "" {
		c.Email = NewMailer(cfg.SMTP)
	}
	if cfg.SMSGatewayURL != "" {
		c.SMS = NewGateway(cfg.SMSGatewayURL)
	}
	return c
}
