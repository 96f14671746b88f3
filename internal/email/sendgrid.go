package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider delivers email via the SendGrid API.
type SendGridProvider struct {
	from     string
	fromName string
	client   *sendgrid.Client
}

func NewSendGridProvider(apiKey, from, fromName string) *SendGridProvider {
	return &SendGridProvider{
		from:     from,
		fromName: fromName,
		client:   sendgrid.NewSendClient(apiKey),
	}
}

func (p *SendGridProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	from := mail.NewEmail(p.fromName, p.from)
	to := mail.NewEmail("", message.To)
	m := mail.NewSingleEmail(from, message.Subject, to, message.Body, message.BodyHTML)

	if message.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", message.ReplyTo))
	}

	// Transactional mail: no link rewriting, no open pixels.
	trackingSettings := mail.NewTrackingSettings()
	clickTracking := mail.NewClickTrackingSetting()
	clickTracking.SetEnable(false)
	clickTracking.SetEnableText(false)
	trackingSettings.SetClickTracking(clickTracking)
	openTracking := mail.NewOpenTrackingSetting()
	openTracking.SetEnable(false)
	trackingSettings.SetOpenTracking(openTracking)
	m.SetTrackingSettings(trackingSettings)

	resp, err := p.client.SendWithContext(ctx, m)
	if err != nil {
		return &SendResult{ProviderName: p.GetName(), Success: false, Error: err}, err
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
		return &SendResult{ProviderName: p.GetName(), Success: false, Error: err}, err
	}
	return &SendResult{ProviderName: p.GetName(), Success: true}, nil
}

func (p *SendGridProvider) GetName() string {
	return "SendGrid"
}
