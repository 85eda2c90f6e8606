package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers notifications through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	to     string
}

func NewResendMailer(apiKey, from, to string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (m *ResendMailer) Send(ctx context.Context, subject, htmlBody, textBody string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
