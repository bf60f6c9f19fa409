package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// EmailConfig holds Resend configuration for admin inbox alerts
type EmailConfig struct {
	APIKey     string
	From       string // e.g., "Maestro <inbox@maestro.example>"
	AdminEmail string
}

// EmailNotifier emails the admin when a user writes to the inbox
type EmailNotifier struct {
	send   func(ctx context.Context, params *resend.SendEmailRequest) error
	from   string
	to     string
	logger zerolog.Logger
}

// NewEmailNotifier creates a Resend-backed notifier
func NewEmailNotifier(config EmailConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	if config.APIKey == "" || config.AdminEmail == "" {
		return nil, fmt.Errorf("resend api key and admin email are required")
	}
	if config.From == "" {
		config.From = "onboarding@resend.dev"
	}

	client := resend.NewClient(config.APIKey)
	send := func(ctx context.Context, params *resend.SendEmailRequest) error {
		_, err := client.Emails.SendWithContext(ctx, params)
		return err
	}
	return newEmailNotifier(send, config.From, config.AdminEmail, logger), nil
}

func newEmailNotifier(send func(context.Context, *resend.SendEmailRequest) error, from, to string, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		send:   send,
		from:   from,
		to:     to,
		logger: logger.With().Str("component", "email_notifier").Logger(),
	}
}

// TipPublished is not emailed
func (n *EmailNotifier) TipPublished(context.Context, *models.Tip) error {
	return nil
}

// MessageReceived forwards a new inbox message to the admin
func (n *EmailNotifier) MessageReceived(ctx context.Context, msg *models.Message) error {
	if err := n.send(ctx, messageEmail(n.from, n.to, msg)); err != nil {
		return fmt.Errorf("failed to email message %s: %w", msg.ID, err)
	}
	n.logger.Debug().Str("message_id", msg.ID).Msg("inbox alert sent")
	return nil
}

func messageEmail(from, to string, msg *models.Message) *resend.SendEmailRequest {
	sender := msg.UserName
	if sender == "" {
		sender = msg.UserID
	}
	body := fmt.Sprintf(
		"<p><strong>%s</strong> wrote at %s:</p><blockquote>%s</blockquote><p>Message id: %s</p>",
		html.EscapeString(sender),
		msg.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
		html.EscapeString(msg.Content),
		html.EscapeString(msg.ID),
	)

	return &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: fmt.Sprintf("New message from %s", sender),
		Html:    body,
		Text:    fmt.Sprintf("%s wrote: %s", sender, msg.Content),
	}
}
