package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridChannel delivers notifications as email through the SendGrid API.
type SendGridChannel struct {
	cfg  SendGridConfig
	from *sgmail.Email
}

// NewSendGridChannel creates an email channel from the given config.
func NewSendGridChannel(cfg SendGridConfig) *SendGridChannel {
	return &SendGridChannel{
		cfg:  cfg,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

// Name implements Channel.
func (c *SendGridChannel) Name() string { return "sendgrid" }

// Send implements Channel. Recipients without an email address are skipped;
// a notification with no addressable recipient is a no-op, not an error.
func (c *SendGridChannel) Send(ctx context.Context, n Notification) error {
	p := sgmail.NewPersonalization()
	p.Subject = n.Subject
	for _, r := range n.Recipients {
		if r.Email == "" {
			continue
		}
		p.AddTos(sgmail.NewEmail(r.Name, r.Email))
	}
	if len(p.To) == 0 {
		return nil
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(c.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", n.Body))

	req := sendgrid.GetRequest(c.cfg.APIKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d", res.StatusCode)
	}
	return nil
}
