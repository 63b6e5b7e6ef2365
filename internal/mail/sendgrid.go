package mail

import (
	"context"
	"fmt"
	"net/http"
	netmail "net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid delivers messages through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendGrid creates a SendGrid sender authenticated with apiKey.
func NewSendGrid(apiKey string, from netmail.Address) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(from.Name, from.Address),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg *Message) error {
	m := sgmail.NewSingleEmail(s.from, msg.Subject, sgmail.NewEmail(msg.ToName, msg.To), msg.Text, "")

	res, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	switch {
	case res.StatusCode == http.StatusBadRequest:
		// The API answers 400 for malformed or blocked recipients.
		return fmt.Errorf("%w: %s: %s", ErrRecipientRejected, msg.To, res.Body)
	case res.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}
