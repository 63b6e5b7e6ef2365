package mail

import (
	"fmt"
	"log/slog"
	netmail "net/mail"
)

// Backend names.
const (
	BackendConsole  = "console"
	BackendSMTP     = "smtp"
	BackendSendgrid = "sendgrid"
)

// Options selects and configures a Sender.
type Options struct {
	Backend        string
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendgridAPIKey string
}

// New builds the Sender for opts.Backend.
func New(opts Options, logger *slog.Logger) (Sender, error) {
	from := netmail.Address{Name: opts.FromName, Address: opts.From}

	switch opts.Backend {
	case BackendConsole, "":
		return NewConsole(logger), nil
	case BackendSMTP:
		if opts.SMTPPassword == "" {
			return nil, fmt.Errorf("smtp mail backend requires SMTP_PASSWORD")
		}
		return &SMTP{
			Host:     opts.SMTPHost,
			Port:     opts.SMTPPort,
			User:     opts.SMTPUser,
			Password: opts.SMTPPassword,
			From:     from,
		}, nil
	case BackendSendgrid:
		if opts.SendgridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid mail backend requires SENDGRID_API_KEY")
		}
		return NewSendGrid(opts.SendgridAPIKey, from), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", opts.Backend)
	}
}
