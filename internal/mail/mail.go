// Package mail composes and delivers the transactional emails of the site.
package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// ErrRecipientRejected is returned when the mail server refuses the
// recipient address.
var ErrRecipientRejected = errors.New("recipient rejected")

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

// Template names.
const (
	RegistrationConfirm = "registration_confirm"
	ForgotPassword      = "forgot_password"
)

// Message is a plain text email to a single recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// TokenData is the template data of the emails carrying a secret link.
type TokenData struct {
	Name      string
	BaseURL   string
	Token     string
	ExpiresAt time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Compose renders the named template into a message for to. Each template
// defines a "<name>.subject" and a "<name>.body" block.
func Compose(name, to, toName string, data any) (*Message, error) {
	subject, err := execute(name+".subject", data)
	if err != nil {
		return nil, err
	}
	body, err := execute(name+".body", data)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      to,
		ToName:  toName,
		Subject: strings.TrimSpace(subject),
		Text:    strings.TrimSpace(body) + "\n",
	}, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
