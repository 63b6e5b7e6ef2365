package mail

import (
	"context"
	"log/slog"
)

// Console logs messages instead of delivering them. It never fails.
type Console struct {
	logger *slog.Logger
}

// NewConsole creates a Console sender writing to logger.
func NewConsole(logger *slog.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Send(ctx context.Context, msg *Message) error {
	c.logger.InfoContext(ctx, "email not sent (console backend)",
		"to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
