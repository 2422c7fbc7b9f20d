package email

import (
	"context"

	"github.com/avilks/passvault/internal/logging"
)

// DevSender logs the message instead of delivering it. Used when no Postmark
// tokens are configured (local development, tests).
type DevSender struct {
	logger logging.Logger
}

func NewDevSender(logger logging.Logger) *DevSender {
	return &DevSender{logger: logger.With("module", "email_dev")}
}

func (s *DevSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "outbound email suppressed",
		"to", msg.To, "type", string(msg.Type), "token", msg.Token)
	return nil
}
