package notify

import (
	"context"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
)

// Mailer delivers a rendered message. Delivery mechanics and retries are
// the implementation's business; callers bound each call with a context
// deadline and do not retry.
type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

// LogMailer only logs that a message would have been sent. The body is not
// logged because it may carry a release token or a confirmation link.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info(ctx, "mail queued", "to", to, "subject", msg.Subject, "body_bytes", len(msg.Body))
	return nil
}
