// Package notify implements participant notifications. Real email
// dispatch is handled by the organization's mailing infrastructure; the
// service only records that a notification became due.
package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notification intents to the structured log, where
// the mail pipeline picks them up.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// CertificateAvailable records that a participant's certificate became
// downloadable.
func (n *LogNotifier) CertificateAvailable(ctx context.Context, email, name string) error {
	n.logger.InfoContext(ctx, "certificate available notification",
		slog.String("email", email),
		slog.String("name", name))
	return nil
}
