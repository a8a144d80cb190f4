package email

import (
	"context"
	"log/slog"
)

// LogSender writes codes to the log instead of sending mail. Development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) SendOTP(ctx context.Context, to, code string) error {
	l.logger.InfoContext(ctx, "otp email (not sent)",
		slog.String("to", to),
		slog.String("subject", otpSubject),
		slog.String("code", code),
	)
	return nil
}
