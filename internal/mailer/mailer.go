// Package mailer delivers email verification links for the devserver.
package mailer

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// LogSender writes verification links to the log instead of sending mail
type LogSender struct {
	baseURL string
	logger  *zap.Logger
}

// NewLogSender builds links against baseURL, the public origin of the API
func NewLogSender(baseURL string, logger *zap.Logger) *LogSender {
	return &LogSender{baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// SendVerification implements domain.VerificationSender
func (s *LogSender) SendVerification(ctx context.Context, email, token string) error {
	s.logger.Info("verification email",
		zap.String("to", email),
		zap.String("token", token),
		zap.String("link", s.Link(token)),
	)
	return nil
}

// Link returns the verification URL for token
func (s *LogSender) Link(token string) string {
	return s.baseURL + "/api/auth/verify-email/" + url.PathEscape(token)
}
