package mailer

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender("http://localhost:8080/", zap.New(core))

	if err := s.SendVerification(context.Background(), "ada@example.com", "tok-1"); err != nil {
		t.Fatalf("SendVerification() error = %v", err)
	}

	entries := logs.FilterMessage("verification email").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["to"] != "ada@example.com" {
		t.Errorf("to = %v", fields["to"])
	}
	if fields["link"] != "http://localhost:8080/api/auth/verify-email/tok-1" {
		t.Errorf("link = %v", fields["link"])
	}
}
