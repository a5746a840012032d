package email

import (
	"context"
	"strings"
	"testing"

	"worktime/internal/platform/config"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if err := mailer.Send(context.Background(), "a@x", "b@y", "s", "b"); err != nil {
		t.Fatalf("noop mailer returned error: %v", err)
	}
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("a@x", "b@y", "Break started", "Everyone is on break"))

	for _, want := range []string{
		"From: a@x\r\n",
		"To: b@y\r\n",
		"Subject: Break started\r\n",
		"Date: ",
		"Message-ID: <",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in message:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\nEveryone is on break") {
		t.Fatalf("body not terminated after blank line:\n%s", msg)
	}
}
