package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPSender_BuildsMessage(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	s := NewSMTPSender("mail.example.com:587", "noreply@example.com")
	err := s.Send(context.Background(), "alice@example.com", "Verify Email", "<p>hi</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "mail.example.com:587" || gotFrom != "noreply@example.com" {
		t.Fatalf("unexpected relay params: %s %s", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: Verify Email\r\n",
		"Content-Type: text/html",
		"<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSMTPSender_WrapsError(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	boom := errors.New("relay down")
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return boom
	}

	s := NewSMTPSender("mail.example.com:587", "noreply@example.com")
	err := s.Send(context.Background(), "alice@example.com", "s", "b")
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped relay error, got %v", err)
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).Send(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
