package mail

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSendSkippedWhenDisabled(t *testing.T) {
	c := NewClient(Config{}, zap.NewNop())
	res, err := c.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Text: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.Reason != "EMAIL_DISABLED" {
		t.Errorf("got %+v, want skipped with EMAIL_DISABLED", res)
	}
}

func TestSendSkippedWhenIncomplete(t *testing.T) {
	c := NewClient(Config{Enabled: true, Host: "smtp.example.com", Port: 587}, zap.NewNop())
	res, err := c.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Text: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped {
		t.Fatal("incomplete config did not skip")
	}
	if !strings.Contains(res.Reason, "SMTP_USER") || !strings.Contains(res.Reason, "SMTP_PASS") {
		t.Errorf("reason %q does not name the missing vars", res.Reason)
	}
}

func TestSendTimeoutReleasesConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	released := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Never send the greeting; wait for the client to hang up.
		conn.Read(make([]byte, 1))
		conn.Close()
		close(released)
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	c := NewClient(Config{
		Enabled:     true,
		Host:        host,
		Port:        port,
		User:        "user",
		Pass:        "pass",
		SendTimeout: 200 * time.Millisecond,
	}, zap.NewNop())

	if _, err := c.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Text: "t"}); err == nil {
		t.Fatal("send against a mute server succeeded")
	}

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("smtp connection still open after send timed out")
	}
}

func TestAddressOf(t *testing.T) {
	if got := addressOf("TriLog <no-reply@trilog.local>"); got != "no-reply@trilog.local" {
		t.Errorf("got %q", got)
	}
	if got := addressOf("plain@trilog.local"); got != "plain@trilog.local" {
		t.Errorf("got %q", got)
	}
}
