package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ConfigState is the explicit configuration state of the mail transport.
type ConfigState int

const (
	StateDisabled ConfigState = iota
	StateMissing
	StateReady
)

func (s ConfigState) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateMissing:
		return "missing"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

type Status struct {
	State   ConfigState
	Missing []string
}

func (s Status) Ready() bool { return s.State == StateReady }

type Config struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Pass        string
	Secure      bool
	From        string
	SendTimeout time.Duration
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Result distinguishes a real send from a config-driven no-op. Skipped is not
// an error: callers that see it must not mark anything as delivered.
type Result struct {
	Skipped   bool
	Reason    string
	MessageID string
}

// Client sends email over SMTP. It is constructed once at startup and passed
// by reference to whoever needs it.
type Client struct {
	cfg Config
	log *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.From == "" {
		cfg.From = "TriLog <no-reply@trilog.local>"
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 20 * time.Second
	}
	return &Client{cfg: cfg, log: log.Named("mail")}
}

func (c *Client) Status() Status {
	if !c.cfg.Enabled {
		return Status{State: StateDisabled}
	}
	var missing []string
	if c.cfg.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.cfg.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if c.cfg.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.cfg.Pass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if len(missing) > 0 {
		return Status{State: StateMissing, Missing: missing}
	}
	return Status{State: StateReady}
}

// Send delivers the message, or returns Result{Skipped: true} when the
// transport is disabled or incomplete.
func (c *Client) Send(ctx context.Context, msg Message) (Result, error) {
	st := c.Status()
	if !st.Ready() {
		reason := "EMAIL_DISABLED"
		if st.State == StateMissing {
			reason = "SMTP_INCOMPLETE: " + strings.Join(st.Missing, ",")
		}
		return Result{Skipped: true, Reason: reason}, nil
	}

	msgID := fmt.Sprintf("<%d.%s@trilog>", time.Now().UnixNano(), sanitizeLocal(msg.To))
	body := c.buildMIME(msg, msgID)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.deliver(ctx, msg.To, body)
	}()

	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("smtp send timed out after %s", c.cfg.SendTimeout)
	case err := <-done:
		if err != nil {
			return Result{}, err
		}
	}

	c.log.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return Result{MessageID: msgID}, nil
}

func (c *Client) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, c.cfg.SendTimeout)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// A hung server must not strand this goroutine past the send timeout.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if c.cfg.Secure {
		conn = tls.Client(conn, &tls.Config{ServerName: c.cfg.Host})
	}

	sc, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer sc.Close()

	if !c.cfg.Secure {
		if ok, _ := sc.Extension("STARTTLS"); ok {
			if err := sc.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", c.cfg.User, c.cfg.Pass, c.cfg.Host)
	if err := sc.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := sc.Mail(addressOf(c.cfg.From)); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := sc.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := sc.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return sc.Quit()
}

func (c *Client) buildMIME(msg Message, msgID string) []byte {
	boundary := "trilog-" + strconv.FormatInt(time.Now().UnixNano(), 36)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", msgID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func addressOf(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}

func sanitizeLocal(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '.'
	}, s)
	return s
}
