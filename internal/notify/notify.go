// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package notify delivers outbound email for the storefront.
package notify

import (
	"context"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends a message. Send returns once the message is handed to the transport.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends messages through an SMTP relay.
type SMTPNotifier struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").With("port", cfg.Port).Errorf("smtp port must be positive")
	}
	if cfg.From == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("sender address is required")
	}
	return &SMTPNotifier{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers msg. The SMTP client has no context support, so ctx is only
// checked before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_CANCELLED").Wrap(err)
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return oops.Code("NOTIFY_HEADER_INVALID").With("to", msg.To).Errorf("header contains a line break")
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.sendMail(addr, auth, n.cfg.From, []string{msg.To}, buildMessage(n.cfg.From, msg)); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("to", msg.To).
			With("subject", msg.Subject).
			Wrap(err)
	}
	return nil
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// LogNotifier writes messages to a logger instead of sending them.
// Used in development when no SMTP relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the recipient and subject at info level. The body carries account
// tokens, so it is only logged at debug level.
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "email not sent, no smtp relay configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	n.logger.DebugContext(ctx, "unsent email body", "to", msg.To, "body", msg.HTML)
	return nil
}

var (
	_ Notifier = (*SMTPNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
