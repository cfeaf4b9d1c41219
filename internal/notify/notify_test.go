// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/storefront/pkg/errutil"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func newTestNotifier(t *testing.T, cfg SMTPConfig, sendErr error) (*SMTPNotifier, *[]sentMail) {
	t.Helper()
	n, err := NewSMTPNotifier(cfg)
	require.NoError(t, err)
	var sent []sentMail
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: msg})
		return sendErr
	}
	return n, &sent
}

func TestNewSMTPNotifier_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{"missing host", SMTPConfig{Port: 25, From: "a@b.co"}},
		{"bad port", SMTPConfig{Host: "localhost", From: "a@b.co"}},
		{"missing sender", SMTPConfig{Host: "localhost", Port: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTPNotifier(tt.cfg)
			errutil.AssertErrorCode(t, err, "NOTIFY_CONFIG_INVALID")
		})
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	cfg := SMTPConfig{Host: "mail.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@fullstackshop.com"}
	n, sent := newTestNotifier(t, cfg, nil)

	err := n.Send(context.Background(), Message{To: "bob@example.com", Subject: "Hi", HTML: "<p>hello</p>"})
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, "mail.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "noreply@fullstackshop.com", got.from)
	assert.Equal(t, []string{"bob@example.com"}, got.to)
	assert.Contains(t, string(got.msg), "Subject: Hi\r\n")
	assert.Contains(t, string(got.msg), "Content-Type: text/html")
	assert.True(t, bytes.HasSuffix(got.msg, []byte("\r\n\r\n<p>hello</p>")))
}

func TestSMTPNotifier_SendWithoutCredentials(t *testing.T) {
	n, sent := newTestNotifier(t, SMTPConfig{Host: "localhost", Port: 1025, From: "a@b.co"}, nil)

	require.NoError(t, n.Send(context.Background(), Message{To: "x@y.co", Subject: "s"}))
	require.Len(t, *sent, 1)
	assert.Nil(t, (*sent)[0].auth)
}

func TestSMTPNotifier_SendFailure(t *testing.T) {
	n, _ := newTestNotifier(t, SMTPConfig{Host: "localhost", Port: 25, From: "a@b.co"}, errors.New("connection refused"))

	err := n.Send(context.Background(), Message{To: "x@y.co", Subject: "s"})
	errutil.AssertErrorCode(t, err, "NOTIFY_SEND_FAILED")
	errutil.AssertErrorContext(t, err, "to", "x@y.co")
}

func TestSMTPNotifier_RejectsHeaderInjection(t *testing.T) {
	n, sent := newTestNotifier(t, SMTPConfig{Host: "localhost", Port: 25, From: "a@b.co"}, nil)

	err := n.Send(context.Background(), Message{To: "x@y.co\r\nBcc: z@y.co", Subject: "s"})
	errutil.AssertErrorCode(t, err, "NOTIFY_HEADER_INVALID")
	assert.Empty(t, *sent)
}

func TestSMTPNotifier_CancelledContext(t *testing.T) {
	n, sent := newTestNotifier(t, SMTPConfig{Host: "localhost", Port: 25, From: "a@b.co"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Send(ctx, Message{To: "x@y.co", Subject: "s"})
	errutil.AssertErrorCode(t, err, "NOTIFY_CANCELLED")
	assert.Empty(t, *sent)
}

func TestLogNotifier_Send(t *testing.T) {
	msg := Message{To: "x@y.co", Subject: "Reset", HTML: `<a href="/reset?resetToken=abc123">reset</a>`}

	t.Run("info omits body", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

		require.NoError(t, n.Send(context.Background(), msg))
		assert.Contains(t, buf.String(), `"to":"x@y.co"`)
		assert.Contains(t, buf.String(), `"subject":"Reset"`)
		assert.NotContains(t, buf.String(), "abc123")
	})

	t.Run("debug includes body", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		require.NoError(t, n.Send(context.Background(), msg))
		assert.Contains(t, buf.String(), "abc123")
	})
}
