// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/storefront/internal/notify"
	"github.com/holomush/storefront/pkg/errutil"
)

type recordingNotifier struct {
	sent []notify.Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestNewAccountMailer_Validation(t *testing.T) {
	_, err := notify.NewAccountMailer(nil, "https://shop.example.com")
	errutil.AssertErrorCode(t, err, "NOTIFY_CONFIG_INVALID")

	_, err = notify.NewAccountMailer(&recordingNotifier{}, "shop.example.com")
	errutil.AssertErrorCode(t, err, "NOTIFY_CONFIG_INVALID")
}

func TestAccountMailer_SendConfirm(t *testing.T) {
	rec := &recordingNotifier{}
	m, err := notify.NewAccountMailer(rec, "https://shop.example.com/")
	require.NoError(t, err)

	require.NoError(t, m.SendConfirm(context.Background(), "bob@example.com", "abc123"))

	require.Len(t, rec.sent, 1)
	msg := rec.sent[0]
	assert.Equal(t, "bob@example.com", msg.To)
	assert.Equal(t, notify.SubjectConfirm, msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://shop.example.com/confirm?confirmToken=abc123"`)
}

func TestAccountMailer_SendReset(t *testing.T) {
	rec := &recordingNotifier{}
	m, err := notify.NewAccountMailer(rec, "http://localhost:7777")
	require.NoError(t, err)

	require.NoError(t, m.SendReset(context.Background(), "bob@example.com", "deadbeef"))

	require.Len(t, rec.sent, 1)
	assert.Equal(t, notify.SubjectReset, rec.sent[0].Subject)
	assert.Contains(t, rec.sent[0].HTML, `href="http://localhost:7777/reset?resetToken=deadbeef"`)
}

func TestAccountMailer_PropagatesNotifierError(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("relay down")}
	m, err := notify.NewAccountMailer(rec, "https://shop.example.com")
	require.NoError(t, err)

	err = m.SendReset(context.Background(), "bob@example.com", "ff")
	assert.EqualError(t, err, "relay down")
}
