// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/storefront/internal/auth"
)

// Account email subjects.
const (
	SubjectConfirm = "Please confirm your account!"
	SubjectReset   = "Your Password Reset Token"
)

var accountTemplate = template.Must(template.New("account").Parse(`<div style="border: 1px solid black; padding: 20px; font-family: sans-serif; line-height: 2; font-size: 20px;">
  <h2>Hello There!</h2>
  <p>{{.Intro}}</p>
  <p><a href="{{.Link}}">{{.Action}}</a></p>
  <p>Thanks, Fullstack Shop</p>
</div>`))

type accountEmail struct {
	Intro  string
	Action string
	Link   string
}

// AccountMailer renders account emails and hands them to a Notifier.
type AccountMailer struct {
	notifier    Notifier
	frontendURL string
}

// NewAccountMailer creates an AccountMailer linking to frontendURL.
func NewAccountMailer(notifier Notifier, frontendURL string) (*AccountMailer, error) {
	if notifier == nil {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("notifier is required")
	}
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").
			With("frontend_url", frontendURL).
			Errorf("frontend url must be absolute")
	}
	return &AccountMailer{notifier: notifier, frontendURL: strings.TrimRight(frontendURL, "/")}, nil
}

// SendConfirm emails the account confirmation link.
func (m *AccountMailer) SendConfirm(ctx context.Context, to, token string) error {
	return m.send(ctx, to, SubjectConfirm, accountEmail{
		Intro:  "Please confirm your account by following the link below.",
		Action: "Click here to confirm",
		Link:   m.link("/confirm", "confirmToken", token),
	})
}

// SendReset emails the password reset link.
func (m *AccountMailer) SendReset(ctx context.Context, to, token string) error {
	return m.send(ctx, to, SubjectReset, accountEmail{
		Intro:  "Your password reset token is here! It expires in 15 minutes.",
		Action: "Click here to reset",
		Link:   m.link("/reset", "resetToken", token),
	})
}

func (m *AccountMailer) link(path, param, token string) string {
	return m.frontendURL + path + "?" + url.Values{param: {token}}.Encode()
}

func (m *AccountMailer) send(ctx context.Context, to, subject string, data accountEmail) error {
	var body bytes.Buffer
	if err := accountTemplate.Execute(&body, data); err != nil {
		return oops.Code("NOTIFY_RENDER_FAILED").With("subject", subject).Wrap(err)
	}
	//nolint:wrapcheck // notifier errors already carry codes
	return m.notifier.Send(ctx, Message{To: to, Subject: subject, HTML: body.String()})
}

var _ auth.AccountMailer = (*AccountMailer)(nil)
