package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer delivers security-relevant mail to users. Handlers depend on the
// interface so tests can swap in a recording stub.
type Mailer interface {
	SendResetLink(to, secret string, ttlMinutes int) error
	SendChangeCode(to, username, code string, ttlMinutes int) error
	SendPasswordChangedNotice(to string) error
}

type SMTPMailer struct{}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	from := viper.GetString("smtp.from")
	if from == "" {
		from = viper.GetString("smtp.user")
	}

	if to == "" {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(
		viper.GetString("smtp.host"),
		viper.GetInt("smtp.port"),
		viper.GetString("smtp.user"),
		viper.GetString("smtp.pass"),
	)

	return d.DialAndSend(msg)
}

// ResetURL builds the link placed in reset mails. The secret rides in the
// path so the reset page can pick it up.
func ResetURL(secret string) string {
	base := strings.TrimRight(viper.GetString("app.base_url"), "/")
	return fmt.Sprintf("%s/reset-password/%s", base, secret)
}

func (m *SMTPMailer) SendResetLink(to, secret string, ttlMinutes int) error {
	url := ResetURL(secret)

	return m.send(to, "[sns] Reset your password", fmt.Sprintf(
		`<p>Hello,</p>
<p>Click the button below to reset your password. This link is valid for %d minutes.</p>
<p style="margin: 24px 0;"><a href="%s" style="display: inline-block; padding: 10px 18px; background: #111; color: #fff; text-decoration: none; border-radius: 6px;">Reset password</a></p>
<p>If the button doesn't work, copy this link into your address bar:</p>
<p style="word-break: break-all; color: #555;">%s</p>
<p>If you didn't request this, you can ignore this mail.</p>`,
		ttlMinutes, url, url))
}

func (m *SMTPMailer) SendChangeCode(to, username, code string, ttlMinutes int) error {
	greeting := "Hello"
	if username != "" {
		greeting = "Hello, " + username
	}

	return m.send(to, "[sns] Password change verification code", fmt.Sprintf(
		`<p>%s.</p>
<p>Your verification code for changing your password is:</p>
<p style="font-size: 24px; font-weight: bold; letter-spacing: 6px; margin: 24px 0;">%s</p>
<p>Enter it within %d minutes, after that it expires automatically.</p>
<p>If you didn't request this, change your password immediately and review your account activity.</p>`,
		greeting, code, ttlMinutes))
}

func (m *SMTPMailer) SendPasswordChangedNotice(to string) error {
	return m.send(to, "[sns] Your password was changed",
		`<p>Hello,</p>
<p>The password for your account was just changed.</p>
<p>If you didn't request this change, reset your password immediately and review your account activity.</p>`)
}
