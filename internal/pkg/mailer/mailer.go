/*
Package mailer sends transactional account emails (verification links and
password-reset links) over SMTP.

When no SMTP host is configured the mailer degrades to logging the links, which
keeps local development working without a mail relay.
*/
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"peerchat/internal/pkg/logx"
)

// Config holds the SMTP relay settings and the public base URL used to build
// the links embedded in the emails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// Mailer sends account lifecycle emails.
type Mailer interface {
	// SendVerification sends the email-verification link for a new account.
	SendVerification(to string, token string) error

	// SendPasswordReset sends the password-reset link.
	SendPasswordReset(to string, token string) error
}

// New returns an SMTP-backed Mailer, or a logging fallback when cfg.Host is empty.
func New(cfg Config) Mailer {
	if cfg.Host == "" {
		logx.Warn("SMTP host not configured. Account emails will be logged instead of sent.")
		return &logMailer{baseURL: cfg.BaseURL}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg Config
}

func (m *smtpMailer) SendVerification(to string, token string) error {
	subject := "Verify your PeerChat account"
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := fmt.Sprintf("Welcome to PeerChat!\r\n\r\nPlease confirm your email address by opening this link:\r\n%s\r\n", link)
	return m.send(to, subject, body)
}

func (m *smtpMailer) SendPasswordReset(to string, token string) error {
	subject := "Reset your PeerChat password"
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nThe link below is valid for one hour:\r\n%s\r\n\r\nIf you did not request this, you can ignore this email.\r\n", link)
	return m.send(to, subject, body)
}

func (m *smtpMailer) send(to string, subject string, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

// logMailer writes the links to the log instead of sending mail.
type logMailer struct {
	baseURL string
}

func (m *logMailer) SendVerification(to string, token string) error {
	logx.Info("Verification email (not sent)",
		"to", to,
		"link", fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(m.baseURL, "/"), token),
	)
	return nil
}

func (m *logMailer) SendPasswordReset(to string, token string) error {
	logx.Info("Password reset email (not sent)",
		"to", to,
		"link", fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.baseURL, "/"), token),
	)
	return nil
}
