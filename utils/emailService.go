package utils

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"sdssn/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

const senderName = "SDSSN"

// Mailer delivers one HTML e-mail.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// NewMailer builds the transport chosen by MAIL_DRIVER.
func NewMailer(cfg *config.Config, log *logrus.Logger) Mailer {
	switch cfg.MailDriver {
	case "sendgrid":
		return &SendGridMailer{client: sendgrid.NewSendClient(cfg.SendGridAPIKey), from: cfg.EmailSender}
	case "log":
		return &LogMailer{Log: log}
	default:
		return &SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.EmailSender,
			Password: cfg.Password,
		}
	}
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Password string
}

func (m *SMTPMailer) Send(_ context.Context, to []string, subject, htmlBody string) error {
	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: %s <%s>\r\n", senderName, m.From)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   string
}

func (m *SendGridMailer) Send(_ context.Context, to []string, subject, htmlBody string) error {
	from := mail.NewEmail(senderName, m.from)
	for _, addr := range to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", addr), stripTags(htmlBody), htmlBody)
		resp, err := m.client.Send(message)
		if err != nil {
			return fmt.Errorf("sendgrid send: %w", err)
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
		}
	}
	return nil
}

// LogMailer only logs. Used with MAIL_DRIVER=log.
type LogMailer struct {
	Log *logrus.Logger
}

func (m *LogMailer) Send(_ context.Context, to []string, subject, _ string) error {
	m.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail suppressed")
	return nil
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// getEmailTemplate wraps body content in the house layout
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #0B3D2E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #0B3D2E; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F5EE; padding: 15px; border-radius: 4px; border-left: 4px solid #1E8F5A; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>SDSSN</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; SDSSN. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
