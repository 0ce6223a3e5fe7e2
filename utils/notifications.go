package utils

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"sdssn/models"
)

var errNoRecipient = errors.New("recipient e-mail not loaded")

// MailNotifier sends certification notices by e-mail.
type MailNotifier struct {
	Mailer Mailer
}

func (n *MailNotifier) NotifyApproved(ctx context.Context, req *models.CertificationRequest) error {
	if req.User == nil || req.User.Email == "" {
		return errNoRecipient
	}
	certName := "your certification"
	if req.Certification != nil {
		certName = req.Certification.Name
	}
	serial := ""
	if req.Membership != nil {
		serial = req.Membership.SerialNo
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your request for <strong>%s</strong> has been approved.</p>
		<div class="info-box">
			<strong>Certificate serial:</strong> %s
		</div>
		<p>Your membership becomes active once payment is confirmed.</p>
	`, html.EscapeString(req.FullName), html.EscapeString(certName), html.EscapeString(serial))

	return n.Mailer.Send(ctx, []string{req.User.Email}, "Certification Request Approved", getEmailTemplate("Request Approved", body))
}

func (n *MailNotifier) NotifyRejected(ctx context.Context, req *models.CertificationRequest) error {
	if req.User == nil || req.User.Email == "" {
		return errNoRecipient
	}
	note := ""
	if req.ManagementNote != "" {
		note = fmt.Sprintf(`<div class="info-box">%s</div>`, html.EscapeString(req.ManagementNote))
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We are sorry to inform you that your certification request was not approved.</p>
		%s
		<p>Contact SDSSN if you believe this is an error.</p>
	`, html.EscapeString(req.FullName), note)

	return n.Mailer.Send(ctx, []string{req.User.Email}, "Certification Request Rejected", getEmailTemplate("Request Rejected", body))
}

func (n *MailNotifier) NotifyExpiring(ctx context.Context, m *models.Membership) error {
	if m.User == nil || m.User.Email == "" {
		return errNoRecipient
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your membership <strong>%s</strong> expires on <strong>%s</strong>.</p>
		<p>Please renew to keep your certificate valid.</p>
	`, html.EscapeString(m.FullName), html.EscapeString(m.SerialNo), time.Time(m.ExpiresOn).Format("02 Jan 2006"))

	return n.Mailer.Send(ctx, []string{m.User.Email}, "Membership Expiry Reminder", getEmailTemplate("Membership Expiring Soon", body))
}

// SendOTP delivers a one-time code.
func (n *MailNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	if user.Email == "" {
		return errNoRecipient
	}
	body := fmt.Sprintf(`
		<p>Your One Time Password (OTP) is:</p>
		<h1 style="text-align: center; letter-spacing: 4px;">%s</h1>
		<p>Do not share this OTP with anyone. It expires in a few minutes.</p>
	`, code)

	return n.Mailer.Send(ctx, []string{user.Email}, "OTP Verification Code", getEmailTemplate("Verify your account", body))
}
