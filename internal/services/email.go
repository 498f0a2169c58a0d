package services

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sapbridge/sapbridge-api/internal/config"
)

// EmailService delivers transactional mail over SMTP. When SMTP is not
// configured every send is a silent no-op so invite flows still work
// in local setups, the invite just has to be shared out of band.
type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}

func (s *EmailService) SendOrganizationInvite(to, orgName, inviterName, inviteURL string) error {
	subject := fmt.Sprintf("You've been invited to join %s", orgName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Organization Invitation</h2>
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to join <strong>%s</strong> on SAP Bridge.</p>
			<p><a href="%s">View and respond to this invitation</a></p>
			<p>If you were not expecting this invitation you can ignore this email.</p>
		</body>
		</html>
	`, inviterName, orgName, inviteURL)

	return s.Send(to, subject, body)
}
