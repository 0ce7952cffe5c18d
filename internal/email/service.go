package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"stocktrack/internal/logging"
)

// Service sends transactional mail over an authenticated SMTP relay
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	fromName     string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromName string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		fromName:     fromName,
	}
}

var resetCodeTemplate = template.Must(template.New("resetCode").Parse(`
<!DOCTYPE html>
<html>
  <body>
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h2 style="color: #333;">Password Reset Request</h2>
      <p>Hello <strong>{{.Username}}</strong>,</p>
      <p>You requested a password reset for your Inventory System account.</p>
      <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; text-align: center; margin: 20px 0;">
        <p>Your reset code is:</p>
        <h1 style="font-size: 32px; color: #02ab21; letter-spacing: 5px; margin: 10px 0;">{{.Code}}</h1>
      </div>
      <p><strong>This code will expire in 15 minutes.</strong></p>
      <p>If you didn't request this reset, please ignore this email.</p>
      <hr style="margin: 30px 0;">
      <p style="color: #666;">Best regards,<br>{{.FromName}}</p>
    </div>
  </body>
</html>
`))

// SendResetCode emails a 6-digit password reset code. A delivery failure
// is returned to the caller; the stored code is unaffected by it.
func (s *Service) SendResetCode(ctx context.Context, toEmail, username, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	var buf bytes.Buffer
	data := struct {
		Username string
		Code     string
		FromName string
	}{
		Username: username,
		Code:     code,
		FromName: s.fromName,
	}

	if err := resetCodeTemplate.Execute(&buf, data); err != nil {
		logger.Error("failed to render reset code email", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	subject := "Password Reset Code - Inventory System"
	if err := s.sendEmail(toEmail, subject, buf.String()); err != nil {
		logger.Error("failed to send reset code email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("reset code email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromName, s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}
