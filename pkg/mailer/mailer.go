package mailer

import (
	"fmt"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Sender delivers one-time codes out-of-band. The OTP flows only depend on
// this interface, tests swap in a fake.
type Sender interface {
	SendOTP(toEmail, code string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	// dev mode: no SMTP credentials configured, codes are logged instead
	devMode bool
}

func New(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		devMode: cfg.Password == "",
	}
}

// SendOTP sends the plaintext code to the given address
func (m *SMTPMailer) SendOTP(toEmail, code string) error {
	if m.devMode {
		logger.Info("[DEV MODE] OTP email skipped", map[string]interface{}{
			"to":   toEmail,
			"code": code,
		})
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your LearnFlow verification code")

	body := fmt.Sprintf(`
		<h2>Email verification</h2>
		<p>Your one-time code for LearnFlow is:</p>
		<h1 style="letter-spacing: 4px;">%s</h1>
		<p>The code expires in a few minutes. If you did not request it, you can ignore this email.</p>
	`, code)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}
