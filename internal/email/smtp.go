package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"binkeyit_backend/internal/config"
)

// SMTPProvider реализует Provider поверх gomail
type SMTPProvider struct {
	dialer    *gomail.Dialer
	renderer  TemplateRenderer
	fromEmail string
	fromName  string
	timeout   time.Duration
}

func NewSMTPProvider(cfg *config.Config, renderer TemplateRenderer) (*SMTPProvider, error) {
	if cfg.Email.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.Email.SMTPPort <= 0 || cfg.Email.SMTPPort > 65535 {
		return nil, fmt.Errorf("invalid SMTP port: %d", cfg.Email.SMTPPort)
	}

	return &SMTPProvider{
		dialer:    gomail.NewDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword),
		renderer:  renderer,
		fromEmail: cfg.Email.FromEmail,
		fromName:  cfg.Email.FromName,
		timeout:   cfg.Email.Timeout.Std(),
	}, nil
}

// Send отправляет сообщение. gomail не умеет контексты, поэтому
// отправка уходит в горутину, а здесь ждем результат или отмену.
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.fromEmail, p.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- p.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email send to %s aborted: %w", msg.To, ctx.Err())
	}
}

// SendVerification отправляет письмо верификации со ссылкой
func (p *SMTPProvider) SendVerification(ctx context.Context, to, name, verifyURL string) error {
	body, err := p.renderer.Render(TemplateVerification, TemplateData{
		"Name":      name,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return err
	}
	return p.Send(ctx, &Message{
		To:       to,
		Subject:  "Verify your email - Binkeyit",
		HTMLBody: body,
	})
}

// SendPasswordResetOTP отправляет одноразовый код сброса пароля
func (p *SMTPProvider) SendPasswordResetOTP(ctx context.Context, to, name, otp string) error {
	body, err := p.renderer.Render(TemplatePasswordResetOTP, TemplateData{
		"Name": name,
		"OTP":  otp,
	})
	if err != nil {
		return err
	}
	return p.Send(ctx, &Message{
		To:       to,
		Subject:  "Password reset code - Binkeyit",
		HTMLBody: body,
	})
}
