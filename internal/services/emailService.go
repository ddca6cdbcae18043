package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

const otpEmailSubject = "Your Login OTP - Circle Calculator"

var ErrEmailNotConfigured = errors.New("email delivery not configured")

// EmailConfig holds the SMTP relay settings. From doubles as the SMTP username.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends OTP codes over SMTP. It implements Notifier.
type EmailService interface {
	Notifier
	Enabled() bool
}

type emailService struct {
	from   string
	sender mailSender
}

func NewEmailService(cfg EmailConfig) EmailService {
	if cfg.From == "" || cfg.Password == "" {
		log.Warn().Msg("Email not configured - OTP will be shown in console")
		return &emailService{}
	}
	// Port 465 makes gomail use implicit TLS.
	return &emailService{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password),
	}
}

func (e *emailService) Enabled() bool {
	return e.sender != nil
}

func (e *emailService) Send(ctx context.Context, to, code string) error {
	if !e.Enabled() {
		log.Info().Str("email", to).Str("otp", code).Msg("Email not configured - OTP shown in console")
		return ErrEmailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := buildOTPMessage(e.from, to, code)
	if err != nil {
		return err
	}

	log.Info().Str("email", to).Msg("Sending OTP email")
	if err := e.sender.DialAndSend(m); err != nil {
		if isAuthError(err) {
			log.Error().Err(err).Msg("SMTP authentication failed - check SMTP_EMAIL and SMTP_PASSWORD (use an app password, not the account password)")
		} else {
			log.Error().Err(err).Str("email", to).Msg("Failed to send OTP email")
		}
		return err
	}

	log.Info().Str("email", to).Msg("OTP email sent")
	return nil
}

func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code == 535 || tpErr.Code == 534
	}
	return strings.Contains(err.Error(), "535")
}

const otpEmailText = `Circle Calculator - Login OTP

Your One-Time Password (OTP) is: %s

This code will expire in %d minutes.

If you didn't request this code, please ignore this email.
`

var otpEmailHTML = template.Must(template.New("otp").Parse(`<html>
  <body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 8px;">
      <h2 style="color: #2c3e50;">Circle Calculator - Login OTP</h2>
      <p style="color: #555; font-size: 15px;">Your One-Time Password (OTP) is:</p>
      <div style="background-color: #f8f9fa; padding: 20px; text-align: center; border: 2px solid #2c3e50;">
        <h1 style="color: #2c3e50; font-size: 36px; letter-spacing: 8px; margin: 0; font-family: monospace;">{{.Code}}</h1>
      </div>
      <p style="color: #555; font-size: 14px;">This code will expire in <strong>{{.Minutes}} minutes</strong>.</p>
      <p style="color: #555; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
      <hr style="border: none; border-top: 1px solid #e0e0e0;">
      <p style="color: #999; font-size: 12px; margin: 0;">This is an automated email. Please do not reply.</p>
    </div>
  </body>
</html>
`))

func buildOTPMessage(from, to, code string) (*gomail.Message, error) {
	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ChallengeTTL.Minutes())}

	var html bytes.Buffer
	if err := otpEmailHTML.Execute(&html, data); err != nil {
		return nil, err
	}
	text := fmt.Sprintf(otpEmailText, code, data.Minutes)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", otpEmailSubject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html.String())
	return m, nil
}
