package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v3"

	"donorlink/internal/config"
)

type Service interface {
	SendOTPEmail(ctx context.Context, toEmail, name, code string, ttl time.Duration) error
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
}

type service struct {
	client *resend.Client
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	return &service{
		client: resend.NewClient(cfg.ResendAPIKey),
		config: cfg,
	}
}

var otpTmpl = template.Must(template.New("otp").Parse(`
<h2>Verify your registration</h2>
<p>Hi {{.Name}},</p>
<p>Your DonorLink verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not register, you can ignore this email.</p>
`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h2>Welcome to DonorLink</h2>
<p>Hi {{.Name}},</p>
<p>Your account is verified and ready. Sign in at <a href="http://{{.Domain}}/login">{{.Domain}}</a>.</p>
`))

func (s *service) sendEmail(toEmail, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("DonorLink <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}

	_, err := s.client.Emails.Send(params)
	return err
}

func (s *service) SendOTPEmail(ctx context.Context, toEmail, name, code string, ttl time.Duration) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
	}{
		Name:    name,
		Code:    code,
		Minutes: int(ttl.Minutes()),
	}
	return s.sendEmail(toEmail, "Your DonorLink verification code", otpTmpl, data)
}

func (s *service) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	data := struct {
		Name   string
		Domain string
	}{
		Name:   name,
		Domain: s.config.Domain,
	}
	return s.sendEmail(toEmail, "Welcome to DonorLink!", welcomeTmpl, data)
}
