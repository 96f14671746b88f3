package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Copy per OTP purpose. Unknown types fall back to login.
var otpCopy = map[string]struct {
	Title       string
	Description string
}{
	"login": {
		Title:       "🔑 Cod de autentificare",
		Description: "Folosește codul de mai jos pentru a te autentifica:",
	},
	"2fa": {
		Title:       "🔐 Verificare în doi pași",
		Description: "Folosește codul de mai jos pentru a completa autentificarea:",
	},
	"email_change": {
		Title:       "📧 Confirmare schimbare email",
		Description: "Folosește codul de mai jos pentru a confirma noul email:",
	},
}

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 500px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 40px;">
    <h1 style="color: #8B5CF6; margin-bottom: 20px; font-size: 24px;">🔐 Resetare parolă</h1>
    <p>Ai solicitat resetarea parolei pentru contul tău HRL.dev.</p>
    <p>Apasă butonul de mai jos pentru a seta o parolă nouă:</p>
    <a href="{{.ResetLink}}" style="display: inline-block; background: #8B5CF6; color: #fff; text-decoration: none; padding: 14px 28px; border-radius: 8px; font-weight: 600; margin: 20px 0;">Resetează parola</a>
    <p style="word-break: break-all; font-size: 12px; color: #888; background: #f5f5f5; padding: 10px; border-radius: 6px;">Sau copiază acest link: {{.ResetLink}}</p>
    <p><strong>Acest link expiră în 1 oră.</strong></p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #888;">
      <p>Dacă nu ai solicitat resetarea parolei, poți ignora acest email.</p>
      <p>© HRL.dev</p>
    </div>
  </div>
</body>
</html>`))

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 500px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 40px;">
    <h1 style="color: #8B5CF6; margin-bottom: 20px; font-size: 24px;">✉️ Verifică adresa de email</h1>
    <p>Salut{{if .Name}} {{.Name}}{{end}}!</p>
    <p>Mulțumim că te-ai înregistrat pe HRL.dev! Te rugăm să confirmi adresa de email apăsând butonul de mai jos:</p>
    <a href="{{.VerificationLink}}" style="display: inline-block; background: #8B5CF6; color: #fff; text-decoration: none; padding: 14px 28px; border-radius: 8px; font-weight: 600; margin: 20px 0;">Verifică email-ul</a>
    <p style="word-break: break-all; font-size: 12px; color: #888; background: #f5f5f5; padding: 10px; border-radius: 6px;">Sau copiază acest link: {{.VerificationLink}}</p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #888;">
      <p>Dacă nu tu ai creat acest cont, poți ignora acest email.</p>
      <p>© HRL.dev</p>
    </div>
  </div>
</body>
</html>`))

var otpTmpl = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 500px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 40px; text-align: center;">
    <h1 style="color: #8B5CF6; margin-bottom: 20px; font-size: 24px;">{{.Title}}</h1>
    <p>{{.Description}}</p>
    <div style="font-size: 36px; font-weight: 700; letter-spacing: 8px; color: #8B5CF6; background: #F3F0FF; padding: 20px 30px; border-radius: 12px; margin: 30px 0; display: inline-block;">{{.Code}}</div>
    <p><strong>Acest cod expiră în 10 minute.</strong></p>
    <p style="color: #ef4444; font-weight: 500;">Nu împărtăși acest cod cu nimeni!</p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #888;">
      <p>Dacă nu ai solicitat acest cod, te rugăm să îți securizezi contul.</p>
      <p>© HRL.dev</p>
    </div>
  </div>
</body>
</html>`))

// SendPasswordReset mails the reset link to the account owner.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	var body bytes.Buffer
	if err := passwordResetTmpl.Execute(&body, struct{ ResetLink string }{resetLink}); err != nil {
		return fmt.Errorf("render password reset email: %w", err)
	}
	return m.send(ctx, &Message{
		To:       to,
		Subject:  "Resetează-ți parola - HRL.dev",
		BodyHTML: body.String(),
	})
}

// SendVerification mails the address confirmation link to a new account.
func (m *Mailer) SendVerification(ctx context.Context, to, verificationLink, name string) error {
	var body bytes.Buffer
	data := struct {
		VerificationLink string
		Name             string
	}{verificationLink, name}
	if err := verificationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}
	return m.send(ctx, &Message{
		To:       to,
		Subject:  "Verifică-ți adresa de email - HRL.dev",
		BodyHTML: body.String(),
	})
}

// SendOTP mails a one-time code. otpType selects the copy: login, 2fa or
// email_change.
func (m *Mailer) SendOTP(ctx context.Context, to, code, otpType string) error {
	copyFor, ok := otpCopy[otpType]
	if !ok {
		copyFor = otpCopy["login"]
	}

	var body bytes.Buffer
	data := struct {
		Title       string
		Description string
		Code        string
	}{copyFor.Title, copyFor.Description, code}
	if err := otpTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}
	return m.send(ctx, &Message{
		To:       to,
		Subject:  fmt.Sprintf("%s - HRL.dev", copyFor.Title),
		BodyHTML: body.String(),
	})
}
