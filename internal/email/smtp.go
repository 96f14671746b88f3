package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPProvider delivers email over plain SMTP, used as the fallback when the
// SendGrid API is unavailable.
type SMTPProvider struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

func NewSMTPProvider(host string, port int, username, password, from, fromName string) *SMTPProvider {
	return &SMTPProvider{
		host:     host,
		port:     fmt.Sprintf("%d", port),
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

func (p *SMTPProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return &SendResult{ProviderName: p.GetName(), Success: false, Error: err}, err
	}

	from := p.from
	if p.fromName != "" {
		from = fmt.Sprintf("%s <%s>", p.fromName, p.from)
	}

	headers := map[string]string{
		"From":         from,
		"To":           message.To,
		"Subject":      message.Subject,
		"MIME-Version": "1.0",
	}
	if message.ReplyTo != "" {
		headers["Reply-To"] = message.ReplyTo
	}

	var body string
	if message.BodyHTML != "" {
		headers["Content-Type"] = "text/html; charset=utf-8"
		body = message.BodyHTML
	} else {
		headers["Content-Type"] = "text/plain; charset=utf-8"
		body = message.Body
	}

	var builder strings.Builder
	for k, v := range headers {
		builder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	builder.WriteString("\r\n")
	builder.WriteString(body)

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}
	addr := net.JoinHostPort(p.host, p.port)

	if err := smtp.SendMail(addr, auth, p.from, []string{message.To}, []byte(builder.String())); err != nil {
		return &SendResult{ProviderName: p.GetName(), Success: false, Error: err}, err
	}
	return &SendResult{ProviderName: p.GetName(), Success: true}, nil
}

func (p *SMTPProvider) GetName() string {
	return "SMTP"
}
