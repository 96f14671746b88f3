package email

import "context"

// Message is an outbound email.
type Message struct {
	To       string
	Subject  string
	Body     string
	BodyHTML string
	ReplyTo  string
}

// SendResult reports which provider delivered a message.
type SendResult struct {
	ProviderName string
	Success      bool
	Error        error
}

// Provider delivers email through one transport.
type Provider interface {
	Send(ctx context.Context, message *Message) (*SendResult, error)
	GetName() string
}
