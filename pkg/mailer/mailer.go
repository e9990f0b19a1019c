package mailer

import "context"

// Server identifies one outgoing-mail server with credentials. Credentials
// arrive decrypted just-in-time; Server values must not be persisted.
type Server struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Message is one outbound email. HTML may be empty for plain-text mail.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Transport transmits one message through a sender account's mail server.
type Transport interface {
	Send(ctx context.Context, server Server, msg Message) error
}
