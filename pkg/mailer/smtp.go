package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// Ensure SMTPTransport implements Transport
var _ Transport = (*SMTPTransport)(nil)

// SMTPTransport delivers mail over SMTP. Port 465 uses implicit TLS;
// any other port upgrades with STARTTLS when the server offers it.
type SMTPTransport struct {
	timeout time.Duration
}

// NewSMTPTransport creates an SMTP transport with the given dial timeout.
func NewSMTPTransport(timeout time.Duration) *SMTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPTransport{timeout: timeout}
}

// Send transmits one message and returns once the server accepts it.
func (t *SMTPTransport) Send(ctx context.Context, server Server, msg Message) error {
	addr := fmt.Sprintf("%s:%d", server.Host, server.Port)

	conn, err := t.dial(ctx, addr, server)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, server.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake %s: %w", addr, err)
	}
	defer client.Close()

	// Opportunistic STARTTLS on submission ports
	if server.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: server.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if ok, _ := client.Extension("AUTH"); ok && server.Username != "" {
		auth := smtp.PlainAuth("", server.Username, server.Password, server.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMIME(msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) dial(ctx context.Context, addr string, server Server) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.timeout}

	if server.Port == 465 {
		return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: server.Host})
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

// buildMIME renders the message as multipart/alternative when both bodies
// are present, plain text otherwise.
func buildMIME(msg Message) []byte {
	var b strings.Builder

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", msg.FromName, msg.From)
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
		b.WriteString("\r\n")
		return []byte(b.String())
	}

	var body strings.Builder
	mw := multipart.NewWriter(&body)

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	textPart, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	fmt.Fprint(textPart, msg.Text)

	htmlPart, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	fmt.Fprint(htmlPart, msg.HTML)

	mw.Close()

	b.WriteString(body.String())
	return []byte(b.String())
}
