package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMIMEPlainText(t *testing.T) {
	raw := string(buildMIME(Message{
		From:    "sender@example.com",
		To:      "lead@example.com",
		Subject: "Quick question",
		Text:    "Hi there,\nJust following up.",
	}))

	assert.Contains(t, raw, "From: sender@example.com\r\n")
	assert.Contains(t, raw, "To: lead@example.com\r\n")
	assert.Contains(t, raw, "Subject: Quick question\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, raw, "Just following up.")
	assert.NotContains(t, raw, "multipart/alternative")
}

func TestBuildMIMEMultipart(t *testing.T) {
	raw := string(buildMIME(Message{
		From:     "sender@example.com",
		FromName: "Nicolas",
		To:       "lead@example.com",
		Subject:  "Quick question",
		Text:     "line one\nline two",
		HTML:     "line one<br/>line two",
	}))

	assert.Contains(t, raw, `From: "Nicolas" <sender@example.com>`)
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain; charset=utf-8")
	assert.Contains(t, raw, "text/html; charset=utf-8")
	assert.Contains(t, raw, "line one<br/>line two")

	// text part must come before the html part so clients prefer html
	assert.Less(t, strings.Index(raw, "text/plain"), strings.Index(raw, "text/html"))
}

func TestNewSMTPTransportDefaultTimeout(t *testing.T) {
	tr := NewSMTPTransport(0)
	assert.Greater(t, tr.timeout.Seconds(), 0.0)
}
