package qualitygate

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/coldspark/outreach/pkg/ai/llm"
	"github.com/coldspark/outreach/pkg/logger"
)

// ValidationError marks an email the gate refused to send. The dispatcher
// maps it to a failed progress row and suppresses the send.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "email validation failed: " + e.Reason
}

// Email is one fully substituted email awaiting pre-send validation.
type Email struct {
	Subject      string
	Body         string
	SenderName   string
	LeadName     string
	LeadCompany  string
	Personalized bool
}

var (
	placeholderPattern = regexp.MustCompile(`\{\{.*?\}\}|\[.*?\]|<.*?>`)

	// Markup the substituted body legitimately contains; everything else
	// matched by placeholderPattern is an unreplaced token.
	benignTags = regexp.MustCompile(`(?i)^(<br\s*/?>|</?b>|</?p>|</?div>)$`)
)

// Gate validates emails with a deterministic placeholder scan followed by an
// AI audit. Checks short-circuit on first failure.
type Gate struct {
	llm llm.LLMClient
	log logger.Logger
}

// NewGate creates a quality gate.
func NewGate(client llm.LLMClient, log logger.Logger) *Gate {
	if log == nil {
		log = logger.Default()
	}
	return &Gate{llm: client, log: log}
}

// Validate returns nil when the email may be sent and a *ValidationError
// when it must not. A failure of the audit call itself is a validation
// failure, not a pass.
func (g *Gate) Validate(ctx context.Context, email Email) error {
	if scanPlaceholders(email.Body) || scanPlaceholders(email.Subject) {
		return &ValidationError{Reason: "contains unreplaced placeholders"}
	}

	verdict, err := g.audit(ctx, email)
	if err != nil {
		g.log.Warn("qa audit call failed", "error", err)
		return &ValidationError{Reason: "QA system error"}
	}

	if !verdict.Valid {
		return &ValidationError{Reason: "AI QA failed: " + verdict.Reason}
	}

	return nil
}

// scanPlaceholders reports whether text still contains a {{...}}, [...] or
// <...> token that is not benign markup.
func scanPlaceholders(text string) bool {
	for _, match := range placeholderPattern.FindAllString(text, -1) {
		if !benignTags.MatchString(match) {
			return true
		}
	}
	return false
}

type auditVerdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func (g *Gate) audit(ctx context.Context, email Email) (*auditVerdict, error) {
	resp, err := g.llm.ChatJSON(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: llm.AuditSystemPrompt},
			{Role: "user", Content: llm.AuditUserPrompt(email.Subject, email.Body, email.SenderName, email.LeadName, email.LeadCompany)},
		},
	})
	if err != nil {
		return nil, err
	}

	var verdict auditVerdict
	if err := json.Unmarshal([]byte(stripFences(resp.Message)), &verdict); err != nil {
		return nil, err
	}

	return &verdict, nil
}

// stripFences removes markdown code fences some models wrap JSON in despite
// the structured-output request.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
