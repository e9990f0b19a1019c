package personalize

import (
	"context"
	"strings"

	"github.com/coldspark/outreach/pkg/ai/llm"
	"github.com/coldspark/outreach/pkg/domain"
	"github.com/coldspark/outreach/pkg/logger"
	"github.com/coldspark/outreach/pkg/models"
)

// signatureBlock is appended to generated bodies, which omit a sign-off by
// instruction. The tokens are resolved during substitution.
const signatureBlock = "\n\nBest,\n{{sender_name}}\n{{sender_email}}\n{{sender_phone}}\n{{sender_company}}"

// Engine produces the pre-substitution email body for a lead, generating a
// personalized rewrite just-in-time when the lead carries research notes.
type Engine struct {
	llm   llm.LLMClient
	leads domain.LeadStore
	log   logger.Logger
}

// NewEngine creates a personalization engine.
func NewEngine(client llm.LLMClient, leads domain.LeadStore, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{llm: client, leads: leads, log: log}
}

// Compose returns the body for the lead and whether it is personalized.
//
// Priority: cached personalized body, then a fresh LLM rewrite when the lead
// has a summary, then the raw template. Generation failures fall back to the
// template rather than failing the lead. Personalized bodies get the
// signature block appended since generated text has no sign-off.
func (e *Engine) Compose(ctx context.Context, lead models.Lead, tmpl models.Template) (string, bool) {
	body, personalized := e.compose(ctx, lead, tmpl)
	if personalized {
		body += signatureBlock
	}
	return body, personalized
}

func (e *Engine) compose(ctx context.Context, lead models.Lead, tmpl models.Template) (string, bool) {
	if lead.PersonalizedEmail != "" {
		return lead.PersonalizedEmail, true
	}

	if lead.Summary == "" {
		return tmpl.Content, false
	}

	generated, err := e.generate(ctx, lead, tmpl)
	if err != nil {
		e.log.Warn("personalization failed, falling back to template",
			"lead_id", lead.ID, "error", err)
		return tmpl.Content, false
	}

	// Cache for later sequence steps; a write failure only costs a regen
	if err := e.leads.SavePersonalization(ctx, lead.ID, generated); err != nil {
		e.log.Warn("failed to cache personalized body", "lead_id", lead.ID, "error", err)
	}

	return generated, true
}

func (e *Engine) generate(ctx context.Context, lead models.Lead, tmpl models.Template) (string, error) {
	resp, err := e.llm.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: llm.PersonalizeSystemPrompt},
			{Role: "user", Content: llm.PersonalizeUserPrompt(tmpl.Content, lead.Company, lead.Summary)},
		},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Message), nil
}
