package llm

import "fmt"

// System prompts for the outreach engine

const (
	// PersonalizeSystemPrompt constrains tone and length for JIT rewrites.
	// The generated body deliberately has no sign-off; the engine appends a
	// signature block afterwards.
	PersonalizeSystemPrompt = `You are a friendly B2B professional companion.
REWRITE the email body for a specific lead.
Goal: Use the provided NOTES to make a relatable, "fan-like" observation.
Instructions:
1. Use the notes/summary to show you actually know them. Be specific.
2. Tone: Admiring, witty, warm.
3. Length: VERY SHORT (<100 words).
4. Output: ONLY the email body text. NO SIGN-OFF.
`

	// AuditSystemPrompt turns the model into a strict pre-send QA auditor.
	AuditSystemPrompt = `You are a strict QA Auditor for B2B emails.
Check the email for:
1. Unfilled placeholders (e.g. {{name}}, [Company]).
2. Awkward starts like "Hi The," or "Hi A," or "Hi [Company]".
3. Missing signatures or abrupt endings (e.g. ending with "Cheers," but no name).
4. Generic/Robotic tone if it's supposed to be personalized.
5. Bad formatting (excessive newlines).

Return JSON ONLY: { "valid": boolean, "reason": "string" }`
)

// PersonalizeUserPrompt builds the rewrite instruction for one lead.
func PersonalizeUserPrompt(templateBody, company, summary string) string {
	return fmt.Sprintf(`Template Body: %q
Lead Company: %s
Lead Summary: %q
Rewrite the email body for this lead.`, templateBody, company, summary)
}

// AuditUserPrompt builds the QA check input for one rendered email.
func AuditUserPrompt(subject, body, senderName, leadName, leadCompany string) string {
	if senderName == "" {
		senderName = "(MISSING)"
	}
	return fmt.Sprintf(`Subject: %s
Body:
%s

--
Sender Name: %s
Lead Name: %s
Lead Company: %s

Is this email ready to send?`, subject, body, senderName, leadName, leadCompany)
}
