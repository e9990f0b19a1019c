package personalize

import (
	"strings"

	"github.com/coldspark/outreach/pkg/models"
)

// SenderIdentity holds the resolved signature fields for one send.
type SenderIdentity struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// ResolveSender resolves signature tokens with explicit precedence:
// campaign-level override first, then the sender account's own field, then
// empty (the name falls back to "Sender" so a signature is never headless).
func ResolveSender(campaign models.Campaign, account models.EmailAccount) SenderIdentity {
	return SenderIdentity{
		Name:    firstNonEmpty(campaign.CompanyName, account.Company, account.Name, "Sender"),
		Email:   firstNonEmpty(campaign.PrimaryEmail, account.Email),
		Phone:   firstNonEmpty(campaign.ContactNumber, account.PhoneNumber),
		Company: firstNonEmpty(campaign.CompanyName, account.Company),
	}
}

// SafeFirstName returns the salutation name for a lead. Empty names,
// stopword-led names ("the", "a", "an") and names that are really the company
// name all collapse to the literal "there", preventing greetings like
// "Hi The," or "Hi Acme,".
func SafeFirstName(name, company string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "there"
	}

	lower := strings.ToLower(trimmed)

	switch lower {
	case "the", "a", "an":
		return "there"
	}
	if strings.HasPrefix(lower, "the ") || strings.HasPrefix(lower, "a ") || strings.HasPrefix(lower, "an ") {
		return "there"
	}
	if company != "" && lower == strings.ToLower(company) {
		return "there"
	}

	return strings.Fields(trimmed)[0]
}

// SubstituteBody fills recipient and sender tokens in a body. The legacy
// token variants ({sender-email}, <primaryemail>, {phone-number},
// <contactnumber>, <company>) survive from older templates and are still
// honored.
func SubstituteBody(body string, lead models.Lead, sender SenderIdentity) string {
	industry := lead.Industry
	if industry == "" {
		industry = "industry"
	}

	r := strings.NewReplacer(
		"{{name}}", lead.Name,
		"{{company}}", lead.Company,
		"{{first_name}}", SafeFirstName(lead.Name, lead.Company),
		"{{title}}", lead.Title,
		"{{location}}", lead.Location,
		"{{industry}}", industry,
		"{{sender_name}}", sender.Name,
		"{{sender_email}}", sender.Email,
		"{sender-email}", sender.Email,
		"<primaryemail>", sender.Email,
		"{{sender_phone}}", sender.Phone,
		"{phone-number}", sender.Phone,
		"<contactnumber>", sender.Phone,
		"{{sender_company}}", sender.Company,
		"<company>", sender.Company,
	)

	return r.Replace(body)
}

// SubstituteSubject fills recipient tokens in a subject line.
func SubstituteSubject(subject string, lead models.Lead) string {
	r := strings.NewReplacer(
		"{{company}}", lead.Company,
		"{{name}}", lead.Name,
		"{{first_name}}", SafeFirstName(lead.Name, lead.Company),
	)

	return r.Replace(subject)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
