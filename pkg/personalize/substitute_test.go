package personalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coldspark/outreach/pkg/models"
)

func TestSafeFirstName(t *testing.T) {
	tests := []struct {
		name    string
		company string
		want    string
	}{
		{"Maria Gonzalez", "Acme", "Maria"},
		{"", "Acme", "there"},
		{"   ", "Acme", "there"},
		{"The", "", "there"},
		{"the", "", "there"},
		{"The Tattoo Parlor", "", "there"},
		{"A Cut Above", "", "there"},
		{"An Apple A Day", "", "there"},
		{"Acme", "acme", "there"},
		{"ACME", "Acme", "there"},
		{"Anastasia Petrov", "", "Anastasia"}, // "an" prefix without a space is a real name
		{"Theo Baker", "", "Theo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFirstName(tt.name, tt.company))
		})
	}
}

func TestResolveSenderPrecedence(t *testing.T) {
	account := models.EmailAccount{
		Email:       "account@example.com",
		Name:        "Account Name",
		Company:     "Account Co",
		PhoneNumber: "111-1111",
	}

	t.Run("campaign overrides win", func(t *testing.T) {
		campaign := models.Campaign{
			CompanyName:   "Campaign Co",
			ContactNumber: "222-2222",
			PrimaryEmail:  "campaign@example.com",
		}

		sender := ResolveSender(campaign, account)
		assert.Equal(t, "Campaign Co", sender.Name)
		assert.Equal(t, "campaign@example.com", sender.Email)
		assert.Equal(t, "222-2222", sender.Phone)
		assert.Equal(t, "Campaign Co", sender.Company)
	})

	t.Run("account fields fill gaps", func(t *testing.T) {
		sender := ResolveSender(models.Campaign{}, account)
		assert.Equal(t, "Account Co", sender.Name)
		assert.Equal(t, "account@example.com", sender.Email)
		assert.Equal(t, "111-1111", sender.Phone)
		assert.Equal(t, "Account Co", sender.Company)
	})

	t.Run("account name before Sender fallback", func(t *testing.T) {
		bare := models.EmailAccount{Email: "bare@example.com", Name: "Nicolas"}
		sender := ResolveSender(models.Campaign{}, bare)
		assert.Equal(t, "Nicolas", sender.Name)
		assert.Equal(t, "", sender.Company)
		assert.Equal(t, "", sender.Phone)
	})

	t.Run("empty everything still yields a sender name", func(t *testing.T) {
		sender := ResolveSender(models.Campaign{}, models.EmailAccount{Email: "x@example.com"})
		assert.Equal(t, "Sender", sender.Name)
	})
}

func TestSubstituteBody(t *testing.T) {
	lead := models.Lead{
		Name:     "Maria Gonzalez",
		Company:  "Inkwell Studio",
		Title:    "Owner",
		Location: "Austin",
		Industry: "tattoo",
	}
	sender := SenderIdentity{
		Name:    "Nicolas",
		Email:   "nicolas@coldspark.org",
		Phone:   "555-0100",
		Company: "ColdSpark",
	}

	body := "Hi {{first_name}}, I saw {{company}} in {{location}}.\n\nBest,\n{{sender_name}}\n{{sender_email}}\n{{sender_phone}}\n{{sender_company}}"
	got := SubstituteBody(body, lead, sender)

	assert.Equal(t, "Hi Maria, I saw Inkwell Studio in Austin.\n\nBest,\nNicolas\nnicolas@coldspark.org\n555-0100\nColdSpark", got)
}

func TestSubstituteBodyLegacyTokens(t *testing.T) {
	sender := SenderIdentity{Email: "s@example.com", Phone: "555", Company: "Co"}

	got := SubstituteBody("{sender-email} <primaryemail> {phone-number} <contactnumber> <company>", models.Lead{}, sender)
	assert.Equal(t, "s@example.com s@example.com 555 555 Co", got)
}

func TestSubstituteBodyIndustryFallback(t *testing.T) {
	got := SubstituteBody("the {{industry}} space", models.Lead{}, SenderIdentity{})
	assert.Equal(t, "the industry space", got)
}

func TestSubstituteSubject(t *testing.T) {
	lead := models.Lead{Name: "The Shop", Company: "The Shop"}

	got := SubstituteSubject("Hi {{first_name}}, about {{company}}", lead)
	assert.Equal(t, "Hi there, about The Shop", got)
}
