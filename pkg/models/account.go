package models

import "time"

// WarmupStatus is the warm-up state of a sender account.
type WarmupStatus string

const (
	WarmupDisabled WarmupStatus = "disabled"
	WarmupEnabled  WarmupStatus = "enabled"
	WarmupPaused   WarmupStatus = "paused"
)

// Valid reports whether the status is one of the known warm-up states.
func (s WarmupStatus) Valid() bool {
	switch s {
	case WarmupDisabled, WarmupEnabled, WarmupPaused:
		return true
	}
	return false
}

// EmailAccount is an outgoing-mail sender identity. EncryptedPassword is an
// opaque AES-GCM blob decrypted just-in-time for each send and never
// persisted in plaintext.
type EmailAccount struct {
	ID                int          `json:"id"`
	Email             string       `json:"email"`
	Name              string       `json:"name,omitempty"`
	Company           string       `json:"company,omitempty"`
	PhoneNumber       string       `json:"phone_number,omitempty"`
	Signature         string       `json:"signature,omitempty"`
	SMTPHost          string       `json:"smtp_host"`
	SMTPPort          int          `json:"smtp_port"`
	EncryptedPassword string       `json:"-"`
	WarmupEnabled     bool         `json:"warmup_enabled"`
	WarmupStatus      WarmupStatus `json:"warmup_status"`
	WarmupDailyLimit  int          `json:"warmup_daily_limit"`
	WarmupIncrease    int          `json:"warmup_increase_per_day"`
	WarmupStartDate   *time.Time   `json:"warmup_start_date,omitempty"`
	LastWarmupSentAt  *time.Time   `json:"last_warmup_sent_at,omitempty"`
}

// FromHeader renders the RFC 5322 From value for the account, quoting the
// display name when one is set.
func (a EmailAccount) FromHeader() string {
	if a.Name != "" {
		return `"` + a.Name + `" <` + a.Email + `>`
	}
	return a.Email
}
