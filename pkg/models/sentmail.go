package models

import "time"

// SentMail is one record in the sent-mail log, kept so dispatched emails are
// visible in a unified inbox view alongside synchronized mail.
type SentMail struct {
	ID         int       `json:"id"`
	AccountID  int       `json:"account_id"`
	CampaignID int       `json:"campaign_id,omitempty"`
	Folder     string    `json:"folder"`
	UID        int64     `json:"uid"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	BodyText   string    `json:"body_text"`
	ReceivedAt time.Time `json:"received_at"`
	IsRead     bool      `json:"is_read"`
}
