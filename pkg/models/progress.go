package models

import "time"

// ProgressStatus is the dispatch outcome for one (campaign, lead) pair.
// The set is closed; switches over it must be exhaustive.
type ProgressStatus string

const (
	ProgressPending ProgressStatus = "pending"
	ProgressSent    ProgressStatus = "sent"
	ProgressFailed  ProgressStatus = "failed"
)

// Valid reports whether the status is one of the known progress states.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressPending, ProgressSent, ProgressFailed:
		return true
	}
	return false
}

// DispatchProgress records the dispatch outcome for one (campaign, lead)
// pair. The (CampaignID, LeadID) pair is the natural key: every write is an
// upsert on it, never a plain insert, because the trigger offers
// at-least-once invocation.
type DispatchProgress struct {
	CampaignID int            `json:"campaign_id"`
	LeadID     int            `json:"lead_id"`
	AccountID  int            `json:"account_id"`
	Status     ProgressStatus `json:"status"`
	SentAt     *time.Time     `json:"sent_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// WarmupProgress tracks warm-up volume for one account on one calendar date.
// (AccountID, Date) is the natural upsert key.
type WarmupProgress struct {
	AccountID      int    `json:"account_id"`
	Date           string `json:"date"` // YYYY-MM-DD
	EmailsSent     int    `json:"emails_sent"`
	EmailsReceived int    `json:"emails_received"`
}

// WarmupDate formats a timestamp as the calendar-date key used by
// WarmupProgress rows.
func WarmupDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
