package models

import "time"

// CampaignStatus is the lifecycle state of a campaign. Only campaigns in
// StatusInProgress are eligible for dispatch.
type CampaignStatus string

const (
	CampaignDraft      CampaignStatus = "draft"
	CampaignInProgress CampaignStatus = "in_progress"
	CampaignPaused     CampaignStatus = "paused"
	CampaignCompleted  CampaignStatus = "completed"
)

// Valid reports whether the status is one of the known campaign states.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignInProgress, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign is a named outreach effort owning schedules, templates and leads.
// CompanyName, ContactNumber and PrimaryEmail act as campaign-level overrides
// for the sender signature tokens.
type Campaign struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Status        CampaignStatus `json:"status"`
	CompanyName   string         `json:"company_name,omitempty"`
	ContactNumber string         `json:"contact_number,omitempty"`
	PrimaryEmail  string         `json:"primary_email,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Template is an email template belonging to a campaign. Subject and Content
// may contain recipient and sender tokens filled in at send time.
type Template struct {
	ID         int    `json:"id"`
	CampaignID int    `json:"campaign_id"`
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}
