package models

// Lead is a campaign recipient. PersonalizedEmail caches the JIT-generated
// body; it is cleared by the quality gate when a generated body fails
// validation so the next run regenerates it. AssignedAccountID is the sticky
// sender binding persisted by the round-robin assignment.
type Lead struct {
	ID                int    `json:"id"`
	CampaignID        int    `json:"campaign_id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Company           string `json:"company,omitempty"`
	Title             string `json:"title,omitempty"`
	Location          string `json:"location,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Summary           string `json:"summary,omitempty"`
	PersonalizedEmail string `json:"personalized_email,omitempty"`
	AssignedAccountID int    `json:"assigned_account_id,omitempty"`
}
