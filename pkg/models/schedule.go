package models

import "time"

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// Schedule is a time-windowed sending plan for one template within one
// campaign. Only its running counters are mutated by the dispatcher.
type Schedule struct {
	ID                  int            `json:"id"`
	CampaignID          int            `json:"campaign_id"`
	TemplateID          int            `json:"template_id"`
	Status              ScheduleStatus `json:"status"`
	StartDate           time.Time      `json:"start_date"`
	EndDate             time.Time      `json:"end_date"`
	DailyLimit          int            `json:"daily_limit"`
	SendIntervalMinutes int            `json:"send_interval_minutes"`
	PerAccountLimit     int            `json:"per_account_limit"`
	SentEmails          int            `json:"sent_emails"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// InWindow reports whether now falls inside the schedule's send window.
// Both bounds are inclusive.
func (s Schedule) InWindow(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// ScheduleJoin is a schedule joined with its owning campaign and template,
// as returned by the active-schedule selection.
type ScheduleJoin struct {
	Schedule Schedule `json:"schedule"`
	Campaign Campaign `json:"campaign"`
	Template Template `json:"template"`
}

// ScheduleAccount links a schedule to one sender account, carrying the
// remaining volume this account may send for the schedule.
type ScheduleAccount struct {
	ScheduleID      int `json:"schedule_id"`
	AccountID       int `json:"account_id"`
	RemainingVolume int `json:"remaining_volume"`
}
