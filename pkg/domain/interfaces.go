package domain

import (
	"context"
	"time"

	"github.com/coldspark/outreach/pkg/models"
)

// ScheduleStore defines data access for campaign schedules
type ScheduleStore interface {
	// ActiveSchedules returns schedules in the scheduled state whose owning
	// campaign is in_progress, joined with campaign and template. Window
	// filtering happens in the dispatcher.
	ActiveSchedules(ctx context.Context) ([]models.ScheduleJoin, error)

	// AccountsForSchedule returns the sender accounts assigned to a schedule.
	AccountsForSchedule(ctx context.Context, scheduleID int) ([]models.EmailAccount, error)

	// IncrementSentEmails bumps the schedule's running sent counter by one.
	IncrementSentEmails(ctx context.Context, scheduleID int) error
}

// LeadStore defines data access for campaign recipients
type LeadStore interface {
	// PendingLeads returns up to limit leads of the campaign that have no
	// progress row with status sent. When includeFailed is false, leads
	// already marked failed are excluded as well (failed is terminal unless
	// the retry policy is enabled).
	PendingLeads(ctx context.Context, campaignID, limit int, includeFailed bool) ([]models.Lead, error)

	// AssignAccount persists the sticky sender binding for a lead within a
	// campaign so later sequence steps reuse the same sender.
	AssignAccount(ctx context.Context, campaignID, leadID, accountID int) error

	// SavePersonalization caches a generated body on the lead.
	SavePersonalization(ctx context.Context, leadID int, body string) error

	// ClearPersonalization drops a cached body so the next run regenerates it.
	ClearPersonalization(ctx context.Context, leadID int) error
}

// ProgressStore defines dispatch bookkeeping writes. All writes are upserts
// on the (campaign_id, lead_id) natural key.
type ProgressStore interface {
	UpsertDispatch(ctx context.Context, p models.DispatchProgress) error
}

// AccountStore defines data access for sender accounts
type AccountStore interface {
	// WarmupCandidates returns accounts with warm-up enabled and status
	// enabled.
	WarmupCandidates(ctx context.Context) ([]models.EmailAccount, error)

	// TouchWarmupSent records the timestamp of the account's latest warm-up
	// send.
	TouchWarmupSent(ctx context.Context, accountID int, at time.Time) error
}

// WarmupStore defines warm-up volume bookkeeping. Writes are upserts on the
// (account_id, date) natural key.
type WarmupStore interface {
	SentToday(ctx context.Context, accountID int, date string) (int, error)
	IncrementSent(ctx context.Context, accountID int, date string) error
}

// SentMailStore appends to the sent-mail log consumed by the inbox view
type SentMailStore interface {
	Append(ctx context.Context, mail models.SentMail) error
}
