package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/coldspark/outreach/pkg/domain"
	"github.com/coldspark/outreach/pkg/logger"
	"github.com/coldspark/outreach/pkg/mailer"
	"github.com/coldspark/outreach/pkg/metrics"
	"github.com/coldspark/outreach/pkg/models"
	"github.com/coldspark/outreach/pkg/personalize"
	"github.com/coldspark/outreach/pkg/qualitygate"
	"github.com/coldspark/outreach/pkg/secrets"
)

// DefaultBatchSize caps leads processed per campaign per run so one run stays
// well inside the trigger interval.
const DefaultBatchSize = 5

// LeadStatus is the outcome of one lead within a run.
type LeadStatus string

const (
	StatusSent    LeadStatus = "sent"
	StatusFailed  LeadStatus = "failed"
	StatusSkipped LeadStatus = "skipped"
)

// LeadOutcome describes what happened to one lead during a run.
type LeadOutcome struct {
	CampaignID int        `json:"campaign_id"`
	LeadID     int        `json:"lead_id"`
	Email      string     `json:"email"`
	Account    string     `json:"account,omitempty"`
	Status     LeadStatus `json:"status"`
	Reason     string     `json:"reason,omitempty"`
}

// Summary is the result of one dispatch run.
type Summary struct {
	Schedules int           `json:"schedules"`
	Sent      int           `json:"sent"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Processed []LeadOutcome `json:"processed,omitempty"`
}

// Stores groups the store contracts the dispatcher needs.
type Stores struct {
	Schedules domain.ScheduleStore
	Leads     domain.LeadStore
	Progress  domain.ProgressStore
	SentMail  domain.SentMailStore
}

// Options tunes a Dispatcher. Zero values select defaults.
type Options struct {
	BatchSize   int
	RetryFailed bool
	Now         func() time.Time
	Rand        *rand.Rand
	Metrics     *metrics.Metrics
	Logger      logger.Logger
}

// Dispatcher walks active schedules and sends the next batch of campaign
// emails. Runs are idempotent: progress writes are upserts and already-sent
// leads are never re-selected, so overlapping or re-delivered trigger
// invocations converge.
type Dispatcher struct {
	stores    Stores
	engine    *personalize.Engine
	gate      *qualitygate.Gate
	transport mailer.Transport
	cipher    *secrets.Cipher

	batchSize   int
	retryFailed bool
	now         func() time.Time
	rand        *rand.Rand
	metrics     *metrics.Metrics
	log         logger.Logger
}

// New creates a Dispatcher.
func New(stores Stores, engine *personalize.Engine, gate *qualitygate.Gate, transport mailer.Transport, cipher *secrets.Cipher, opts Options) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	return &Dispatcher{
		stores:      stores,
		engine:      engine,
		gate:        gate,
		transport:   transport,
		cipher:      cipher,
		batchSize:   opts.BatchSize,
		retryFailed: opts.RetryFailed,
		now:         opts.Now,
		rand:        opts.Rand,
		metrics:     opts.Metrics,
		log:         opts.Logger,
	}
}

// Run processes one batch for every active schedule using the configured
// batch size.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	return d.RunWithLimit(ctx, d.batchSize)
}

// RunWithLimit processes one batch per active schedule, capped at limit leads
// per campaign.
func (d *Dispatcher) RunWithLimit(ctx context.Context, limit int) (*Summary, error) {
	start := d.now()
	if limit <= 0 {
		limit = d.batchSize
	}

	schedules, err := d.stores.Schedules.ActiveSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active schedules: %w", err)
	}

	summary := &Summary{}
	for _, join := range schedules {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !join.Schedule.InWindow(d.now()) {
			continue
		}
		summary.Schedules++
		d.runSchedule(ctx, join, limit, summary)
	}

	if d.metrics != nil {
		d.metrics.RecordDispatchRun(len(summary.Processed), time.Since(start))
	}

	d.log.Info("dispatch run complete",
		"schedules", summary.Schedules, "sent", summary.Sent,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

func (d *Dispatcher) runSchedule(ctx context.Context, join models.ScheduleJoin, limit int, summary *Summary) {
	accounts, err := d.stores.Schedules.AccountsForSchedule(ctx, join.Schedule.ID)
	if err != nil {
		d.log.Error("failed to load schedule accounts", "schedule_id", join.Schedule.ID, "error", err)
		return
	}
	if len(accounts) == 0 {
		d.log.Warn("schedule has no sender accounts", "schedule_id", join.Schedule.ID)
		return
	}

	leads, err := d.stores.Leads.PendingLeads(ctx, join.Campaign.ID, limit, d.retryFailed)
	if err != nil {
		d.log.Error("failed to load pending leads", "campaign_id", join.Campaign.ID, "error", err)
		return
	}

	rotation := 0
	for _, lead := range leads {
		outcome := d.processLead(ctx, join, lead, accounts, &rotation)
		summary.Processed = append(summary.Processed, outcome)
		switch outcome.Status {
		case StatusSent:
			summary.Sent++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}
}

// processLead takes one lead through assignment, composition, substitution,
// validation and transmission. rotation is the schedule's in-run round-robin
// cursor, advanced only when a fresh assignment is made.
func (d *Dispatcher) processLead(ctx context.Context, join models.ScheduleJoin, lead models.Lead, accounts []models.EmailAccount, rotation *int) LeadOutcome {
	outcome := LeadOutcome{CampaignID: join.Campaign.ID, LeadID: lead.ID, Email: lead.Email}

	account, err := d.selectAccount(ctx, join.Campaign.ID, lead, accounts, rotation)
	if err != nil {
		d.log.Error("sender assignment failed", "lead_id", lead.ID, "error", err)
		outcome.Status = StatusSkipped
		outcome.Reason = "sender assignment failed"
		return outcome
	}
	outcome.Account = account.Email

	body, personalized := d.engine.Compose(ctx, lead, join.Template)
	sender := personalize.ResolveSender(join.Campaign, account)
	body = personalize.SubstituteBody(body, lead, sender)
	subject := personalize.SubstituteSubject(join.Template.Subject, lead)

	if err := d.gate.Validate(ctx, qualitygate.Email{
		Subject:      subject,
		Body:         body,
		SenderName:   sender.Name,
		LeadName:     lead.Name,
		LeadCompany:  lead.Company,
		Personalized: personalized,
	}); err != nil {
		var verr *qualitygate.ValidationError
		reason := err.Error()
		if errors.As(err, &verr) {
			reason = verr.Reason
		}
		d.log.Warn("email rejected by quality gate", "lead_id", lead.ID, "reason", reason)

		// A rejected generated body is poisoned; clear it so the next run
		// regenerates instead of failing forever on the same text.
		if personalized {
			if err := d.stores.Leads.ClearPersonalization(ctx, lead.ID); err != nil {
				d.log.Warn("failed to clear rejected personalization", "lead_id", lead.ID, "error", err)
			}
		}

		d.recordFailure(ctx, join.Campaign.ID, lead.ID, account.ID, "validation")
		outcome.Status = StatusFailed
		outcome.Reason = reason
		return outcome
	}

	password, err := d.cipher.Decrypt(account.EncryptedPassword)
	if err != nil {
		// Broken credentials are an operator problem, not a lead problem;
		// leave the lead pending for the next run.
		d.log.Error("credential decryption failed", "account", account.Email, "error", err)
		if d.metrics != nil {
			d.metrics.RecordEmailFailed("decryption")
		}
		outcome.Status = StatusSkipped
		outcome.Reason = "credential decryption failed"
		return outcome
	}

	err = d.transport.Send(ctx, mailer.Server{
		Host:     account.SMTPHost,
		Port:     account.SMTPPort,
		Username: account.Email,
		Password: password,
	}, mailer.Message{
		From:     account.Email,
		FromName: sender.Name,
		To:       lead.Email,
		Subject:  subject,
		Text:     body,
		HTML:     strings.ReplaceAll(body, "\n", "<br/>"),
	})
	if err != nil {
		d.log.Error("send failed", "lead_id", lead.ID, "account", account.Email, "error", err)
		d.recordFailure(ctx, join.Campaign.ID, lead.ID, account.ID, "transport")
		outcome.Status = StatusFailed
		outcome.Reason = "send failed"
		return outcome
	}

	d.recordSent(ctx, join, lead, account, subject, body)
	outcome.Status = StatusSent
	return outcome
}

// selectAccount returns the lead's sticky sender, falling back to round-robin
// when the lead is unbound or its binding points at an account no longer on
// the schedule.
func (d *Dispatcher) selectAccount(ctx context.Context, campaignID int, lead models.Lead, accounts []models.EmailAccount, rotation *int) (models.EmailAccount, error) {
	if lead.AssignedAccountID != 0 {
		for _, a := range accounts {
			if a.ID == lead.AssignedAccountID {
				return a, nil
			}
		}
		d.log.Warn("assigned account no longer on schedule, reassigning",
			"lead_id", lead.ID, "account_id", lead.AssignedAccountID)
	}

	account := accounts[*rotation%len(accounts)]
	*rotation++
	if err := d.stores.Leads.AssignAccount(ctx, campaignID, lead.ID, account.ID); err != nil {
		return models.EmailAccount{}, err
	}
	return account, nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, campaignID, leadID, accountID int, reason string) {
	if d.metrics != nil {
		d.metrics.RecordEmailFailed(reason)
	}
	err := d.stores.Progress.UpsertDispatch(ctx, models.DispatchProgress{
		CampaignID: campaignID,
		LeadID:     leadID,
		AccountID:  accountID,
		Status:     models.ProgressFailed,
		UpdatedAt:  d.now(),
	})
	if err != nil {
		d.log.Error("failed to record dispatch failure", "lead_id", leadID, "error", err)
	}
}

func (d *Dispatcher) recordSent(ctx context.Context, join models.ScheduleJoin, lead models.Lead, account models.EmailAccount, subject, body string) {
	if d.metrics != nil {
		d.metrics.RecordEmailSent()
	}

	sentAt := d.now()
	err := d.stores.Progress.UpsertDispatch(ctx, models.DispatchProgress{
		CampaignID: join.Campaign.ID,
		LeadID:     lead.ID,
		AccountID:  account.ID,
		Status:     models.ProgressSent,
		SentAt:     &sentAt,
		UpdatedAt:  sentAt,
	})
	if err != nil {
		d.log.Error("failed to record sent progress", "lead_id", lead.ID, "error", err)
	}

	if err := d.stores.Schedules.IncrementSentEmails(ctx, join.Schedule.ID); err != nil {
		d.log.Warn("failed to increment schedule counter", "schedule_id", join.Schedule.ID, "error", err)
	}

	err = d.stores.SentMail.Append(ctx, models.SentMail{
		AccountID:  account.ID,
		CampaignID: join.Campaign.ID,
		Folder:     "sent",
		UID:        d.rand.Int63n(1_000_000_000),
		From:       account.Email,
		To:         lead.Email,
		Subject:    subject,
		BodyText:   body,
		ReceivedAt: sentAt,
		IsRead:     true,
	})
	if err != nil {
		d.log.Warn("failed to append sent-mail record", "lead_id", lead.ID, "error", err)
	}
}
