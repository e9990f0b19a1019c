package warmup

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/coldspark/outreach/pkg/domain"
	"github.com/coldspark/outreach/pkg/logger"
	"github.com/coldspark/outreach/pkg/mailer"
	"github.com/coldspark/outreach/pkg/metrics"
	"github.com/coldspark/outreach/pkg/models"
	"github.com/coldspark/outreach/pkg/secrets"
)

// AccountStatus is the outcome for one account within a warm-up run.
type AccountStatus string

const (
	StatusSent    AccountStatus = "sent"
	StatusSkipped AccountStatus = "skipped"
	StatusFailed  AccountStatus = "failed"
)

// AccountOutcome describes what happened to one account during a run.
type AccountOutcome struct {
	Email     string        `json:"email"`
	Status    AccountStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
}

// Summary is the result of one warm-up run.
type Summary struct {
	Accounts  int              `json:"accounts"`
	Sent      int              `json:"sent"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Processed []AccountOutcome `json:"processed,omitempty"`
}

// Options tunes a Controller. Zero values select defaults.
type Options struct {
	Recipients []string
	Now        func() time.Time
	Rand       *rand.Rand
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// Controller ramps sending volume on new accounts by pacing low-stakes
// warm-up mail to a pool of peer recipients. Each account is independent: a
// failure on one never blocks the rest.
type Controller struct {
	accounts  domain.AccountStore
	counters  domain.WarmupStore
	transport mailer.Transport
	cipher    *secrets.Cipher

	recipients []string
	now        func() time.Time
	rand       *rand.Rand
	metrics    *metrics.Metrics
	log        logger.Logger
}

// New creates a warm-up Controller.
func New(accounts domain.AccountStore, counters domain.WarmupStore, transport mailer.Transport, cipher *secrets.Cipher, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	return &Controller{
		accounts:   accounts,
		counters:   counters,
		transport:  transport,
		cipher:     cipher,
		recipients: opts.Recipients,
		now:        opts.Now,
		rand:       opts.Rand,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// EffectiveLimit is today's send ceiling for an account: the ramp value
// (days since warm-up start plus one, times the daily increase) capped at the
// account's daily limit. Accounts without a start date or a positive
// increase sit at the daily limit directly.
func EffectiveLimit(account models.EmailAccount, now time.Time) int {
	if account.WarmupStartDate == nil || account.WarmupIncrease <= 0 {
		return account.WarmupDailyLimit
	}

	days := int(now.Sub(*account.WarmupStartDate).Hours() / 24)
	if days < 0 {
		days = 0
	}

	ramp := (days + 1) * account.WarmupIncrease
	if ramp < account.WarmupDailyLimit {
		return ramp
	}
	return account.WarmupDailyLimit
}

// SendInterval spreads the day's budget evenly across 24 hours.
func SendInterval(effectiveLimit int) time.Duration {
	if effectiveLimit <= 0 {
		return 24 * time.Hour
	}
	return 24 * time.Hour / time.Duration(effectiveLimit)
}

// Run checks every warm-up candidate and sends at most one warm-up email per
// account that is due.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	candidates, err := c.accounts.WarmupCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading warmup candidates: %w", err)
	}

	summary := &Summary{Accounts: len(candidates)}
	for _, account := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		outcome := c.processAccount(ctx, account)
		summary.Processed = append(summary.Processed, outcome)
		switch outcome.Status {
		case StatusSent:
			summary.Sent++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}

	c.log.Info("warmup run complete",
		"accounts", summary.Accounts, "sent", summary.Sent,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

func (c *Controller) processAccount(ctx context.Context, account models.EmailAccount) AccountOutcome {
	outcome := AccountOutcome{Email: account.Email}
	now := c.now()

	limit := EffectiveLimit(account, now)
	if limit <= 0 {
		outcome.Status = StatusSkipped
		outcome.Reason = "no sending budget"
		c.skip("limit_reached")
		return outcome
	}

	sentToday, err := c.counters.SentToday(ctx, account.ID, models.WarmupDate(now))
	if err != nil {
		c.log.Error("failed to load warmup counter", "account", account.Email, "error", err)
		outcome.Status = StatusFailed
		outcome.Reason = "counter lookup failed"
		return outcome
	}
	if sentToday >= limit {
		outcome.Status = StatusSkipped
		outcome.Reason = fmt.Sprintf("daily limit reached (%d/%d)", sentToday, limit)
		c.skip("limit_reached")
		return outcome
	}

	interval := SendInterval(limit)
	if account.LastWarmupSentAt != nil && now.Sub(*account.LastWarmupSentAt) < interval {
		outcome.Status = StatusSkipped
		outcome.Reason = "interval not elapsed"
		c.skip("interval")
		return outcome
	}

	recipient, ok := c.pickRecipient(account.Email)
	if !ok {
		outcome.Status = StatusSkipped
		outcome.Reason = "no eligible recipients"
		c.skip("no_recipients")
		return outcome
	}
	outcome.Recipient = recipient

	password, err := c.cipher.Decrypt(account.EncryptedPassword)
	if err != nil {
		c.log.Error("credential decryption failed", "account", account.Email, "error", err)
		outcome.Status = StatusFailed
		outcome.Reason = "credential decryption failed"
		return outcome
	}

	subject := fmt.Sprintf("Warmup email %d", sentToday+1)
	body := c.composeBody(account, sentToday+1)

	err = c.transport.Send(ctx, mailer.Server{
		Host:     account.SMTPHost,
		Port:     account.SMTPPort,
		Username: account.Email,
		Password: password,
	}, mailer.Message{
		From:     account.Email,
		FromName: account.Name,
		To:       recipient,
		Subject:  subject,
		Text:     body,
	})
	if err != nil {
		c.log.Error("warmup send failed", "account", account.Email, "error", err)
		outcome.Status = StatusFailed
		outcome.Reason = "send failed"
		return outcome
	}

	if c.metrics != nil {
		c.metrics.RecordWarmupSent()
	}

	if err := c.counters.IncrementSent(ctx, account.ID, models.WarmupDate(now)); err != nil {
		c.log.Error("failed to record warmup send", "account", account.Email, "error", err)
	}
	if err := c.accounts.TouchWarmupSent(ctx, account.ID, now); err != nil {
		c.log.Warn("failed to touch warmup timestamp", "account", account.Email, "error", err)
	}

	outcome.Status = StatusSent
	return outcome
}

// pickRecipient draws a random pool member that is not the sender itself.
func (c *Controller) pickRecipient(sender string) (string, bool) {
	var eligible []string
	for _, r := range c.recipients {
		if r != sender {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	return eligible[c.rand.Intn(len(eligible))], true
}

func (c *Controller) composeBody(account models.EmailAccount, n int) string {
	name := account.Name
	if name == "" {
		name = account.Email
	}
	return fmt.Sprintf(
		"Hi,\n\nThis is warm-up message %d from %s. Feel free to ignore it.\n\nBest,\n%s",
		n, account.Email, name)
}

func (c *Controller) skip(reason string) {
	if c.metrics != nil {
		c.metrics.RecordWarmupSkipped(reason)
	}
}
