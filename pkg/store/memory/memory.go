package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coldspark/outreach/pkg/domain"
	"github.com/coldspark/outreach/pkg/models"
)

// Ensure Store implements every store contract
var (
	_ domain.ScheduleStore = (*Store)(nil)
	_ domain.LeadStore     = (*Store)(nil)
	_ domain.ProgressStore = (*Store)(nil)
	_ domain.AccountStore  = (*Store)(nil)
	_ domain.WarmupStore   = (*Store)(nil)
	_ domain.SentMailStore = (*Store)(nil)
)

type progressKey struct {
	campaignID int
	leadID     int
}

type warmupKey struct {
	accountID int
	date      string
}

// Store is an in-memory implementation of the store contracts, used by tests
// and local development. Upsert semantics mirror the Postgres store: progress
// and warm-up writes are keyed on their natural identity.
type Store struct {
	mu sync.RWMutex

	campaigns        map[int]models.Campaign
	templates        map[int]models.Template
	schedules        map[int]models.Schedule
	scheduleAccounts map[int][]models.ScheduleAccount
	accounts         map[int]models.EmailAccount
	leads            map[int]models.Lead
	progress         map[progressKey]models.DispatchProgress
	warmup           map[warmupKey]models.WarmupProgress
	sentMails        []models.SentMail
	nextMailID       int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		campaigns:        make(map[int]models.Campaign),
		templates:        make(map[int]models.Template),
		schedules:        make(map[int]models.Schedule),
		scheduleAccounts: make(map[int][]models.ScheduleAccount),
		accounts:         make(map[int]models.EmailAccount),
		leads:            make(map[int]models.Lead),
		progress:         make(map[progressKey]models.DispatchProgress),
		warmup:           make(map[warmupKey]models.WarmupProgress),
		nextMailID:       1,
	}
}

// Seed helpers

// PutCampaign stores or replaces a campaign.
func (s *Store) PutCampaign(c models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

// PutTemplate stores or replaces a template.
func (s *Store) PutTemplate(t models.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

// PutSchedule stores or replaces a schedule.
func (s *Store) PutSchedule(sch models.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sch.ID] = sch
}

// PutAccount stores or replaces an email account.
func (s *Store) PutAccount(a models.EmailAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

// PutLead stores or replaces a lead.
func (s *Store) PutLead(l models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[l.ID] = l
}

// AssignScheduleAccount links an account to a schedule. Order of calls is the
// round-robin order.
func (s *Store) AssignScheduleAccount(sa models.ScheduleAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleAccounts[sa.ScheduleID] = append(s.scheduleAccounts[sa.ScheduleID], sa)
}

// ScheduleStore

// ActiveSchedules returns scheduled schedules of in-progress campaigns joined
// with campaign and template rows.
func (s *Store) ActiveSchedules(ctx context.Context) ([]models.ScheduleJoin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ScheduleJoin
	for _, sch := range s.schedules {
		if sch.Status != models.ScheduleScheduled {
			continue
		}
		campaign, ok := s.campaigns[sch.CampaignID]
		if !ok || campaign.Status != models.CampaignInProgress {
			continue
		}
		tmpl, ok := s.templates[sch.TemplateID]
		if !ok {
			continue
		}
		out = append(out, models.ScheduleJoin{Schedule: sch, Campaign: campaign, Template: tmpl})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Schedule.ID < out[j].Schedule.ID })
	return out, nil
}

// AccountsForSchedule returns the accounts assigned to a schedule in
// assignment order.
func (s *Store) AccountsForSchedule(ctx context.Context, scheduleID int) ([]models.EmailAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.EmailAccount
	for _, sa := range s.scheduleAccounts[scheduleID] {
		if account, ok := s.accounts[sa.AccountID]; ok {
			out = append(out, account)
		}
	}
	return out, nil
}

// IncrementSentEmails bumps the schedule's sent counter.
func (s *Store) IncrementSentEmails(ctx context.Context, scheduleID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sch, ok := s.schedules[scheduleID]
	if !ok {
		return nil
	}
	sch.SentEmails++
	s.schedules[scheduleID] = sch
	return nil
}

// LeadStore

// PendingLeads returns leads of the campaign without a sent progress row,
// excluding failed ones unless includeFailed is set.
func (s *Store) PendingLeads(ctx context.Context, campaignID, limit int, includeFailed bool) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Lead
	for _, lead := range s.leads {
		if lead.CampaignID != campaignID {
			continue
		}
		p, ok := s.progress[progressKey{campaignID, lead.ID}]
		if ok {
			if p.Status == models.ProgressSent {
				continue
			}
			if p.Status == models.ProgressFailed && !includeFailed {
				continue
			}
		}
		out = append(out, lead)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AssignAccount persists the sticky sender binding.
func (s *Store) AssignAccount(ctx context.Context, campaignID, leadID, accountID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[leadID]
	if !ok || lead.CampaignID != campaignID {
		return nil
	}
	lead.AssignedAccountID = accountID
	s.leads[leadID] = lead
	return nil
}

// SavePersonalization caches a generated body on the lead.
func (s *Store) SavePersonalization(ctx context.Context, leadID int, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[leadID]
	if !ok {
		return nil
	}
	lead.PersonalizedEmail = body
	s.leads[leadID] = lead
	return nil
}

// ClearPersonalization drops the cached body.
func (s *Store) ClearPersonalization(ctx context.Context, leadID int) error {
	return s.SavePersonalization(ctx, leadID, "")
}

// ProgressStore

// UpsertDispatch writes the progress row keyed on (campaign_id, lead_id).
func (s *Store) UpsertDispatch(ctx context.Context, p models.DispatchProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	s.progress[progressKey{p.CampaignID, p.LeadID}] = p
	return nil
}

// AccountStore

// WarmupCandidates returns accounts with warm-up enabled and status enabled.
func (s *Store) WarmupCandidates(ctx context.Context) ([]models.EmailAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.EmailAccount
	for _, a := range s.accounts {
		if a.WarmupEnabled && a.WarmupStatus == models.WarmupEnabled {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TouchWarmupSent records the latest warm-up send timestamp.
func (s *Store) TouchWarmupSent(ctx context.Context, accountID int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil
	}
	t := at
	a.LastWarmupSentAt = &t
	s.accounts[accountID] = a
	return nil
}

// WarmupStore

// SentToday returns the warm-up sends recorded for the account on the date.
func (s *Store) SentToday(ctx context.Context, accountID int, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.warmup[warmupKey{accountID, date}].EmailsSent, nil
}

// IncrementSent upserts the (account_id, date) counter by one.
func (s *Store) IncrementSent(ctx context.Context, accountID int, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := warmupKey{accountID, date}
	p := s.warmup[key]
	p.AccountID = accountID
	p.Date = date
	p.EmailsSent++
	s.warmup[key] = p
	return nil
}

// SentMailStore

// Append adds a record to the sent-mail log.
func (s *Store) Append(ctx context.Context, mail models.SentMail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mail.ID = s.nextMailID
	s.nextMailID++
	s.sentMails = append(s.sentMails, mail)
	return nil
}

// Test inspection helpers

// Progress returns the progress row for the pair, if any.
func (s *Store) Progress(campaignID, leadID int) (models.DispatchProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[progressKey{campaignID, leadID}]
	return p, ok
}

// Lead returns the lead by ID.
func (s *Store) Lead(id int) (models.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	return l, ok
}

// Schedule returns the schedule by ID.
func (s *Store) Schedule(id int) (models.Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sch, ok := s.schedules[id]
	return sch, ok
}

// Account returns the account by ID.
func (s *Store) Account(id int) (models.EmailAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	return a, ok
}

// Warmup returns the warm-up counters for the account on the date.
func (s *Store) Warmup(accountID int, date string) models.WarmupProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.warmup[warmupKey{accountID, date}]
}

// SentMails returns a copy of the sent-mail log.
func (s *Store) SentMails() []models.SentMail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SentMail, len(s.sentMails))
	copy(out, s.sentMails)
	return out
}
