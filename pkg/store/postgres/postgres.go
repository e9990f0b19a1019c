package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

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

// Store implements the store contracts on PostgreSQL. All bookkeeping writes
// are ON CONFLICT upserts on their natural keys so re-delivered trigger runs
// converge instead of duplicating rows.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL and verifies the connection.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ScheduleStore

func (s *Store) ActiveSchedules(ctx context.Context) ([]models.ScheduleJoin, error) {
	query := `
		SELECT
			s.id, s.campaign_id, s.template_id, s.status,
			s.start_date, s.end_date, s.daily_limit, s.send_interval_minutes,
			s.per_account_limit, s.sent_emails,
			c.id, c.name, c.status,
			COALESCE(c.company_name, ''), COALESCE(c.contact_number, ''), COALESCE(c.primary_email, ''),
			t.id, t.campaign_id, t.name, t.subject, t.content
		FROM campaign_schedules s
		JOIN campaigns c ON c.id = s.campaign_id
		JOIN campaign_templates t ON t.id = s.template_id
		WHERE s.status = 'scheduled' AND c.status = 'in_progress'
		ORDER BY s.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying active schedules: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleJoin
	for rows.Next() {
		var j models.ScheduleJoin
		err := rows.Scan(
			&j.Schedule.ID, &j.Schedule.CampaignID, &j.Schedule.TemplateID, &j.Schedule.Status,
			&j.Schedule.StartDate, &j.Schedule.EndDate, &j.Schedule.DailyLimit, &j.Schedule.SendIntervalMinutes,
			&j.Schedule.PerAccountLimit, &j.Schedule.SentEmails,
			&j.Campaign.ID, &j.Campaign.Name, &j.Campaign.Status,
			&j.Campaign.CompanyName, &j.Campaign.ContactNumber, &j.Campaign.PrimaryEmail,
			&j.Template.ID, &j.Template.CampaignID, &j.Template.Name, &j.Template.Subject, &j.Template.Content,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		out = append(out, j)
	}

	return out, rows.Err()
}

func (s *Store) AccountsForSchedule(ctx context.Context, scheduleID int) ([]models.EmailAccount, error) {
	query := `
		SELECT
			a.id, a.email,
			COALESCE(a.name, ''), COALESCE(a.company, ''), COALESCE(a.phone_number, ''),
			COALESCE(a.signature, ''), a.smtp_host, a.smtp_port, a.encrypted_password,
			a.warmup_enabled, a.warmup_status, a.warmup_daily_limit, a.warmup_increase_per_day,
			a.warmup_start_date, a.last_warmup_sent_at
		FROM schedule_accounts sa
		JOIN email_accounts a ON a.id = sa.account_id
		WHERE sa.schedule_id = $1
		ORDER BY sa.id`

	rows, err := s.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("querying schedule accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func (s *Store) IncrementSentEmails(ctx context.Context, scheduleID int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaign_schedules SET sent_emails = sent_emails + 1, updated_at = NOW() WHERE id = $1`,
		scheduleID)
	if err != nil {
		return fmt.Errorf("incrementing schedule counter: %w", err)
	}
	return nil
}

// LeadStore

func (s *Store) PendingLeads(ctx context.Context, campaignID, limit int, includeFailed bool) ([]models.Lead, error) {
	excluded := `('sent', 'failed')`
	if includeFailed {
		excluded = `('sent')`
	}

	query := fmt.Sprintf(`
		SELECT
			l.id, l.campaign_id, l.name, l.email,
			COALESCE(l.company, ''), COALESCE(l.title, ''), COALESCE(l.location, ''),
			COALESCE(l.industry, ''), COALESCE(l.summary, ''),
			COALESCE(l.personalized_email, ''), COALESCE(l.assigned_account_id, 0)
		FROM leads l
		WHERE l.campaign_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM campaign_progress p
			WHERE p.campaign_id = l.campaign_id AND p.lead_id = l.id
			  AND p.status IN %s
		  )
		ORDER BY l.id
		LIMIT $2`, excluded)

	rows, err := s.db.QueryContext(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending leads: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var l models.Lead
		err := rows.Scan(
			&l.ID, &l.CampaignID, &l.Name, &l.Email,
			&l.Company, &l.Title, &l.Location,
			&l.Industry, &l.Summary,
			&l.PersonalizedEmail, &l.AssignedAccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning lead row: %w", err)
		}
		out = append(out, l)
	}

	return out, rows.Err()
}

func (s *Store) AssignAccount(ctx context.Context, campaignID, leadID, accountID int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET assigned_account_id = $1 WHERE id = $2 AND campaign_id = $3`,
		accountID, leadID, campaignID)
	if err != nil {
		return fmt.Errorf("assigning sender account: %w", err)
	}
	return nil
}

func (s *Store) SavePersonalization(ctx context.Context, leadID int, body string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET personalized_email = NULLIF($1, '') WHERE id = $2`,
		body, leadID)
	if err != nil {
		return fmt.Errorf("saving personalization: %w", err)
	}
	return nil
}

func (s *Store) ClearPersonalization(ctx context.Context, leadID int) error {
	return s.SavePersonalization(ctx, leadID, "")
}

// ProgressStore

func (s *Store) UpsertDispatch(ctx context.Context, p models.DispatchProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_progress (campaign_id, lead_id, account_id, status, sent_at, updated_at)
		VALUES ($1, $2, NULLIF($3, 0), $4, $5, NOW())
		ON CONFLICT (campaign_id, lead_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			status = EXCLUDED.status,
			sent_at = EXCLUDED.sent_at,
			updated_at = NOW()`,
		p.CampaignID, p.LeadID, p.AccountID, p.Status, p.SentAt)
	if err != nil {
		return fmt.Errorf("upserting dispatch progress: %w", err)
	}
	return nil
}

// AccountStore

func (s *Store) WarmupCandidates(ctx context.Context) ([]models.EmailAccount, error) {
	query := `
		SELECT
			a.id, a.email,
			COALESCE(a.name, ''), COALESCE(a.company, ''), COALESCE(a.phone_number, ''),
			COALESCE(a.signature, ''), a.smtp_host, a.smtp_port, a.encrypted_password,
			a.warmup_enabled, a.warmup_status, a.warmup_daily_limit, a.warmup_increase_per_day,
			a.warmup_start_date, a.last_warmup_sent_at
		FROM email_accounts a
		WHERE a.warmup_enabled = TRUE AND a.warmup_status = 'enabled'
		ORDER BY a.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying warmup candidates: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func (s *Store) TouchWarmupSent(ctx context.Context, accountID int, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_accounts SET last_warmup_sent_at = $1 WHERE id = $2`,
		at, accountID)
	if err != nil {
		return fmt.Errorf("touching warmup timestamp: %w", err)
	}
	return nil
}

// WarmupStore

func (s *Store) SentToday(ctx context.Context, accountID int, date string) (int, error) {
	var sent int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(emails_sent, 0) FROM warmup_progress WHERE account_id = $1 AND date = $2`,
		accountID, date).Scan(&sent)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying warmup counter: %w", err)
	}
	return sent, nil
}

func (s *Store) IncrementSent(ctx context.Context, accountID int, date string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO warmup_progress (account_id, date, emails_sent, emails_received)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (account_id, date) DO UPDATE SET
			emails_sent = warmup_progress.emails_sent + 1`,
		accountID, date)
	if err != nil {
		return fmt.Errorf("upserting warmup counter: %w", err)
	}
	return nil
}

// SentMailStore

func (s *Store) Append(ctx context.Context, mail models.SentMail) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (account_id, campaign_id, folder, uid, from_address, to_address, subject, body_text, received_at, is_read)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7, $8, $9, $10)`,
		mail.AccountID, mail.CampaignID, mail.Folder, mail.UID,
		mail.From, mail.To, mail.Subject, mail.BodyText, mail.ReceivedAt, mail.IsRead)
	if err != nil {
		return fmt.Errorf("appending sent mail: %w", err)
	}
	return nil
}

func scanAccounts(rows *sql.Rows) ([]models.EmailAccount, error) {
	var out []models.EmailAccount
	for rows.Next() {
		var a models.EmailAccount
		var startDate, lastSent sql.NullTime
		err := rows.Scan(
			&a.ID, &a.Email,
			&a.Name, &a.Company, &a.PhoneNumber,
			&a.Signature, &a.SMTPHost, &a.SMTPPort, &a.EncryptedPassword,
			&a.WarmupEnabled, &a.WarmupStatus, &a.WarmupDailyLimit, &a.WarmupIncrease,
			&startDate, &lastSent,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		if startDate.Valid {
			t := startDate.Time
			a.WarmupStartDate = &t
		}
		if lastSent.Valid {
			t := lastSent.Time
			a.LastWarmupSentAt = &t
		}
		out = append(out, a)
	}

	return out, rows.Err()
}
