package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/mail-dispatch/internal/dispatch"
	"github.com/ignite/mail-dispatch/internal/domain"
)

// ErrCampaignNotFound is returned when a campaign id doesn't exist for
// the given organization.
var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignRepo implements dispatch.CampaignStore against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// Get returns a single campaign scoped to the owning organization.
func (r *CampaignRepo) Get(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, subject, from_name, from_email,
		       COALESCE(html_content,''), COALESCE(plain_content,''),
		       status, started_at, completed_at, created_at, updated_at
		FROM mailing_campaigns
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail,
		&c.HTMLContent, &c.PlainContent,
		&c.Status, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// MarkSending transitions the campaign to sending and stamps the start
// time. Single atomic update.
func (r *CampaignRepo) MarkSending(ctx context.Context, orgID, campaignID string) error {
	return r.setStatus(ctx, orgID, campaignID, domain.CampaignSending, "started_at")
}

// MarkSent transitions the campaign to sent and stamps the completion
// time. Single atomic update; called once per finished dispatch.
func (r *CampaignRepo) MarkSent(ctx context.Context, orgID, campaignID string) error {
	return r.setStatus(ctx, orgID, campaignID, domain.CampaignSent, "completed_at")
}

func (r *CampaignRepo) setStatus(ctx context.Context, orgID, campaignID string, status domain.CampaignStatus, tsColumn string) error {
	// tsColumn is one of two fixed column names chosen above, never
	// caller input.
	q := fmt.Sprintf(`
		UPDATE mailing_campaigns
		SET status = $1, %s = NOW(), updated_at = NOW()
		WHERE id = $2 AND organization_id = $3
	`, tsColumn)

	res, err := r.db.ExecContext(ctx, q, status, campaignID, orgID)
	if err != nil {
		return fmt.Errorf("update campaign status to %s: %w", status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign status to %s: %w", status, err)
	}
	if n == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// compile-time interface checks
var (
	_ dispatch.CampaignStore  = (*CampaignRepo)(nil)
	_ dispatch.RecipientStore = (*SubscriberRepo)(nil)
)
