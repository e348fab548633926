package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/mail-dispatch/internal/domain"
)

// SubscriberRepo implements dispatch.RecipientStore against PostgreSQL.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// ActiveRecipients returns the org's active subscribers as send targets.
// A non-empty subscriberIDs restricts the result to that subset;
// inactive or foreign ids are silently dropped.
func (r *SubscriberRepo) ActiveRecipients(ctx context.Context, orgID string, subscriberIDs []string) ([]domain.Recipient, error) {
	q := `
		SELECT id, email, COALESCE(first_name,'')
		FROM mailing_subscribers
		WHERE organization_id = $1 AND status = 'active'`
	args := []interface{}{orgID}

	if len(subscriberIDs) > 0 {
		q += ` AND id = ANY($2)`
		args = append(args, pq.Array(subscriberIDs))
	}
	q += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}
	return out, nil
}
