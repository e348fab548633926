package dispatch

import (
	"context"

	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/pkg/distlock"
)

// RecipientStore resolves the recipient set for a job.
// Implementations must be safe for concurrent use.
type RecipientStore interface {
	// ActiveRecipients returns the org's active subscribers as send
	// targets. A non-empty subscriberIDs restricts the result to that
	// subset; inactive ids are silently dropped.
	ActiveRecipients(ctx context.Context, orgID string, subscriberIDs []string) ([]domain.Recipient, error)
}

// CampaignStore records campaign lifecycle transitions.
// Each call is a single atomic update.
type CampaignStore interface {
	// MarkSending moves the campaign to sending with a start timestamp.
	MarkSending(ctx context.Context, orgID, campaignID string) error

	// MarkSent moves the campaign to sent with a completion timestamp.
	// Called exactly once per completed job, however many sends failed.
	MarkSent(ctx context.Context, orgID, campaignID string) error
}

// Sender delivers a single message. A returned error means the send
// never completed at the transport level; provider rejections come back
// in the SendResult with Success=false and a nil error.
type Sender interface {
	Send(ctx context.Context, msg domain.EmailMessage) (*domain.SendResult, error)
}

// LockFactory builds the per-campaign lock taken for the duration of a
// dispatch. A nil factory disables locking (single-process deployments).
type LockFactory func(campaignID string) distlock.DistLock
