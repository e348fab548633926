package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignSent      CampaignStatus = "sent"
	CampaignFailed    CampaignStatus = "failed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign represents an email campaign with its content and delivery config.
// Content editing and scheduling live in the surrounding application; the
// dispatch engine only reads content and advances status.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organization_id" db:"organization_id"`
	ListID         *string        `json:"list_id" db:"list_id"`
	Name           string         `json:"name" db:"name"`
	Subject        string         `json:"subject" db:"subject"`
	FromName       string         `json:"from_name" db:"from_name"`
	FromEmail      string         `json:"from_email" db:"from_email"`
	HTMLContent    string         `json:"html_content" db:"html_content"`
	PlainContent   string         `json:"plain_content" db:"plain_content"`
	Status         CampaignStatus `json:"status" db:"status"`

	StartedAt   *time.Time `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignSent || c.Status == CampaignFailed || c.Status == CampaignCancelled
}
