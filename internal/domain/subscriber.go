package domain

import "time"

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnconfirmed  SubscriberStatus = "unconfirmed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberBounced      SubscriberStatus = "bounced"
	SubscriberComplained   SubscriberStatus = "complained"
)

// Subscriber represents a single email recipient owned by the external
// subscriber store. Read-only to the dispatch engine.
type Subscriber struct {
	ID             string           `json:"id" db:"id"`
	OrganizationID string           `json:"organization_id" db:"organization_id"`
	Email          string           `json:"email" db:"email"`
	Name           string           `json:"name" db:"name"`
	Status         SubscriberStatus `json:"status" db:"status"`

	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Recipient is the projection of a subscriber that a dispatch job needs:
// identity, address, and an optional display name for personalization.
type Recipient struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
