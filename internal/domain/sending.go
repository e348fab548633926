package domain

import "time"

// EmailMessage is the fully-resolved message ready for the transport client.
// By the time a message reaches this struct, all personalization is complete.
type EmailMessage struct {
	CampaignID   string `json:"campaign_id"`
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email"`
	FromName     string `json:"from_name"`
	FromEmail    string `json:"from_email"`
	Subject      string `json:"subject"`
	HTMLContent  string `json:"html_content"`
	TextContent  string `json:"text_content"`
}

// SendResult is returned by the transport client after attempting delivery.
// A provider rejection (bad address, throttle) is Success=false with the
// provider's error message; it is not a Go error.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
	Error     string    `json:"error,omitempty"`
}
