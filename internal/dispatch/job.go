package dispatch

import "fmt"

// Job describes one campaign fan-out. A job is consumed exactly once
// and discarded after completion; re-sending to failed recipients is a
// new job with a narrowed SubscriberIDs set.
type Job struct {
	CampaignID  string
	OrgID       string
	Subject     string
	HTMLContent string
	TextContent string
	FromEmail   string
	FromName    string

	// SubscriberIDs restricts the send to a subset of the org's active
	// subscribers. Empty means all active subscribers.
	SubscriberIDs []string
}

// Validate rejects jobs missing a required field before any recipient
// is fetched or any status is written.
func (j Job) Validate() error {
	switch {
	case j.CampaignID == "":
		return fmt.Errorf("%w: campaign id", ErrMissingField)
	case j.OrgID == "":
		return fmt.Errorf("%w: organization id", ErrMissingField)
	case j.Subject == "":
		return fmt.Errorf("%w: subject", ErrMissingField)
	case j.HTMLContent == "":
		return fmt.Errorf("%w: html content", ErrMissingField)
	case j.FromEmail == "":
		return fmt.Errorf("%w: from email", ErrMissingField)
	}
	return nil
}
