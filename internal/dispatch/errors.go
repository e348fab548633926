package dispatch

import "errors"

// Sentinel errors for the dispatch layer.
var (
	ErrNoRecipients       = errors.New("no recipients to send to")
	ErrDispatchInProgress = errors.New("campaign dispatch already in progress")
	ErrMissingField       = errors.New("missing required field")
)
