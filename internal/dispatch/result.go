package dispatch

// SendError records one recipient's failure.
type SendError struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (e SendError) String() string { return e.Email + ": " + e.Message }

// Result aggregates the outcome of a dispatch job. Sent+Failed == Total
// at completion; every recipient lands in exactly one bucket.
type Result struct {
	Total  int         `json:"total"`
	Sent   int         `json:"sent"`
	Failed int         `json:"failed"`
	Errors []SendError `json:"errors"`
}

func (r *Result) recordSuccess() {
	r.Sent++
}

func (r *Result) recordFailure(email, message string) {
	r.Failed++
	r.Errors = append(r.Errors, SendError{Email: email, Message: message})
}
