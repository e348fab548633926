// Package dispatch fans a campaign out to its recipients.
//
// A dispatch job runs as one strictly sequential loop: personalize,
// send, record, pause. One recipient's failure never stops the loop,
// and the final result accounts for every recipient exactly once.
// After the loop completes the campaign is marked sent regardless of
// how many sends failed; callers inspect the returned counts to tell
// the difference.
//
// Store interfaces are defined here; implementations live in
// repository/postgres/.
package dispatch
