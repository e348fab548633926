// Package sesmail sends single email messages through the SES classic
// SendEmail API over raw HTTP.
//
// Each message is one form-encoded POST, signed with the sigv4 package
// rather than the AWS SDK, so the transport owns the full request byte
// stream it signs. Provider rejections (bad address, throttling) come
// back as unsuccessful SendResults, not errors; only transport-level
// failures (DNS, connection refused, timeout) surface as errors.
package sesmail
