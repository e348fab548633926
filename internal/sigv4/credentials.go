package sigv4

import (
	"errors"
	"time"
)

const (
	// Algorithm is the signing algorithm identifier used in the string to
	// sign and the Authorization header.
	Algorithm = "AWS4-HMAC-SHA256"

	// scopeSuffix terminates every credential scope.
	scopeSuffix = "aws4_request"

	// Timestamp layouts. ISO 8601 basic format, second precision, UTC.
	amzDateLayout   = "20060102T150405Z"
	dateStampLayout = "20060102"
)

// Sentinel errors for credential construction.
var (
	ErrMissingAccessKey = errors.New("sigv4: access key id is required")
	ErrMissingSecretKey = errors.New("sigv4: secret key is required")
	ErrMissingRegion    = errors.New("sigv4: region is required")
	ErrMissingService   = errors.New("sigv4: service name is required")
)

// Credentials identifies the caller to the provider. Immutable, supplied at
// process start, shared read-only across concurrent dispatch jobs, and never
// persisted by this subsystem.
type Credentials struct {
	AccessKeyID string
	SecretKey   string
	Region      string
	Service     string
}

// NewCredentials builds a credential set, rejecting empty fields. An empty
// secret would produce signatures that fail 100% of the time at the
// provider, so it is treated as a construction-time configuration error.
func NewCredentials(accessKeyID, secretKey, region, service string) (Credentials, error) {
	switch {
	case accessKeyID == "":
		return Credentials{}, ErrMissingAccessKey
	case secretKey == "":
		return Credentials{}, ErrMissingSecretKey
	case region == "":
		return Credentials{}, ErrMissingRegion
	case service == "":
		return Credentials{}, ErrMissingService
	}
	return Credentials{
		AccessKeyID: accessKeyID,
		SecretKey:   secretKey,
		Region:      region,
		Service:     service,
	}, nil
}

// SigningContext carries the per-request time material: the full timestamp,
// its 8-character date stamp, and the credential scope string. Derived once
// per request and never reused (the timestamp is embedded in the signature).
type SigningContext struct {
	AmzDate   string // e.g. 20150830T123600Z
	DateStamp string // e.g. 20150830
	Scope     string // e.g. 20150830/us-east-1/ses/aws4_request
}

// NewSigningContext derives the signing context for a request signed at t
// under the given credentials. t is always converted to UTC first.
func NewSigningContext(t time.Time, creds Credentials) SigningContext {
	t = t.UTC()
	ds := t.Format(dateStampLayout)
	return SigningContext{
		AmzDate:   t.Format(amzDateLayout),
		DateStamp: ds,
		Scope:     ds + "/" + creds.Region + "/" + creds.Service + "/" + scopeSuffix,
	}
}
