package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	hostHeader    = "host"
	amzDateHeader = "x-amz-date"
)

// HashPayload returns the lowercase hex SHA-256 of the exact body bytes
// that will be transmitted. A nil body hashes like an empty body.
func HashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// CanonicalRequest builds the canonical request string and the
// semicolon-joined signed-header list for the given request parts.
//
// Header keys are lower-cased; the host header (from u) and x-amz-date
// (from sc) are injected if absent. Headers are emitted in strictly
// ascending key order as "key:value\n" with values used verbatim — this
// protocol only ever sends single-valued headers here. The signed-header
// list is derived from the same sorted key set, so the two can never
// diverge (a divergence would invalidate the signature silently).
//
// The query string is sorted by key, then value. The form-POST calls this
// package signs carry no query parameters, but whatever is present is
// normalized rather than special-cased. A query that fails to parse is an
// error: signing a guessed-at normalization would only move the failure to
// the provider's signature check.
func CanonicalRequest(sc SigningContext, method string, u *url.URL, headers map[string]string, body []byte) (canonical string, signedHeaders string, err error) {
	lower := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		lower[strings.ToLower(k)] = v
	}
	if _, ok := lower[hostHeader]; !ok {
		lower[hostHeader] = u.Host
	}
	if _, ok := lower[amzDateHeader]; !ok {
		lower[amzDateHeader] = sc.AmzDate
	}

	keys := make([]string, 0, len(lower))
	for k := range lower {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var headerBlock strings.Builder
	for _, k := range keys {
		headerBlock.WriteString(k)
		headerBlock.WriteByte(':')
		headerBlock.WriteString(lower[k])
		headerBlock.WriteByte('\n')
	}
	signedHeaders = strings.Join(keys, ";")

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	query, err := canonicalQuery(u)
	if err != nil {
		return "", "", fmt.Errorf("canonicalize query %q: %w", u.RawQuery, err)
	}

	canonical = strings.Join([]string{
		method,
		path,
		query,
		headerBlock.String(),
		signedHeaders,
		HashPayload(body),
	}, "\n")
	return canonical, signedHeaders, nil
}

// canonicalQuery normalizes the query component: each key and value is
// strictly percent-encoded, pairs are sorted by escaped key and then by
// escaped value. Keys and values sort independently: joining a pair
// before sorting would let the "=" byte leak into key comparison and
// misorder a key against another key it is a prefix of.
func canonicalQuery(u *url.URL) (string, error) {
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}

	type pair struct{ key, val string }
	pairs := make([]pair, 0, len(values))
	for k, vs := range values {
		ek := escape(k)
		for _, v := range vs {
			pairs = append(pairs, pair{ek, escape(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].val < pairs[j].val
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.val
	}
	return strings.Join(parts, "&"), nil
}

// escape percent-encodes everything except the RFC 3986 unreserved set.
// Notably it encodes space as %20 (never "+") and encodes "/".
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
	}
	return b.String()
}
