package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

const authorizationHeader = "Authorization"

// StringToSign builds the intermediate string that the derived key signs:
// algorithm, timestamp, credential scope, and the hex SHA-256 of the
// canonical request, newline-separated.
func StringToSign(sc SigningContext, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		sc.AmzDate,
		sc.Scope,
		HashPayload([]byte(canonicalRequest)),
	}, "\n")
}

// hmacSHA256 is one link of the key-derivation chain. Key and result are
// raw bytes; hex-encoding an intermediate key breaks the signature.
func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

// deriveSigningKey runs the nested HMAC chain that scopes the secret key
// to a single date, region, and service.
func deriveSigningKey(creds Credentials, sc SigningContext) []byte {
	kDate := hmacSHA256([]byte("AWS4"+creds.SecretKey), sc.DateStamp)
	kRegion := hmacSHA256(kDate, creds.Region)
	kService := hmacSHA256(kRegion, creds.Service)
	return hmacSHA256(kService, scopeSuffix)
}

// Sign produces the hex-encoded signature for a canonical request. Pure
// function of (credentials, signing context, canonical request).
func Sign(creds Credentials, sc SigningContext, canonicalRequest string) string {
	key := deriveSigningKey(creds, sc)
	return hex.EncodeToString(hmacSHA256(key, StringToSign(sc, canonicalRequest)))
}

// AuthorizationHeader assembles the Authorization header value from a
// computed signature and the signed-header list it covers.
func AuthorizationHeader(creds Credentials, sc SigningContext, signedHeaders, signature string) string {
	return Algorithm +
		" Credential=" + creds.AccessKeyID + "/" + sc.Scope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature
}

// SignRequest signs req in place at time t: it sets the X-Amz-Date and
// Authorization headers covering req's current single-valued headers plus
// host. body must be the exact bytes the request will transmit. A request
// whose URL cannot be canonicalized is rejected unsigned.
//
// The request must be built fresh per call; a timestamp is embedded, so a
// signed request is never reusable.
func SignRequest(creds Credentials, req *http.Request, body []byte, t time.Time) error {
	sc := NewSigningContext(t, creds)

	headers := make(map[string]string, len(req.Header)+2)
	for k := range req.Header {
		headers[k] = req.Header.Get(k)
	}
	headers[amzDateHeader] = sc.AmzDate
	if req.Host != "" {
		headers[hostHeader] = req.Host
	}

	canonical, signedHeaders, err := CanonicalRequest(sc, req.Method, req.URL, headers, body)
	if err != nil {
		return err
	}
	signature := Sign(creds, sc, canonical)

	req.Header.Set("X-Amz-Date", sc.AmzDate)
	req.Header.Set(authorizationHeader, AuthorizationHeader(creds, sc, signedHeaders, signature))
	return nil
}
