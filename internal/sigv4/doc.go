// Package sigv4 implements AWS Signature Version 4 request signing from
// primitives. See https://docs.aws.amazon.com/IAM/latest/UserGuide/signing-elements.html
// for the authoritative description of the algorithm.
//
// The signature is computed in four steps:
//
//  1. Build a canonical request string
//     `<METHOD>\n<URI>\n<QUERY>\n<HEADERS>\n<SIGNED_HEADERS>\n<PAYLOAD_HASH>`
//     with lower-cased, sorted headers and a sorted, percent-encoded query.
//  2. Build the string to sign
//     `AWS4-HMAC-SHA256\n<TIMESTAMP>\n<SCOPE>\n<hex(sha256(canonical))>`.
//  3. Derive the signing key through a chain of keyed hashes:
//     HMAC("AWS4"+secret, date) -> region -> service -> "aws4_request".
//     Every step consumes raw bytes; only the final signature is hex-encoded.
//  4. Emit the Authorization header
//     `AWS4-HMAC-SHA256 Credential=..., SignedHeaders=..., Signature=...`.
//
// The implementation is deliberately SDK-free: the transport client signs
// raw HTTP requests with it. Deviations from the published algorithm fail
// silently at the provider, so the tests pin the published AWS test vector.
package sigv4
