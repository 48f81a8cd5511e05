// Package webhook authenticates inbound payment-gateway callbacks.
//
// The signature scheme is fixed by the gateway: HMAC-SHA256 over the
// callback URL, the timestamp token, and the request parameters sorted by
// key, hex-encoded lowercase. Canonicalize and Sign are exported so the
// HTTP boundary and tests can produce byte-identical signatures.
//
// The authenticator is deliberately stateless. Replay protection belongs to
// the transaction reconciler, which refuses to re-apply a terminal record.
package webhook
