package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

// ErrMisconfigured is an exported constant or variable used by the webhook authenticator.
var ErrMisconfigured = errors.New("webhook secret is not configured")

// ErrInvalidSignature is an exported constant or variable used by the webhook authenticator.
var ErrInvalidSignature = errors.New("webhook signature mismatch")

// Envelope defines a public type used by somaguard APIs.
//
// Envelope carries one inbound gateway callback exactly as received. Nothing
// in it is trusted until Authenticate succeeds.
type Envelope struct {
	URL       string
	Timestamp string
	Signature string
	Params    map[string]string
}

// Authenticator defines a public type used by somaguard APIs.
//
// Authenticator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator describes the newauthenticator operation and its observable behavior.
//
// NewAuthenticator may return an error when input validation, dependency calls, or security checks fail.
// NewAuthenticator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrMisconfigured
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Canonicalize builds the exact byte string the gateway signs: the callback
// URL, then the timestamp token, then every params entry as key immediately
// followed by value, entries ordered by key ascending. No separators
// anywhere; the gateway's signer uses none.
func Canonicalize(url, timestamp string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(url)
	b.WriteString(timestamp)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	return b.String()
}

// Sign describes the sign operation and its observable behavior.
//
// Sign may return an error when input validation, dependency calls, or security checks fail.
// Sign does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Sign(secret []byte, url, timestamp string, params map[string]string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(Canonicalize(url, timestamp, params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate verifies the envelope signature against the shared secret.
//
// The comparison is constant time over the hex form. A nil receiver or empty
// secret reports ErrMisconfigured even though construction already rejects
// that state; the call-time recheck keeps a miswired engine from treating
// every request as forged rather than as a server fault.
func (a *Authenticator) Authenticate(envelope Envelope) (map[string]string, error) {
	if a == nil || len(a.secret) == 0 {
		return nil, ErrMisconfigured
	}

	expected := Sign(a.secret, envelope.URL, envelope.Timestamp, envelope.Params)
	if !hmac.Equal([]byte(expected), []byte(envelope.Signature)) {
		return nil, ErrInvalidSignature
	}

	// Hand back a copy so later mutation of the envelope cannot alter
	// what the reconciler acts on.
	verified := make(map[string]string, len(envelope.Params))
	for k, v := range envelope.Params {
		verified[k] = v
	}
	return verified, nil
}
