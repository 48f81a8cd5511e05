// Package httpapi exposes the verification engine over HTTP: the payment
// gateway's webhook callback, the 2FA login endpoints, the password-change
// endpoint, and an optional metrics mount.
//
// The package owns only transport concerns. All verification decisions,
// status mapping included, come from the engine; handlers translate engine
// errors to response bodies without adding policy of their own.
package httpapi
