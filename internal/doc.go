// Package internal holds cryptographic primitives shared by the root engine:
// OTP generation and code digesting. Nothing here is part of the public API.
package internal
