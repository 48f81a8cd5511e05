package password

import (
	"errors"
	"unicode"
)

// ErrTooShort is an exported constant or variable used by the password policy.
var ErrTooShort = errors.New("password is too short")

// ErrMissingLetter is an exported constant or variable used by the password policy.
var ErrMissingLetter = errors.New("password must contain at least one letter")

// ErrMissingDigit is an exported constant or variable used by the password policy.
var ErrMissingDigit = errors.New("password must contain at least one digit")

// Policy defines a public type used by somaguard APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	MinLength     int
	RequireLetter bool
	RequireDigit  bool
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Rules are checked in a fixed order and the first failing rule is
// reported: length, then letter presence, then digit presence.
func (p Policy) Validate(candidate string) error {
	if len(candidate) < p.MinLength {
		return ErrTooShort
	}

	var hasLetter, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if p.RequireLetter && !hasLetter {
		return ErrMissingLetter
	}
	if p.RequireDigit && !hasDigit {
		return ErrMissingDigit
	}

	return nil
}
