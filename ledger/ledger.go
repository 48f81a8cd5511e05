package ledger

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is an exported constant or variable used by the ledger stores.
var ErrNotFound = errors.New("transaction record not found")

// Status defines a public type used by somaguard APIs.
type Status string

// Transaction lifecycle states. A record starts pending and moves exactly
// once to success or failed; reversed exists for records adjusted outside
// this system and is terminal like the others.
const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusReversed Status = "reversed"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusReversed:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusReversed:
		return true
	}
	return false
}

// CASResult defines a public type used by somaguard APIs.
type CASResult int

// Outcomes of a compare-and-swap transition attempt.
const (
	// CASApplied means the record matched the expected status and was moved.
	CASApplied CASResult = iota

	// CASConflict means the record's status no longer matched the expected
	// status, typically because a concurrent delivery won the transition.
	CASConflict
)

// Record defines a public type used by somaguard APIs.
//
// Record is the reconciler's view of one payment transaction. The customer
// reference is issued by this system when the transaction is initiated; the
// internal reference is issued by the gateway and arrives on the webhook.
type Record struct {
	CustomerReference string
	InternalReference string
	Status            Status
	AmountCents       int64
	Currency          string
	MSISDN            string
	Kind              string
	NotifiedAt        int64
	CreatedAt         int64
	UpdatedAt         int64
}

// NewCustomerReference describes the newcustomerreference operation and its observable behavior.
//
// NewCustomerReference does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCustomerReference() string {
	return "SOMA-" + strings.ToUpper(uuid.NewString())
}
