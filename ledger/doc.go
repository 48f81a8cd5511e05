// Package ledger holds the transaction records the reconciler acts on and
// the stores that guard their state transitions.
//
// Both stores expose the same compare-and-swap contract: a transition
// applies only when the record's current status matches the expected one,
// and the gateway reference plus the notification claim are stamped in the
// same atomic step. Gateway retries therefore collapse to a single applied
// transition no matter how they interleave.
package ledger
