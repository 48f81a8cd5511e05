// Package somaguard is the security verification core of the SomaSave
// cooperative backend: OTP-based two-factor authentication, password-change
// gating, mobile-money webhook authentication, idempotent transaction
// reconciliation, and fan-out notification dispatch.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// somaguard is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (OTPIssue, VerifiedPayload, DispatchReport, etc.).
// Internal coordination — notification fan-out, audit dispatch — lives under
// internal/ and is never exported. Wire-facing helpers live in the webhook,
// password, and ledger subpackages.
//
// # What this package must NOT do
//
//   - Deliver OTP codes or notifications itself. Delivery (SMS, email, push)
//     is the caller's transport; the engine only decides validity and
//     accounts for outcomes.
//   - Decide business policy. The reconciler applies exactly the transition
//     an authenticated webhook reports, or refuses with a specific error.
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//
// # Verification contract
//
// Every inbound claim — OTP code, current password, webhook signature — is
// checked with constant-time comparison, consumed atomically where single-use
// applies, and never silently coerced: idempotent no-ops (replayed webhook,
// reused code) are explicit, distinguishable outcomes.
package somaguard
