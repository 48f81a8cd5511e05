package internaldefs

import (
	somaguard "github.com/somasave/somaguard"
)

// CounterDef defines a public type used by somaguard APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   somaguard.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by somaguard APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   somaguard.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the verification engine.
var CounterDefs = []CounterDef{
	{ID: somaguard.MetricOTPRequest, Name: "somaguard_otp_request_total", Help: "Issued OTP challenges."},
	{ID: somaguard.MetricOTPVerifySuccess, Name: "somaguard_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: somaguard.MetricOTPVerifyFailure, Name: "somaguard_otp_verify_failure_total", Help: "Failed OTP verifications (wrong or missing code)."},
	{ID: somaguard.MetricOTPExpired, Name: "somaguard_otp_expired_total", Help: "OTP verifications rejected as expired."},
	{ID: somaguard.MetricOTPReplay, Name: "somaguard_otp_replay_total", Help: "OTP verifications rejected as already used."},
	{ID: somaguard.MetricPasswordChangeSuccess, Name: "somaguard_password_change_success_total", Help: "Successful password changes."},
	{ID: somaguard.MetricPasswordChangeInvalidCurrent, Name: "somaguard_password_change_invalid_current_total", Help: "Password change attempts with an invalid current password."},
	{ID: somaguard.MetricPasswordChangePolicyRejected, Name: "somaguard_password_change_policy_rejected_total", Help: "Password change attempts rejected by the complexity policy."},
	{ID: somaguard.MetricWebhookAccepted, Name: "somaguard_webhook_accepted_total", Help: "Webhook requests with a valid signature."},
	{ID: somaguard.MetricWebhookRejected, Name: "somaguard_webhook_rejected_total", Help: "Webhook requests rejected for an invalid signature."},
	{ID: somaguard.MetricWebhookMisconfigured, Name: "somaguard_webhook_misconfigured_total", Help: "Webhook requests refused because no secret is configured."},
	{ID: somaguard.MetricReconcileApplied, Name: "somaguard_reconcile_applied_total", Help: "Applied transaction state transitions."},
	{ID: somaguard.MetricReconcileReplay, Name: "somaguard_reconcile_replay_total", Help: "Reconciliations resolved idempotently against a terminal record."},
	{ID: somaguard.MetricReconcileUnknownReference, Name: "somaguard_reconcile_unknown_reference_total", Help: "Webhooks for customer references this system never issued."},
	{ID: somaguard.MetricReconcileInvalidStatus, Name: "somaguard_reconcile_invalid_status_total", Help: "Webhooks carrying an unrecognized transaction status."},
	{ID: somaguard.MetricNotifySent, Name: "somaguard_notify_sent_total", Help: "Successful notification deliveries."},
	{ID: somaguard.MetricNotifyFailed, Name: "somaguard_notify_failed_total", Help: "Failed notification deliveries."},
}

// HistogramDefs is an exported constant or variable used by the verification engine.
var HistogramDefs = []HistogramDef{
	{ID: somaguard.MetricVerifyLatency, Name: "somaguard_verify_latency_seconds", Help: "OTP verify latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the verification engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the verification engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
