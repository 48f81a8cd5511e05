package somaguard

import (
	"context"
	"time"

	"github.com/somasave/somaguard/ledger"
)

// UserProvider is the interface callers must implement to integrate
// somaguard with their member database. It covers only credential-hash
// lookup and replacement; account CRUD, profile fields, and delivery
// channels stay on the caller's side of the boundary.
type UserProvider interface {
	GetCredentialHash(ctx context.Context, userID string) (string, error)
	UpdateCredentialHash(ctx context.Context, userID, newHash string) error
}

// TransactionProvider is the reconciler's view of the transaction store.
// CASTransition must be atomic: the status check, the transition, the
// internal-reference stamp, and the notified mark happen as one unit or not
// at all. [ledger.RedisStore] and [ledger.MemoryStore] both satisfy it.
type TransactionProvider interface {
	GetByCustomerReference(ctx context.Context, customerReference string) (ledger.Record, error)
	CASTransition(ctx context.Context, customerReference string, expected, next ledger.Status, internalReference string) (ledger.CASResult, error)
}

// DeliveryTransport sends one message to one recipient endpoint. A non-nil
// error counts the recipient as failed; it never aborts the remaining
// recipients of a bulk dispatch.
type DeliveryTransport interface {
	Deliver(ctx context.Context, endpoint string, message Message) error
}

// OTPIssue is returned by [Engine.RequestOTP]. The plaintext code is handed
// to the caller exactly once, for delivery over a registered channel; the
// engine persists only a salted hash of it.
type OTPIssue struct {
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// VerifiedPayload is the authenticated webhook parameter map produced by
// [Engine.AuthenticateWebhook]. Its contents are trusted downstream; nothing
// else in the engine accepts raw webhook params.
type VerifiedPayload struct {
	Params map[string]string
}

// Field accessors for the gateway's well-known parameter names.
func (p VerifiedPayload) Status() string            { return p.Params["status"] }
func (p VerifiedPayload) CustomerReference() string { return p.Params["customer_reference"] }
func (p VerifiedPayload) InternalReference() string { return p.Params["internal_reference"] }
func (p VerifiedPayload) Amount() string            { return p.Params["amount"] }
func (p VerifiedPayload) Currency() string          { return p.Params["currency"] }

// ReconcileOutcome reports what a reconciliation attempt did.
type ReconcileOutcome uint8

const (
	// OutcomeApplied is an exported constant or variable used by the verification engine.
	OutcomeApplied ReconcileOutcome = iota
	// OutcomeAlreadyReconciled is an exported constant or variable used by the verification engine.
	OutcomeAlreadyReconciled
)

// String describes the outcome for audit metadata and HTTP bodies.
func (o ReconcileOutcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyReconciled:
		return "already_reconciled"
	default:
		return "unknown"
	}
}

// WebhookResult is returned by [Engine.HandleWebhook]. HTTPStatus is the
// response code the inbound boundary should emit; it is set on both success
// and failure paths.
type WebhookResult struct {
	Outcome           ReconcileOutcome
	CustomerReference string
	InternalReference string
	NewStatus         ledger.Status
	HTTPStatus        int
}

// Recipient is one notification target. Endpoint is opaque to the engine
// (a push subscription URL, phone number, device token).
type Recipient struct {
	UserID   string
	Endpoint string
}

// Message is the notification payload shape accepted by
// [DeliveryTransport]. Field set mirrors what the member-facing clients
// render: title, body, deep link, icon.
type Message struct {
	ID    string
	Title string
	Body  string
	URL   string
	Icon  string
}

// DispatchReport aggregates a bulk dispatch. Total == Sent + Failed and
// counts every attempted recipient exactly once.
type DispatchReport struct {
	Total  int
	Sent   int
	Failed int
}

// SecurityReport is a read-only snapshot of the engine's verification
// posture, returned by [Engine.SecurityReport].
type SecurityReport struct {
	OTPEnabled        bool
	OTPDigits         int
	OTPTTL            time.Duration
	StepUpEnabled     bool
	WebhookConfigured bool
	NotifyConcurrency int
	AuditEnabled      bool
	MetricsEnabled    bool
	Argon2            PasswordConfigReport
}

// PasswordConfigReport contains the argon2id parameters active in the engine.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}
