package somaguard

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/somasave/somaguard/ledger"
	"github.com/somasave/somaguard/webhook"
)

const (
	testCallbackURL = "https://pay.somasave.example/api/payments/relworx-webhook/"
	testTimestamp   = "1234567890"
)

func seedPending(t *testing.T, f *engineFixture, ref, msisdn string) {
	t.Helper()

	err := f.txStore.Put(context.Background(), ledger.Record{
		CustomerReference: ref,
		Status:            ledger.StatusPending,
		AmountCents:       100_000,
		Currency:          "UGX",
		MSISDN:            msisdn,
		Kind:              "deposit",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func signedEnvelope(params map[string]string) webhook.Envelope {
	return webhook.Envelope{
		URL:       testCallbackURL,
		Timestamp: testTimestamp,
		Signature: webhook.Sign([]byte(testSecret), testCallbackURL, testTimestamp, params),
		Params:    params,
	}
}

func TestAuthenticateWebhook(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()

	params := map[string]string{
		"status":             "success",
		"customer_reference": "SOMA-W1",
		"internal_reference": "RELWORX-1",
	}

	payload, err := f.engine.AuthenticateWebhook(ctx, signedEnvelope(params))
	if err != nil {
		t.Fatalf("AuthenticateWebhook: %v", err)
	}
	if payload.CustomerReference() != "SOMA-W1" || payload.Status() != "success" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	bad := signedEnvelope(params)
	bad.Signature = "0000" + bad.Signature[4:]
	if _, err := f.engine.AuthenticateWebhook(ctx, bad); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestReconcileAppliesAndNotifiesOnce(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()
	seedPending(t, f, "SOMA-W2", "+256700000002")

	payload := VerifiedPayload{Params: map[string]string{
		"status":             "success",
		"customer_reference": "SOMA-W2",
		"internal_reference": "RELWORX-2",
	}}

	outcome, err := f.engine.Reconcile(ctx, payload)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Fatalf("expected OutcomeApplied, got %v", outcome)
	}
	if got := f.transport.deliveries(); got != 1 {
		t.Fatalf("expected one notification, got %d", got)
	}

	record, err := f.txStore.GetByCustomerReference(ctx, "SOMA-W2")
	if err != nil {
		t.Fatalf("GetByCustomerReference: %v", err)
	}
	if record.Status != ledger.StatusSuccess || record.InternalReference != "RELWORX-2" {
		t.Fatalf("unexpected record after reconcile: %+v", record)
	}
	if record.NotifiedAt == 0 {
		t.Fatal("expected notified stamp on applied transition")
	}

	// Identical replay: idempotent, zero additional notifications.
	outcome, err = f.engine.Reconcile(ctx, payload)
	if err != nil {
		t.Fatalf("Reconcile replay: %v", err)
	}
	if outcome != OutcomeAlreadyReconciled {
		t.Fatalf("expected OutcomeAlreadyReconciled, got %v", outcome)
	}
	if got := f.transport.deliveries(); got != 1 {
		t.Fatalf("replay must not re-notify, got %d deliveries", got)
	}
}

func TestReconcileFailedStatus(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()
	seedPending(t, f, "SOMA-W3", "+256700000003")

	outcome, err := f.engine.Reconcile(ctx, VerifiedPayload{Params: map[string]string{
		"status":             "failed",
		"customer_reference": "SOMA-W3",
		"internal_reference": "RELWORX-3",
	}})
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("Reconcile = (%v, %v)", outcome, err)
	}

	record, _ := f.txStore.GetByCustomerReference(ctx, "SOMA-W3")
	if record.Status != ledger.StatusFailed {
		t.Fatalf("expected failed status, got %s", record.Status)
	}
}

func TestReconcileUnknownReference(t *testing.T) {
	f := newTestEngine(t, nil)

	_, err := f.engine.Reconcile(context.Background(), VerifiedPayload{Params: map[string]string{
		"status":             "success",
		"customer_reference": "SOMA-NEVER",
		"internal_reference": "RELWORX-9",
	}})
	if !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference, got %v", err)
	}
}

func TestReconcileInvalidStatusLeavesRecordPending(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()
	seedPending(t, f, "SOMA-W4", "+256700000004")

	_, err := f.engine.Reconcile(ctx, VerifiedPayload{Params: map[string]string{
		"status":             "on_hold",
		"customer_reference": "SOMA-W4",
		"internal_reference": "RELWORX-4",
	}})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	record, _ := f.txStore.GetByCustomerReference(ctx, "SOMA-W4")
	if record.Status != ledger.StatusPending {
		t.Fatalf("record must stay pending, got %s", record.Status)
	}
	if got := f.transport.deliveries(); got != 0 {
		t.Fatalf("refused reconcile must not notify, got %d", got)
	}
}

func TestHandleWebhookStatusMapping(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()
	seedPending(t, f, "SOMA-W5", "+256700000005")
	seedPending(t, f, "SOMA-W6", "+256700000006")

	okParams := map[string]string{
		"status":             "success",
		"customer_reference": "SOMA-W5",
		"internal_reference": "RELWORX-5",
	}
	env := signedEnvelope(okParams)

	result, err := f.engine.HandleWebhook(ctx, env.URL, env.Timestamp, env.Signature, env.Params)
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if result.HTTPStatus != http.StatusOK || result.Outcome != OutcomeApplied {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.NewStatus != ledger.StatusSuccess {
		t.Fatalf("expected success status in result, got %s", result.NewStatus)
	}

	cases := []struct {
		name       string
		params     map[string]string
		mutate     func(*webhook.Envelope)
		wantStatus int
	}{
		{
			name:       "bad signature",
			params:     okParams,
			mutate:     func(e *webhook.Envelope) { e.Signature = "feedface" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown reference",
			params: map[string]string{
				"status":             "success",
				"customer_reference": "SOMA-GHOST",
				"internal_reference": "RELWORX-6",
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "invalid status",
			params: map[string]string{
				"status":             "queued",
				"customer_reference": "SOMA-W6",
				"internal_reference": "RELWORX-6",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := signedEnvelope(tc.params)
			if tc.mutate != nil {
				tc.mutate(&env)
			}
			result, err := f.engine.HandleWebhook(ctx, env.URL, env.Timestamp, env.Signature, env.Params)
			if err == nil {
				t.Fatal("expected an error")
			}
			if result.HTTPStatus != tc.wantStatus {
				t.Fatalf("HTTPStatus = %d, want %d", result.HTTPStatus, tc.wantStatus)
			}
		})
	}
}

func TestDispatchBulkCounts(t *testing.T) {
	f := newTestEngine(t, nil)
	f.transport.failFor["ep-2"] = true
	f.transport.failFor["ep-4"] = true

	recipients := []Recipient{
		{UserID: "u1", Endpoint: "ep-1"},
		{UserID: "u2", Endpoint: "ep-2"},
		{UserID: "u3", Endpoint: "ep-3"},
		{UserID: "u4", Endpoint: "ep-4"},
		{UserID: "u5", Endpoint: "ep-5"},
	}

	report := f.engine.DispatchBulk(context.Background(), recipients, Message{
		Title: "Quarterly statement",
		Body:  "Your savings statement is ready.",
	})

	if report.Total != 5 || report.Sent != 3 || report.Failed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	snapshot := f.engine.MetricsSnapshot()
	if snapshot.Counters[MetricNotifySent] != 3 || snapshot.Counters[MetricNotifyFailed] != 2 {
		t.Fatalf("unexpected notify counters: sent=%d failed=%d",
			snapshot.Counters[MetricNotifySent], snapshot.Counters[MetricNotifyFailed])
	}
}

func TestMetricsTrackVerificationOutcomes(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()

	issue, err := f.engine.RequestOTP(ctx, "member-1")
	if err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if err := f.engine.VerifyOTP(ctx, "member-1", issue.Code); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	_ = f.engine.VerifyOTP(ctx, "member-1", issue.Code)

	snapshot := f.engine.MetricsSnapshot()
	if snapshot.Counters[MetricOTPRequest] != 1 {
		t.Fatalf("expected 1 otp request, got %d", snapshot.Counters[MetricOTPRequest])
	}
	if snapshot.Counters[MetricOTPVerifySuccess] != 1 {
		t.Fatalf("expected 1 verify success, got %d", snapshot.Counters[MetricOTPVerifySuccess])
	}
	if snapshot.Counters[MetricOTPReplay] != 1 {
		t.Fatalf("expected 1 replay, got %d", snapshot.Counters[MetricOTPReplay])
	}
}
