package somaguard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/somasave/somaguard/ledger"
	"github.com/somasave/somaguard/webhook"
)

// AuthenticateWebhook describes the authenticatewebhook operation and its observable behavior.
//
// AuthenticateWebhook may return an error when input validation, dependency calls, or security checks fail.
// AuthenticateWebhook does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuthenticateWebhook(ctx context.Context, env webhook.Envelope) (VerifiedPayload, error) {
	if e == nil || e.authenticator == nil {
		return VerifiedPayload{}, ErrEngineNotReady
	}

	params, err := e.authenticator.Authenticate(env)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrMisconfigured):
			e.metricInc(MetricWebhookMisconfigured)
			e.emitAudit(ctx, auditEventWebhookRejected, false, "", env.Params["customer_reference"], ErrWebhookMisconfigured, nil)
			return VerifiedPayload{}, ErrWebhookMisconfigured
		default:
			e.metricInc(MetricWebhookRejected)
			e.emitAudit(ctx, auditEventWebhookRejected, false, "", env.Params["customer_reference"], ErrInvalidSignature, nil)
			return VerifiedPayload{}, ErrInvalidSignature
		}
	}

	e.metricInc(MetricWebhookAccepted)
	e.emitAudit(ctx, auditEventWebhookAuthenticated, true, "", params["customer_reference"], nil, nil)

	return VerifiedPayload{Params: params}, nil
}

// Reconcile describes the reconcile operation and its observable behavior.
//
// Reconcile may return an error when input validation, dependency calls, or security checks fail.
// Reconcile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Reconcile is idempotent per customer reference: a terminal record, or a
// lost race against a concurrent delivery of the same webhook, reports
// OutcomeAlreadyReconciled and triggers no further side effects. Only the
// single applied transition notifies the member.
func (e *Engine) Reconcile(ctx context.Context, payload VerifiedPayload) (ReconcileOutcome, error) {
	if e == nil || e.txProvider == nil {
		return OutcomeAlreadyReconciled, ErrEngineNotReady
	}

	ref := payload.CustomerReference()
	if ref == "" {
		e.metricInc(MetricReconcileUnknownReference)
		return OutcomeAlreadyReconciled, ErrUnknownReference
	}

	record, err := e.txProvider.GetByCustomerReference(ctx, ref)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			e.metricInc(MetricReconcileUnknownReference)
			e.emitAudit(ctx, auditEventReconcileRefused, false, "", ref, ErrUnknownReference, nil)
			return OutcomeAlreadyReconciled, ErrUnknownReference
		}
		return OutcomeAlreadyReconciled, ErrStoreUnavailable
	}

	if record.Status.Terminal() {
		e.metricInc(MetricReconcileReplay)
		e.emitAudit(ctx, auditEventReconcileReplay, true, "", ref, nil, func() map[string]string {
			return map[string]string{"status": string(record.Status)}
		})
		return OutcomeAlreadyReconciled, nil
	}

	next, err := nextStatusFor(payload.Status())
	if err != nil {
		e.metricInc(MetricReconcileInvalidStatus)
		e.emitAudit(ctx, auditEventReconcileRefused, false, "", ref, err, func() map[string]string {
			return map[string]string{"payload_status": payload.Status()}
		})
		return OutcomeAlreadyReconciled, err
	}

	result, err := e.txProvider.CASTransition(ctx, ref, ledger.StatusPending, next, payload.InternalReference())
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			e.metricInc(MetricReconcileUnknownReference)
			return OutcomeAlreadyReconciled, ErrUnknownReference
		}
		return OutcomeAlreadyReconciled, ErrStoreUnavailable
	}
	if result != ledger.CASApplied {
		e.metricInc(MetricReconcileReplay)
		e.emitAudit(ctx, auditEventReconcileReplay, true, "", ref, nil, nil)
		return OutcomeAlreadyReconciled, nil
	}

	e.metricInc(MetricReconcileApplied)
	e.emitAudit(ctx, auditEventReconcileApplied, true, "", ref, nil, func() map[string]string {
		return map[string]string{
			"status":             string(next),
			"internal_reference": payload.InternalReference(),
		}
	})

	e.notifyTransition(ctx, record, next)

	return OutcomeApplied, nil
}

// HandleWebhook describes the handlewebhook operation and its observable behavior.
//
// HandleWebhook may return an error when input validation, dependency calls, or security checks fail.
// HandleWebhook does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HandleWebhook composes authentication and reconciliation for the inbound
// HTTP boundary. The returned HTTPStatus is set on every path, error paths
// included, so handlers can respond without re-mapping errors.
func (e *Engine) HandleWebhook(
	ctx context.Context,
	rawURL, timestamp, signature string,
	params map[string]string,
) (WebhookResult, error) {
	payload, err := e.AuthenticateWebhook(ctx, webhook.Envelope{
		URL:       rawURL,
		Timestamp: timestamp,
		Signature: signature,
		Params:    params,
	})
	if err != nil {
		return WebhookResult{HTTPStatus: webhookHTTPStatus(err)}, err
	}

	outcome, err := e.Reconcile(ctx, payload)
	result := WebhookResult{
		Outcome:           outcome,
		CustomerReference: payload.CustomerReference(),
		InternalReference: payload.InternalReference(),
		HTTPStatus:        webhookHTTPStatus(err),
	}
	if err != nil {
		return result, err
	}

	if next, statusErr := nextStatusFor(payload.Status()); statusErr == nil {
		result.NewStatus = next
	}
	return result, nil
}

func nextStatusFor(payloadStatus string) (ledger.Status, error) {
	switch payloadStatus {
	case string(ledger.StatusSuccess):
		return ledger.StatusSuccess, nil
	case string(ledger.StatusFailed):
		return ledger.StatusFailed, nil
	default:
		return "", ErrInvalidStatus
	}
}

func webhookHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrWebhookMisconfigured):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (e *Engine) notifyTransition(ctx context.Context, record ledger.Record, next ledger.Status) {
	if e.transport == nil || record.MSISDN == "" {
		return
	}

	title := "Deposit received"
	body := fmt.Sprintf("Your %s of %s %.2f was successful.",
		record.Kind, record.Currency, float64(record.AmountCents)/100)
	if next == ledger.StatusFailed {
		title = "Payment failed"
		body = fmt.Sprintf("Your %s of %s %.2f could not be completed.",
			record.Kind, record.Currency, float64(record.AmountCents)/100)
	}

	message := Message{
		ID:    uuid.NewString(),
		Title: title,
		Body:  body,
		URL:   "/transactions/" + record.CustomerReference,
		Icon:  "wallet",
	}

	report := e.DispatchBulk(ctx, []Recipient{{Endpoint: record.MSISDN}}, message)

	e.emitAudit(ctx, auditEventNotificationDispatch, report.Failed == 0, "", record.CustomerReference, nil, func() map[string]string {
		return map[string]string{
			"sent":   fmt.Sprintf("%d", report.Sent),
			"failed": fmt.Sprintf("%d", report.Failed),
		}
	})
}
