package somaguard

import (
	"context"
	"time"
)

const (
	auditEventOTPRequest            = "otp_request"
	auditEventOTPVerify             = "otp_verify"
	auditEventOTPDisabledForUser    = "otp_disabled_for_user"
	auditEventPasswordChange        = "password_change"
	auditEventWebhookAuthenticated  = "webhook_authenticated"
	auditEventWebhookRejected       = "webhook_rejected"
	auditEventReconcileApplied      = "reconcile_applied"
	auditEventReconcileReplay       = "reconcile_replay"
	auditEventReconcileRefused      = "reconcile_refused"
	auditEventNotificationDispatch  = "notification_dispatch"
)

// emitAudit builds the event lazily: metadata closures only run when a
// dispatcher is attached.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, reference string,
	failure error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Reference: reference,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
