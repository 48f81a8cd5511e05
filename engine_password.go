package somaguard

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Order of checks is fixed: policy on the candidate first, then the current
// credential, then reuse. A caller who fails the policy learns nothing about
// whether their current password was right.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	if err := e.passwordPolicy.Validate(newPassword); err != nil {
		e.metricInc(MetricPasswordChangePolicyRejected)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", err, nil)
		return fmt.Errorf("%w: %w", ErrPasswordPolicy, err)
	}

	storedHash, err := e.userProvider.GetCredentialHash(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrStoreUnavailable
	}

	ok, err := e.passwordHash.Verify(currentPassword, storedHash)
	if err != nil {
		return ErrStoreUnavailable
	}
	if !ok {
		e.metricInc(MetricPasswordChangeInvalidCurrent)
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if newPassword == currentPassword {
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return ErrStoreUnavailable
	}

	if err := e.userProvider.UpdateCredentialHash(ctx, userID, newHash); err != nil {
		e.emitAudit(ctx, auditEventPasswordChange, false, userID, "", err, nil)
		return ErrStoreUnavailable
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, userID, "", nil, nil)
	return nil
}
