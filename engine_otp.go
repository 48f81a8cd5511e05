package somaguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/somasave/somaguard/internal"
)

// RequestOTP describes the requestotp operation and its observable behavior.
//
// RequestOTP may return an error when input validation, dependency calls, or security checks fail.
// RequestOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The issued code supersedes any live challenge for the same user: the
// previous code stops verifying the moment the new one is stored.
func (e *Engine) RequestOTP(ctx context.Context, userID string) (OTPIssue, error) {
	if e == nil || e.challengeStore == nil {
		return OTPIssue{}, ErrEngineNotReady
	}
	if !e.config.OTP.Enabled {
		return OTPIssue{}, ErrOTPDisabled
	}
	if userID == "" {
		return OTPIssue{}, errors.New("user id must not be empty")
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return OTPIssue{}, fmt.Errorf("generate otp: %w", err)
	}

	now := e.now()
	hash := internal.HashCode(code)
	record := &otpChallengeRecord{
		CodeHash:  hash,
		CreatedAt: now.Unix(),
	}

	if err := e.challengeStore.Save(ctx, userID, record, e.config.OTP.TTL); err != nil {
		e.emitAudit(ctx, auditEventOTPRequest, false, userID, "", err, nil)
		return OTPIssue{}, ErrStoreUnavailable
	}

	e.metricInc(MetricOTPRequest)
	e.emitAudit(ctx, auditEventOTPRequest, true, userID, "", nil, func() map[string]string {
		return map[string]string{
			"digits": fmt.Sprintf("%d", e.config.OTP.Digits),
		}
	})

	return OTPIssue{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(e.config.OTP.TTL),
	}, nil
}

// VerifyOTP describes the verifyotp operation and its observable behavior.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A correct code verifies exactly once. Concurrent verifies race for a
// single atomic consume; every loser observes ErrChallengeUsed.
func (e *Engine) VerifyOTP(ctx context.Context, userID, code string) error {
	_, err := e.verifyOTP(ctx, userID, code, false)
	return err
}

// VerifyOTPWithProof describes the verifyotpwithproof operation and its observable behavior.
//
// VerifyOTPWithProof may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTPWithProof does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// On success it also mints a short-lived step-up proof token bound to the
// user, for gating sensitive follow-up actions without a second challenge.
// Requires step-up to be enabled in the configuration.
func (e *Engine) VerifyOTPWithProof(ctx context.Context, userID, code string) (string, error) {
	return e.verifyOTP(ctx, userID, code, true)
}

// CheckStepUpProof describes the checkstepupproof operation and its observable behavior.
//
// CheckStepUpProof may return an error when input validation, dependency calls, or security checks fail.
// CheckStepUpProof does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckStepUpProof(proof, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.stepUp == nil {
		return ErrStepUpDisabled
	}
	return e.stepUp.Check(proof, userID)
}

// DisableOTP drops any live challenge for the user. Used when a member
// turns 2FA off; a code issued before the switch must not verify after it.
func (e *Engine) DisableOTP(ctx context.Context, userID string) error {
	if e == nil || e.challengeStore == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return errors.New("user id must not be empty")
	}

	if err := e.challengeStore.Delete(ctx, userID); err != nil {
		return ErrStoreUnavailable
	}

	e.emitAudit(ctx, auditEventOTPDisabledForUser, true, userID, "", nil, nil)
	return nil
}

func (e *Engine) verifyOTP(ctx context.Context, userID, code string, withProof bool) (string, error) {
	if e == nil || e.challengeStore == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.OTP.Enabled {
		return "", ErrOTPDisabled
	}
	if userID == "" || code == "" {
		return "", ErrCodeMismatch
	}
	if withProof && e.stepUp == nil {
		return "", ErrStepUpDisabled
	}

	start := e.now()
	err := e.challengeStore.Consume(ctx, userID, internal.HashCode(code), start, e.config.OTP.TTL)
	e.metrics.Observe(MetricVerifyLatency, time.Since(start))

	if err != nil {
		mapped := mapChallengeError(err)
		e.recordVerifyFailure(ctx, userID, mapped)
		return "", mapped
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerify, true, userID, "", nil, nil)

	if !withProof {
		return "", nil
	}

	proof, err := e.stepUp.Mint(userID)
	if err != nil {
		// The challenge is already consumed; surface the minting fault
		// rather than pretending verification failed.
		return "", err
	}
	return proof, nil
}

func (e *Engine) recordVerifyFailure(ctx context.Context, userID string, mapped error) {
	switch {
	case errors.Is(mapped, ErrChallengeExpired):
		e.metricInc(MetricOTPExpired)
	case errors.Is(mapped, ErrChallengeUsed):
		e.metricInc(MetricOTPReplay)
	default:
		e.metricInc(MetricOTPVerifyFailure)
	}
	e.emitAudit(ctx, auditEventOTPVerify, false, userID, "", mapped, nil)
}

func mapChallengeError(err error) error {
	switch {
	case errors.Is(err, errChallengeNotFound):
		return ErrChallengeNotFound
	case errors.Is(err, errChallengeConsumed):
		return ErrChallengeUsed
	case errors.Is(err, errChallengeExpired):
		return ErrChallengeExpired
	case errors.Is(err, errChallengeCodeMismatch):
		return ErrCodeMismatch
	default:
		return ErrStoreUnavailable
	}
}
