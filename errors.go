package somaguard

import "errors"

var (
	// ErrChallengeNotFound is an exported constant or variable used by the verification engine.
	ErrChallengeNotFound = errors.New("otp challenge not found")
	// ErrChallengeUsed is an exported constant or variable used by the verification engine.
	ErrChallengeUsed = errors.New("otp challenge already used")
	// ErrChallengeExpired is an exported constant or variable used by the verification engine.
	ErrChallengeExpired = errors.New("otp challenge expired")
	// ErrCodeMismatch is an exported constant or variable used by the verification engine.
	ErrCodeMismatch = errors.New("otp code mismatch")
	// ErrOTPDisabled is an exported constant or variable used by the verification engine.
	ErrOTPDisabled = errors.New("otp feature disabled")
	// ErrInvalidCredentials is an exported constant or variable used by the verification engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordPolicy is an exported constant or variable used by the verification engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is an exported constant or variable used by the verification engine.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrInvalidSignature is an exported constant or variable used by the verification engine.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrWebhookMisconfigured is an exported constant or variable used by the verification engine.
	ErrWebhookMisconfigured = errors.New("webhook secret not configured")
	// ErrUnknownReference is an exported constant or variable used by the verification engine.
	ErrUnknownReference = errors.New("unknown customer reference")
	// ErrInvalidStatus is an exported constant or variable used by the verification engine.
	ErrInvalidStatus = errors.New("unrecognized transaction status in payload")
	// ErrStepUpDisabled is an exported constant or variable used by the verification engine.
	ErrStepUpDisabled = errors.New("step-up proof tokens disabled")
	// ErrStepUpInvalid is an exported constant or variable used by the verification engine.
	ErrStepUpInvalid = errors.New("invalid step-up proof token")
	// ErrStoreUnavailable is an exported constant or variable used by the verification engine.
	ErrStoreUnavailable = errors.New("verification backend unavailable")
	// ErrUserNotFound is an exported constant or variable used by the verification engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is an exported constant or variable used by the verification engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
