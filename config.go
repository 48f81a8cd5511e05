package somaguard

import (
	"errors"
	"time"
)

// Config defines a public type used by somaguard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP      OTPConfig
	Password PasswordConfig
	StepUp   StepUpConfig
	Webhook  WebhookConfig
	Notify   NotifyConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by somaguard APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Enabled bool
	Digits  int
	// TTL is the validity window measured from generation. A code presented
	// at exactly TTL elapsed is expired; the valid window is [createdAt,
	// createdAt+TTL).
	TTL         time.Duration
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by somaguard APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength     int
	RequireLetter bool
	RequireDigit  bool
}

/*
====================================
STEP-UP CONFIG
====================================
*/

// StepUpConfig defines a public type used by somaguard APIs.
//
// StepUpConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StepUpConfig struct {
	Enabled    bool
	TTL        time.Duration
	SigningKey []byte
	Issuer     string
}

/*
====================================
WEBHOOK CONFIG
====================================
*/

// WebhookConfig defines a public type used by somaguard APIs.
//
// WebhookConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type WebhookConfig struct {
	// Secret is the shared HMAC key agreed with the payment gateway. It must
	// be non-empty at Build time; the authenticator also re-checks it per
	// request so an operational hot-swap to an empty value fails closed.
	Secret string
	// CallbackURL is the exact URL the gateway signs against. Requests are
	// canonicalized with the URL the boundary received, so this field is
	// informational for the demo daemon and reports.
	CallbackURL string
}

// NotifyConfig defines a public type used by somaguard APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	// MaxConcurrency bounds parallel deliveries in a bulk dispatch.
	// Values < 1 serialize delivery.
	MaxConcurrency int
	// DeliveryTimeout caps a single recipient delivery. Zero disables the
	// per-recipient deadline.
	DeliveryTimeout time.Duration
}

// AuditConfig defines a public type used by somaguard APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by somaguard APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Enabled:     true,
			Digits:      6,
			TTL:         10 * time.Minute,
			RedisPrefix: "sgo",
		},
		Password: PasswordConfig{
			Memory:        64 * 1024,
			Time:          3,
			Parallelism:   2,
			SaltLength:    16,
			KeyLength:     32,
			MinLength:     8,
			RequireLetter: true,
			RequireDigit:  true,
		},
		StepUp: StepUpConfig{
			Enabled: false,
			TTL:     5 * time.Minute,
			Issuer:  "somaguard",
		},
		Notify: NotifyConfig{
			MaxConcurrency:  8,
			DeliveryTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.OTP.Enabled {
		if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
			return errors.New("OTP digits must be between 6 and 10")
		}
		if c.OTP.TTL <= 0 {
			return errors.New("OTP TTL must be positive")
		}
		if c.OTP.RedisPrefix == "" {
			return errors.New("OTP redis prefix must not be empty")
		}
	}

	if c.Password.MinLength < 1 {
		return errors.New("password minimum length must be >= 1")
	}

	if c.StepUp.Enabled {
		if len(c.StepUp.SigningKey) < 32 {
			return errors.New("step-up signing key must be at least 32 bytes")
		}
		if c.StepUp.TTL <= 0 {
			return errors.New("step-up TTL must be positive")
		}
	}

	if c.Webhook.Secret == "" {
		return ErrWebhookMisconfigured
	}

	if c.Notify.DeliveryTimeout < 0 {
		return errors.New("notify delivery timeout must not be negative")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.StepUp.SigningKey = cloneBytes(cfg.StepUp.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
