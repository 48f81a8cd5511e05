package somaguard

import (
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Webhook.Secret = "config-test-secret"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"otp digits too small", func(c *Config) { c.OTP.Digits = 4 }},
		{"otp digits too large", func(c *Config) { c.OTP.Digits = 11 }},
		{"otp ttl zero", func(c *Config) { c.OTP.TTL = 0 }},
		{"otp prefix empty", func(c *Config) { c.OTP.RedisPrefix = "" }},
		{"password min length zero", func(c *Config) { c.Password.MinLength = 0 }},
		{"step-up short key", func(c *Config) {
			c.StepUp.Enabled = true
			c.StepUp.SigningKey = []byte("short")
		}},
		{"negative delivery timeout", func(c *Config) { c.Notify.DeliveryTimeout = -time.Second }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigValidateMissingWebhookSecret(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); !errors.Is(err, ErrWebhookMisconfigured) {
		t.Fatalf("expected ErrWebhookMisconfigured, got %v", err)
	}
}

func TestCloneConfigDetachesSigningKey(t *testing.T) {
	cfg := validConfig()
	cfg.StepUp.SigningKey = []byte("0123456789abcdef0123456789abcdef")

	clone := cloneConfig(cfg)
	clone.StepUp.SigningKey[0] = 'X'

	if cfg.StepUp.SigningKey[0] == 'X' {
		t.Fatal("clone must not alias the original signing key")
	}
}

func TestBuilderRequiresCollaborators(t *testing.T) {
	cfg := validConfig()

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	f := newTestEngine(t, nil)

	b := New()
	cfg := validConfig()
	cfg.OTP.Enabled = false
	b.WithConfig(cfg).
		WithUserProvider(&mockUserProvider{hashes: map[string]string{}}).
		WithTransactionProvider(f.txStore).
		WithTransport(f.transport)

	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
