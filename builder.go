package somaguard

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/somasave/somaguard/internal/notify"
	"github.com/somasave/somaguard/password"
	"github.com/somasave/somaguard/webhook"
)

// Builder defines a public type used by somaguard APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	userProvider UserProvider
	txProvider   TransactionProvider
	transport    DeliveryTransport
	auditSink    AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider may return an error when input validation, dependency calls, or security checks fail.
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithTransactionProvider describes the withtransactionprovider operation and its observable behavior.
//
// WithTransactionProvider may return an error when input validation, dependency calls, or security checks fail.
// WithTransactionProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTransactionProvider(tp TransactionProvider) *Builder {
	b.txProvider = tp
	return b
}

// WithTransport describes the withtransport operation and its observable behavior.
//
// WithTransport may return an error when input validation, dependency calls, or security checks fail.
// WithTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTransport(t DeliveryTransport) *Builder {
	b.transport = t
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.OTP.Enabled && b.redis == nil {
		return nil, errors.New("OTP challenges require a redis client")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if b.txProvider == nil {
		return nil, errors.New("transaction provider required")
	}
	if b.transport == nil {
		return nil, errors.New("delivery transport required")
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	authenticator, err := webhook.NewAuthenticator(cfg.Webhook.Secret)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:        cfg,
		authenticator: authenticator,
		notifier:      notify.NewDispatcher(cfg.Notify.MaxConcurrency, cfg.Notify.DeliveryTimeout),
		audit:         newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:       NewMetrics(cfg.Metrics),
		passwordHash:  hasher,
		passwordPolicy: password.Policy{
			MinLength:     cfg.Password.MinLength,
			RequireLetter: cfg.Password.RequireLetter,
			RequireDigit:  cfg.Password.RequireDigit,
		},
		userProvider: b.userProvider,
		txProvider:   b.txProvider,
		transport:    b.transport,
		now:          time.Now,
	}

	if cfg.OTP.Enabled {
		engine.challengeStore = newOTPChallengeStore(b.redis, cfg.OTP.RedisPrefix)
	}
	if cfg.StepUp.Enabled {
		engine.stepUp = newStepUpIssuer(cfg.StepUp, func() time.Time { return engine.now() })
	}

	b.built = true
	return engine, nil
}
