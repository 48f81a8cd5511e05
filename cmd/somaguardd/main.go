// Command somaguardd runs the verification engine as a standalone HTTP
// service: the gateway webhook endpoint, the 2FA login endpoints, and a
// Prometheus metrics mount.
//
// Configuration comes from the environment (a local .env file is loaded
// when present). Without SOMAGUARD_REDIS_ADDR the daemon starts an embedded
// miniredis, which is only suitable for local development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	somaguard "github.com/somasave/somaguard"
	"github.com/somasave/somaguard/httpapi"
	"github.com/somasave/somaguard/ledger"
	"github.com/somasave/somaguard/metrics/export/prometheus"
)

type daemonConfig struct {
	ListenAddr    string        `env:"SOMAGUARD_LISTEN_ADDR" envDefault:":8080"`
	RedisAddr     string        `env:"SOMAGUARD_REDIS_ADDR"`
	RedisPassword string        `env:"SOMAGUARD_REDIS_PASSWORD"`
	WebhookSecret string        `env:"SOMAGUARD_WEBHOOK_SECRET,required"`
	CallbackURL   string        `env:"SOMAGUARD_CALLBACK_URL"`
	OTPTTL        time.Duration `env:"SOMAGUARD_OTP_TTL" envDefault:"10m"`
	StepUpKey     string        `env:"SOMAGUARD_STEPUP_KEY"`
	AuditLog      bool          `env:"SOMAGUARD_AUDIT_LOG" envDefault:"true"`
	SeedDemoData  bool          `env:"SOMAGUARD_SEED_DEMO" envDefault:"false"`
}

// logTransport is the development delivery transport: notifications land in
// the service log instead of a push provider.
type logTransport struct {
	logger *zap.Logger
}

func (t logTransport) Deliver(_ context.Context, endpoint string, message somaguard.Message) error {
	t.logger.Info("notification delivered",
		zap.String("endpoint", endpoint),
		zap.String("title", message.Title),
		zap.String("body", message.Body),
	)
	return nil
}

// envUserProvider is a placeholder credential store for the demo daemon. A
// production deployment wires the member database here.
type envUserProvider struct {
	creds map[string]string
}

func (p *envUserProvider) GetCredentialHash(_ context.Context, userID string) (string, error) {
	hash, ok := p.creds[userID]
	if !ok {
		return "", somaguard.ErrUserNotFound
	}
	return hash, nil
}

func (p *envUserProvider) UpdateCredentialHash(_ context.Context, userID, newHash string) error {
	p.creds[userID] = newHash
	return nil
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var cfg daemonConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("parse environment", zap.Error(err))
	}

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			logger.Fatal("start embedded redis", zap.Error(err))
		}
		defer mr.Close()
		redisAddr = mr.Addr()
		logger.Warn("no redis configured, using embedded store", zap.String("addr", redisAddr))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = client.Close() }()

	engineCfg := somaguard.DefaultConfig()
	engineCfg.OTP.TTL = cfg.OTPTTL
	engineCfg.Webhook.Secret = cfg.WebhookSecret
	engineCfg.Webhook.CallbackURL = cfg.CallbackURL
	engineCfg.Audit.Enabled = cfg.AuditLog
	if cfg.StepUpKey != "" {
		engineCfg.StepUp.Enabled = true
		engineCfg.StepUp.SigningKey = []byte(cfg.StepUpKey)
	}

	txStore := ledger.NewRedisStore(client, "sgo")
	users := &envUserProvider{creds: map[string]string{}}

	builder := somaguard.New().
		WithConfig(engineCfg).
		WithRedis(client).
		WithUserProvider(users).
		WithTransactionProvider(txStore).
		WithTransport(logTransport{logger: logger})

	if cfg.AuditLog {
		builder = builder.WithAuditSink(somaguard.NewJSONWriterSink(os.Stdout))
	}

	engine, err := builder.Build()
	if err != nil {
		logger.Fatal("build engine", zap.Error(err))
	}
	defer engine.Close()

	if cfg.SeedDemoData {
		seedDemo(logger, txStore)
	}

	exporter := prometheus.NewPrometheusExporter(engine)
	server := httpapi.NewServer(engine, logger, httpapi.WithMetricsHandler(exporter.Handler()))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

// seedDemo creates one pending transaction so a signed webhook can be
// exercised end to end against a fresh store.
func seedDemo(logger *zap.Logger, store *ledger.RedisStore) {
	ref := ledger.NewCustomerReference()
	now := time.Now().Unix()

	err := store.Put(context.Background(), ledger.Record{
		CustomerReference: ref,
		Status:            ledger.StatusPending,
		AmountCents:       250_000,
		Currency:          "UGX",
		MSISDN:            "+256700000001",
		Kind:              "deposit",
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		logger.Error("seed demo transaction", zap.Error(err))
		return
	}
	logger.Info("seeded demo transaction", zap.String("customer_reference", ref))
}
