package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	somaguard "github.com/somasave/somaguard"
)

// Server wires the verification engine to the HTTP routes the member apps
// and the payment gateway call.
type Server struct {
	engine  *somaguard.Engine
	logger  *zap.Logger
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts a metrics endpoint, typically the Prometheus
// exporter's Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer describes the newserver operation and its observable behavior.
//
// NewServer may return an error when input validation, dependency calls, or security checks fail.
// NewServer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewServer(engine *somaguard.Engine, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes mounted. Route names follow
// the member portal's existing URL scheme, trailing slashes included.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.POST("/api/payments/relworx-webhook/", s.handleGatewayWebhook)
	router.POST("/api/auth/send-login-otp/", s.handleSendLoginOTP)
	router.POST("/api/auth/verify-2fa/", s.handleVerify2FA)
	router.POST("/api/auth/change-password/", s.handleChangePassword)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

type webhookRequest struct {
	Timestamp string            `json:"timestamp" binding:"required"`
	Signature string            `json:"signature" binding:"required"`
	Params    map[string]string `json:"params" binding:"required"`
}

func (s *Server) handleGatewayWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook body"})
		return
	}

	ctx := somaguard.WithClientIP(c.Request.Context(), c.ClientIP())
	result, err := s.engine.HandleWebhook(ctx, callbackURL(c.Request), req.Timestamp, req.Signature, req.Params)
	if err != nil {
		s.logger.Warn("webhook refused",
			zap.String("customer_reference", req.Params["customer_reference"]),
			zap.Int("status", result.HTTPStatus),
			zap.Error(err),
		)
		c.JSON(result.HTTPStatus, gin.H{"error": publicWebhookError(err)})
		return
	}

	c.JSON(result.HTTPStatus, gin.H{
		"outcome":            result.Outcome.String(),
		"customer_reference": result.CustomerReference,
		"internal_reference": result.InternalReference,
		"status":             string(result.NewStatus),
	})
}

// callbackURL rebuilds the URL the gateway signed against. Behind a proxy
// the scheme comes from X-Forwarded-Proto; the gateway always signs the
// externally visible https URL.
func callbackURL(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func publicWebhookError(err error) string {
	switch {
	case errors.Is(err, somaguard.ErrInvalidSignature):
		return "invalid signature"
	case errors.Is(err, somaguard.ErrUnknownReference):
		return "unknown customer reference"
	case errors.Is(err, somaguard.ErrInvalidStatus):
		return "unrecognized transaction status"
	default:
		return "internal error"
	}
}

type sendOTPRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *Server) handleSendLoginOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	ctx := somaguard.WithClientIP(c.Request.Context(), c.ClientIP())
	issue, err := s.engine.RequestOTP(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, somaguard.ErrOTPDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"error": "2fa is disabled"})
			return
		}
		s.logger.Error("otp request failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue code"})
		return
	}

	// The code itself goes out over the member's registered channel, never
	// in this response.
	c.JSON(http.StatusOK, gin.H{
		"sent":       true,
		"expires_at": issue.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type verify2FARequest struct {
	UserID string `json:"user_id" binding:"required"`
	OTP    string `json:"otp" binding:"required"`
}

func (s *Server) handleVerify2FA(c *gin.Context) {
	var req verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and otp required"})
		return
	}

	ctx := somaguard.WithClientIP(c.Request.Context(), c.ClientIP())

	proof, err := s.engine.VerifyOTPWithProof(ctx, req.UserID, req.OTP)
	if errors.Is(err, somaguard.ErrStepUpDisabled) {
		err = s.engine.VerifyOTP(ctx, req.UserID, req.OTP)
	}
	if err != nil {
		c.JSON(verifyHTTPStatus(err), gin.H{"error": publicVerifyError(err)})
		return
	}

	resp := gin.H{"verified": true}
	if proof != "" {
		resp["step_up_token"] = proof
	}
	c.JSON(http.StatusOK, resp)
}

func verifyHTTPStatus(err error) int {
	switch {
	case errors.Is(err, somaguard.ErrChallengeExpired):
		return http.StatusGone
	case errors.Is(err, somaguard.ErrChallengeNotFound),
		errors.Is(err, somaguard.ErrChallengeUsed),
		errors.Is(err, somaguard.ErrCodeMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, somaguard.ErrOTPDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func publicVerifyError(err error) string {
	switch {
	case errors.Is(err, somaguard.ErrChallengeExpired):
		return "code expired"
	case errors.Is(err, somaguard.ErrChallengeUsed):
		return "code already used"
	case errors.Is(err, somaguard.ErrChallengeNotFound),
		errors.Is(err, somaguard.ErrCodeMismatch):
		return "invalid code"
	case errors.Is(err, somaguard.ErrOTPDisabled):
		return "2fa is disabled"
	default:
		return "internal error"
	}
}

type changePasswordRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, current_password and new_password required"})
		return
	}

	ctx := somaguard.WithClientIP(c.Request.Context(), c.ClientIP())
	err := s.engine.ChangePassword(ctx, req.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, somaguard.ErrPasswordPolicy):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, somaguard.ErrPasswordReuse):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "new password must differ from the current one"})
		case errors.Is(err, somaguard.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		case errors.Is(err, somaguard.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		default:
			s.logger.Error("password change failed", zap.String("user_id", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": true})
}
