package somaguard

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stepUpPurpose = "otp"

type stepUpClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// stepUpIssuer mints and checks short-lived proof tokens that attest a user
// completed OTP verification. Downstream handlers gate sensitive actions on
// a valid proof instead of re-running the challenge.
type stepUpIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func newStepUpIssuer(cfg StepUpConfig, now func() time.Time) *stepUpIssuer {
	return &stepUpIssuer{
		signingKey: cloneBytes(cfg.SigningKey),
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		now:        now,
	}
}

func (i *stepUpIssuer) Mint(userID string) (string, error) {
	now := i.now()

	claims := stepUpClaims{
		Purpose: stepUpPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign step-up proof: %w", err)
	}
	return signed, nil
}

// Check validates signature, expiry, issuer, purpose, and subject binding.
// Any failure collapses to ErrStepUpInvalid so callers cannot distinguish
// forged tokens from expired ones.
func (i *stepUpIssuer) Check(proof, userID string) error {
	var claims stepUpClaims

	token, err := jwt.ParseWithClaims(proof, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.signingKey, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return ErrStepUpInvalid
	}

	if claims.Purpose != stepUpPurpose {
		return ErrStepUpInvalid
	}
	if claims.Subject == "" || claims.Subject != userID {
		return ErrStepUpInvalid
	}

	return nil
}
