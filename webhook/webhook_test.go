package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

const testSecret = "test-webhook-secret"

func gatewayEnvelope() Envelope {
	return Envelope{
		URL:       "https://x/webhook",
		Timestamp: "1234567890",
		Params: map[string]string{
			"status":             "success",
			"customer_reference": "TEST_REF_123",
			"internal_reference": "RELWORX_REF_456",
		},
	}
}

// Signs the way an unmodified gateway does, independent of Canonicalize, so
// the wire format is pinned byte for byte.
func gatewaySign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCanonicalizeSortsParamsByKey(t *testing.T) {
	env := gatewayEnvelope()

	got := Canonicalize(env.URL, env.Timestamp, env.Params)
	want := "https://x/webhook" + "1234567890" +
		"customer_referenceTEST_REF_123" +
		"internal_referenceRELWORX_REF_456" +
		"statussuccess"

	if got != want {
		t.Fatalf("canonical string mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestAuthenticateAcceptsGatewaySignature(t *testing.T) {
	auth, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	env := gatewayEnvelope()
	env.Signature = gatewaySign(testSecret,
		env.URL+env.Timestamp+
			"customer_referenceTEST_REF_123"+
			"internal_referenceRELWORX_REF_456"+
			"statussuccess")

	params, err := auth.Authenticate(env)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if params["customer_reference"] != "TEST_REF_123" {
		t.Fatalf("unexpected verified params: %v", params)
	}
}

func TestAuthenticateRejectsMutatedSignature(t *testing.T) {
	auth, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	env := gatewayEnvelope()
	env.Signature = Sign([]byte(testSecret), env.URL, env.Timestamp, env.Params)

	for i := 0; i < len(env.Signature); i++ {
		mutated := []byte(env.Signature)
		if mutated[i] == 'f' {
			mutated[i] = '0'
		} else {
			mutated[i] = 'f'
		}

		bad := env
		bad.Signature = string(mutated)
		if _, err := auth.Authenticate(bad); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("position %d: expected ErrInvalidSignature, got %v", i, err)
		}
	}
}

func TestAuthenticateRejectsTamperedParams(t *testing.T) {
	auth, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	env := gatewayEnvelope()
	env.Signature = Sign([]byte(testSecret), env.URL, env.Timestamp, env.Params)

	env.Params["status"] = "failed"
	if _, err := auth.Authenticate(env); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature after tamper, got %v", err)
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator(""); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestAuthenticateCopiesVerifiedParams(t *testing.T) {
	auth, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	env := gatewayEnvelope()
	env.Signature = Sign([]byte(testSecret), env.URL, env.Timestamp, env.Params)

	params, err := auth.Authenticate(env)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	env.Params["status"] = "reversed"
	if params["status"] != "success" {
		t.Fatal("verified params must not alias the envelope")
	}
}
