package password

import (
	"errors"
	"testing"
)

func TestPolicyValidate(t *testing.T) {
	policy := Policy{MinLength: 8, RequireLetter: true, RequireDigit: true}

	cases := []struct {
		name      string
		candidate string
		want      error
	}{
		{"accepts compliant password", "abcd1234", nil},
		{"accepts longer mixed password", "S3cure-enough", nil},
		{"rejects short password", "ab1", ErrTooShort},
		{"rejects digits only", "12345678", ErrMissingLetter},
		{"rejects letters only", "abcdefgh", ErrMissingDigit},
		{"length checked before composition", "1a", ErrTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.candidate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate(%q) = %v, want %v", tc.candidate, err, tc.want)
			}
		})
	}
}

func TestPolicyUnicodeLetters(t *testing.T) {
	policy := Policy{MinLength: 8, RequireLetter: true, RequireDigit: true}

	if err := policy.Validate("pässwört1"); err != nil {
		t.Fatalf("expected unicode letters to satisfy the letter rule, got %v", err)
	}
}
