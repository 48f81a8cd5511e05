package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	encoded, err := hasher.Hash("correct horse 1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash prefix: %s", encoded)
	}

	ok, err := hasher.Verify("correct horse 1", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong horse 1", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	first, err := hasher.Hash("same input 99")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := hasher.Hash("same input 99")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct hashes for repeated input")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	cases := []string{
		"",
		"plain-text",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := hasher.Verify("anything1", encoded); err == nil {
			t.Fatalf("expected parse error for %q", encoded)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	base := testConfig()
	hasher, err := NewArgon2(base)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	encoded, err := hasher.Hash("upgrade me 1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	upgrade, err := hasher.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if upgrade {
		t.Fatal("fresh hash should not need upgrade")
	}

	stronger := base
	stronger.Memory = base.Memory * 2
	strongerHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	upgrade, err = strongerHasher.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if !upgrade {
		t.Fatal("hash under weaker parameters should need upgrade")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := testConfig()
	weak.Memory = 1024

	if _, err := NewArgon2(weak); err == nil {
		t.Fatal("expected config validation error")
	}
}
