package hashing

import (
	"strings"
	"testing"

	"account-service/internal/config"
)

func testHasher() *Hasher {
	return NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  8 * 1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
		},
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	h := testHasher()

	encoded, err := h.HashPassword("hello123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Errorf("encoded hash = %q, want argon2id format", encoded)
	}

	match, err := h.VerifyPassword("hello123", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !match {
		t.Error("correct password did not verify")
	}

	match, err = h.VerifyPassword("wrong", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if match {
		t.Error("wrong password verified")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h := testHasher()

	first, _ := h.HashPassword("hello123")
	second, _ := h.HashPassword("hello123")
	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	h := testHasher()

	if _, err := h.VerifyPassword("hello123", "not-a-hash"); err == nil {
		t.Error("expected an error for a malformed hash")
	}
}
