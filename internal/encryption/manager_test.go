package encryption

import (
	"context"
	"testing"

	"account-service/internal/config"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	m := NewManager(&config.Config{}, nil)

	field, err := m.EncryptField(context.Background(), "jane@test.com")
	if err != nil {
		t.Fatalf("EncryptField() error = %v", err)
	}
	if string(field.Ciphertext) == "jane@test.com" {
		t.Error("ciphertext must not equal plaintext")
	}
	if field.KeyID != "local" {
		t.Errorf("KeyID = %s, want local without KMS", field.KeyID)
	}

	got, err := m.DecryptField(context.Background(), field)
	if err != nil {
		t.Fatalf("DecryptField() error = %v", err)
	}
	if got != "jane@test.com" {
		t.Errorf("DecryptField() = %q, want original plaintext", got)
	}
}

func TestDecryptSurvivesKeyCacheLoss(t *testing.T) {
	writer := NewManager(&config.Config{}, nil)

	field, err := writer.EncryptField(context.Background(), "jane@test.com")
	if err != nil {
		t.Fatalf("EncryptField() error = %v", err)
	}

	// A fresh manager has no cached data key and must unwrap the DEK.
	reader := NewManager(&config.Config{}, nil)
	got, err := reader.DecryptField(context.Background(), field)
	if err != nil {
		t.Fatalf("DecryptField() error = %v", err)
	}
	if got != "jane@test.com" {
		t.Errorf("DecryptField() = %q, want original plaintext", got)
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	m := NewManager(&config.Config{}, nil)

	field, err := m.EncryptField(context.Background(), "jane@test.com")
	if err != nil {
		t.Fatalf("EncryptField() error = %v", err)
	}
	field.Ciphertext[len(field.Ciphertext)-1] ^= 0xFF

	if _, err := m.DecryptField(context.Background(), field); err == nil {
		t.Error("expected an error for tampered ciphertext")
	}
}
