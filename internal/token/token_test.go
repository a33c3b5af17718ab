package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	signed, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	userID, err := m.Validate(signed)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("subject = %s, want user-123", userID)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	signed, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := m.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a", time.Hour).Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}
