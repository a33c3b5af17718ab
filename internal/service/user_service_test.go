package service

import (
	"context"
	"testing"

	"account-service/internal/encryption"
	"account-service/internal/models"
	"account-service/internal/util"
)

func newUserServiceFixture(actingUserID string) (*fixture, *UserService) {
	f := newFixture(actingUserID)
	encryptionMgr := encryption.NewManager(testConfig(), nil)
	users := NewUserService(f.repo, f.hasher, encryptionMgr, f.identity, nil, util.Get())
	return f, users
}

func TestRegister(t *testing.T) {
	f, users := newUserServiceFixture("")

	user, err := users.Register(context.Background(), RegisterRequest{
		Email:     "New@Test.com",
		Password:  "Str0ng!pass",
		FirstName: "New",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Role != models.RoleUser || !user.IsEnabled {
		t.Errorf("user = role %s enabled %v, want enabled User", user.Role, user.IsEnabled)
	}
	if user.Email != "new@test.com" {
		t.Errorf("email = %s, want normalized", user.Email)
	}
	if len(user.EmailEncrypted) == 0 || user.EmailDEK == "" {
		t.Error("email should be stored envelope-encrypted")
	}
	if user.HashedPassword == "Str0ng!pass" {
		t.Error("password must not be stored in plaintext")
	}

	stored, err := f.repo.FindUserByEmailHash(context.Background(), HashEmail("new@test.com"))
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("stored ID = %s, want %s", stored.ID, user.ID)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	_, users := newUserServiceFixture("")

	_, err := users.Register(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "Str0ng!pass",
	})
	assertDomainCode(t, err, CodeInvalidEmail)
}

func TestRegisterWeakPassword(t *testing.T) {
	_, users := newUserServiceFixture("")

	_, err := users.Register(context.Background(), RegisterRequest{
		Email:    "new@test.com",
		Password: "alllowercase",
	})
	assertDomainCode(t, err, CodeInvalidPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, users := newUserServiceFixture("")

	req := RegisterRequest{Email: "new@test.com", Password: "Str0ng!pass"}
	if _, err := users.Register(context.Background(), req); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := users.Register(context.Background(), req)
	assertDomainCode(t, err, CodeUserAlreadyExists)
}

func TestChangePassword(t *testing.T) {
	f, users := newUserServiceFixture("u1")

	hashed, _ := f.hasher.HashPassword("Old!pass123")
	f.repo.addUser(&models.User{ID: "u1", IsEnabled: true, HashedPassword: hashed, Role: models.RoleUser})

	t.Run("wrong current password", func(t *testing.T) {
		err := users.ChangePassword(context.Background(), ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "New!pass123",
		})
		assertDomainCode(t, err, CodeIncorrectPassword)
	})

	t.Run("new password equals old", func(t *testing.T) {
		err := users.ChangePassword(context.Background(), ChangePasswordRequest{
			CurrentPassword: "Old!pass123",
			NewPassword:     "Old!pass123",
		})
		assertDomainCode(t, err, CodeNewPasswordEqualsOldPassword)
	})

	t.Run("success rotates hash and invalidates cache", func(t *testing.T) {
		err := users.ChangePassword(context.Background(), ChangePasswordRequest{
			CurrentPassword: "Old!pass123",
			NewPassword:     "New!pass123",
		})
		if err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}

		stored, _ := f.repo.FindUserByID(context.Background(), "u1")
		match, _ := f.hasher.VerifyPassword("New!pass123", stored.HashedPassword)
		if !match {
			t.Error("new password does not verify against stored hash")
		}
		if f.cache.removeCalls == 0 {
			t.Error("cached identity should be invalidated")
		}
	})
}
