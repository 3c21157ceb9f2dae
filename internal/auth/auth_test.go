package auth

import (
	"testing"
	"time"

	"meritboard/internal/config"
)

func newTestService() *Service {
	return NewService(&config.JWTConfig{
		Secret:            "test-secret-key-for-unit-tests",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestService()

	hash, err := svc.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := svc.VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrong"); err == nil {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken(42, "alice", "teacher")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Account != "alice" {
		t.Errorf("Account = %q, want alice", claims.Account)
	}
	if claims.Role != "teacher" {
		t.Errorf("Role = %q, want teacher", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService()
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewService(&config.JWTConfig{
		Secret:     "a-different-secret",
		Expiration: time.Hour,
	})

	token, err := other.GenerateToken(1, "bob", "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	expired := NewService(&config.JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Expiration: -time.Minute,
	})

	token, err := expired.GenerateToken(1, "bob", "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := expired.ValidateToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
