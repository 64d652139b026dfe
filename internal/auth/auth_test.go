package auth

import (
	"errors"
	"testing"
	"time"

	"ypg-admin-api/internal/apperrors"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", "ypg-admin-api", time.Hour)

	token, expiresAt, err := m.Issue("admin", RoleSupervisor)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("Expected expiry in the future, got %v", expiresAt)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleSupervisor {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewTokenManager("secret", "ypg-admin-api", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, _, err := m.Issue("admin", RoleSupervisor)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, apperrors.ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	m := NewTokenManager("secret", "ypg-admin-api", time.Hour)
	other := NewTokenManager("other-secret", "ypg-admin-api", time.Hour)
	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)

	forged, _, _ := other.Issue("admin", RoleSupervisor)
	foreign, _, _ := wrongIssuer.Issue("admin", RoleSupervisor)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": forged,
		"wrong issuer": foreign,
		"empty":        "",
	} {
		if _, err := m.Verify(token); !errors.Is(err, apperrors.ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("Expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("Expected wrong password to fail")
	}
}
