package services

import (
	"testing"
	"time"

	"taskboard/backend/internal/config"

	"github.com/gofrs/uuid"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  "test-secret",
		TokenTTL:   30 * 24 * time.Hour,
		BCryptCost: 4,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := NewCredentialService(testAuthConfig())

	hashed, err := svc.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hashed == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !svc.VerifyPassword(hashed, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if svc.VerifyPassword(hashed, "wrong password") {
		t.Error("expected mismatched password to fail verification")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	svc := NewCredentialService(testAuthConfig())

	first, err := svc.HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := svc.HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same input should differ")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc := NewCredentialService(testAuthConfig())
	userID := uuid.Must(uuid.NewV4())

	token, err := svc.IssueToken(userID, "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	gotID, gotRole, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if gotID != userID {
		t.Errorf("expected user id %s, got %s", userID, gotID)
	}
	if gotRole != "user" {
		t.Errorf("expected role user, got %s", gotRole)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenTTL = -time.Hour
	svc := NewCredentialService(cfg)

	token, err := svc.IssueToken(uuid.Must(uuid.NewV4()), "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, _, err := svc.VerifyToken(token); err == nil {
		t.Error("expected expired token to fail verification")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	issuer := NewCredentialService(testAuthConfig())

	other := testAuthConfig()
	other.JWTSecret = "a-different-secret"
	verifier := NewCredentialService(other)

	token, err := issuer.IssueToken(uuid.Must(uuid.NewV4()), "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, _, err := verifier.VerifyToken(token); err == nil {
		t.Error("expected token signed with another secret to fail verification")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := NewCredentialService(testAuthConfig())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, _, err := svc.VerifyToken(token); err == nil {
			t.Errorf("expected %q to fail verification", token)
		}
	}
}
