package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, 7*24*time.Hour)

	claims := UserClaims{UserID: "user-1", Email: "trader@example.com"}
	token, err := manager.GenerateAccessToken(claims)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	parsed, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if parsed.UserID != "user-1" || parsed.Email != "trader@example.com" {
		t.Errorf("claims round-trip mismatch: %+v", parsed)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key", -time.Minute, time.Hour)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", 15*time.Minute, time.Hour)
	other := NewJWTManager("secret-b", 15*time.Minute, time.Hour)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Error("token signed with a different secret must fail validation")
	}
}

func TestGenerateTokenPair(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, 7*24*time.Hour)

	pair, err := manager.GenerateTokenPair(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("both tokens must be set")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("unexpected token type: %s", pair.TokenType)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("unexpected expiry: %d", pair.ExpiresIn)
	}

	// refresh tokens are random, never repeated
	second, err := manager.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}
	if second == pair.RefreshToken {
		t.Error("refresh tokens must be unique")
	}
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, time.Hour)

	token, err := manager.GenerateVerificationToken("user-1", PurposePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("GenerateVerificationToken failed: %v", err)
	}

	userID, err := manager.ValidateVerificationToken(token, PurposePasswordReset)
	if err != nil {
		t.Fatalf("ValidateVerificationToken failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("user id = %q, want user-1", userID)
	}
}

func TestVerificationTokenPurposeMismatch(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, time.Hour)

	token, err := manager.GenerateVerificationToken("user-1", "email_verification", time.Hour)
	if err != nil {
		t.Fatalf("GenerateVerificationToken failed: %v", err)
	}

	if _, err := manager.ValidateVerificationToken(token, PurposePasswordReset); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken for a mismatched purpose", err)
	}
}

func TestVerificationTokenExpired(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, time.Hour)

	token, err := manager.GenerateVerificationToken("user-1", PurposePasswordReset, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateVerificationToken failed: %v", err)
	}

	if _, err := manager.ValidateVerificationToken(token, PurposePasswordReset); err == nil {
		t.Error("expected error for an expired verification token")
	}
}

func TestVerificationTokenNotAccessToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 15*time.Minute, time.Hour)

	access, err := manager.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	// access tokens carry no purpose claim and must not open the reset flow
	if _, err := manager.ValidateVerificationToken(access, PurposePasswordReset); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken for an access token", err)
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	pm := NewPasswordManager(4, 8) // low cost for test speed

	hash, err := pm.HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !pm.VerifyPassword("Str0ng!pass", hash) {
		t.Error("correct password should verify")
	}
	if pm.VerifyPassword("wrong-pass", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	pm := NewPasswordManager(4, 8)

	if err := pm.ValidatePasswordStrength("Str0ng!pass"); err != nil {
		t.Errorf("strong password rejected: %v", err)
	}
	if err := pm.ValidatePasswordStrength("short"); err == nil {
		t.Error("short password should be rejected")
	}
	if err := pm.ValidatePasswordStrength("alllowercase"); err == nil {
		t.Error("single-class password should be rejected")
	}
}

func TestHashRefreshTokenDeterministic(t *testing.T) {
	if HashRefreshToken("abc") != HashRefreshToken("abc") {
		t.Error("hash must be deterministic")
	}
	if HashRefreshToken("abc") == HashRefreshToken("abd") {
		t.Error("different tokens must hash differently")
	}
}
