package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/westservices/ticketd/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("staff-7", domain.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("token already expired at issue: %v", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != "staff-7" || claims.Role != domain.RoleStaff {
		t.Errorf("claims = %+v, want subject staff-7 role STAFF", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("admin", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Error("ParseToken accepted a token signed with another secret")
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	token, _, err := tm.GenerateToken("staff-7", domain.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + ".eyJzdWIiOiJhZG1pbiJ9." + parts[2]
	if _, err := tm.ParseToken(tampered); err == nil {
		t.Error("ParseToken accepted a tampered payload")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hashed, "hunter2"); err != nil {
		t.Errorf("ComparePassword rejected the original password: %v", err)
	}
	if err := ComparePassword(hashed, "hunter3"); err == nil {
		t.Error("ComparePassword accepted the wrong password")
	}
}
