package service

import (
	"time"

	"github.com/westservices/ticketd/internal/auth"
	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/domain"
	apperrors "github.com/westservices/ticketd/pkg/util"
)

// AuthService authenticates ops-API callers against the configured admin
// credential and mints scoped tokens.
type AuthService struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		cfg:    cfg,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies the admin credential and issues an ADMIN token.
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	if s.cfg.AdminPasswordHash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("admin login not configured")
	}
	if username != s.cfg.AdminUser {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(s.cfg.AdminPasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(username, domain.RoleAdmin)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}

// IssueStaffToken mints a STAFF-scoped token for the given subject. Admin only;
// the role check happens at the route.
func (s *AuthService) IssueStaffToken(subjectID string) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, apperrors.NewValidationError("subject_id required", nil)
	}
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, domain.RoleStaff)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}
