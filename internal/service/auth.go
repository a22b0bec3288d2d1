package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/port"

	"go.uber.org/zap"
)

// AuthService signs in against the merge service and keeps the session.
type AuthService struct {
	auth    port.Authenticator
	session port.Session
	logger  *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(auth port.Authenticator, session port.Session, logger *zap.Logger) *AuthService {
	return &AuthService{auth: auth, session: session, logger: logger}
}

// Login exchanges credentials for a token and stores it.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.SessionStatus, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, &domain.ErrValidation{Field: "username", Message: "required"}
	}
	if req.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "required"}
	}

	token, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.session.SetToken(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Info("signed in", zap.String("username", req.Username))
	return s.session.Status(ctx)
}

// Logout drops the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("signed out")
	return nil
}

// Status reports the session.
func (s *AuthService) Status(ctx context.Context) (*domain.SessionStatus, error) {
	return s.session.Status(ctx)
}
