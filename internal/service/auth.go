package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/auth"
	"ypg-admin-api/internal/cache"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/models"
	"ypg-admin-api/internal/tracing"
	"ypg-admin-api/internal/validation"
)

// Failed logins per username before the account is locked for loginLockout.
const (
	maxLoginFailures = 5
	loginLockout     = 15 * time.Minute
)

func loginFailureKey(username string) string {
	return cache.Key("login_failures", strings.ToLower(username))
}

// Login checks a supervisor's password and issues a bearer token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest, clientIP string) (resp models.LoginResponse, err error) {
	ctx, span := tracing.Start(ctx, "service.Login")
	defer func() { tracing.End(span, err) }()

	if s.tokens == nil {
		return models.LoginResponse{}, errors.New("token manager not configured")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return models.LoginResponse{}, apperrors.ErrInvalidCredentials
	}

	key := loginFailureKey(username)
	failures, err := s.counters.Get(ctx, key)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.logger.Error("failed to read login failures", zap.String("username", username), zap.Error(err))
	}
	if failures >= maxLoginFailures {
		s.logger.Warn("login locked", zap.String("username", username), zap.String("client_ip", clientIP))
		return models.LoginResponse{}, apperrors.ErrRateLimited
	}

	sup, err := s.db.GetSupervisorByUsername(ctx, username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return models.LoginResponse{}, err
	}
	if err != nil || !auth.CheckPassword(sup.PasswordHash, req.Password) {
		if _, incrErr := s.counters.Incr(ctx, key, loginLockout); incrErr != nil {
			s.logger.Error("failed to count login failure", zap.String("username", username), zap.Error(incrErr))
		}
		s.logger.Info("login rejected", zap.String("username", username), zap.String("client_ip", clientIP))
		return models.LoginResponse{}, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(sup.Username, auth.RoleSupervisor)
	if err != nil {
		return models.LoginResponse{}, err
	}

	now := s.clock()
	if err := s.db.RecordSupervisorLogin(ctx, sup.ID, clientIP, now); err != nil {
		s.logger.Warn("failed to record login", zap.Int64("supervisor_id", sup.ID), zap.Error(err))
	} else {
		sup.LastLoginIP = clientIP
		sup.LastLoginAt = &now
	}

	s.logger.Info("supervisor logged in", zap.String("username", sup.Username), zap.String("client_ip", clientIP))
	return models.LoginResponse{
		Success:    true,
		Token:      token,
		ExpiresAt:  expiresAt,
		Supervisor: sup,
	}, nil
}

// SupervisorStatus returns the supervisor behind an authenticated request.
func (s *Service) SupervisorStatus(ctx context.Context, username string) (models.Supervisor, error) {
	sup, err := s.db.GetSupervisorByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		// The account was renamed or removed after the token was issued.
		return models.Supervisor{}, apperrors.ErrUnauthorized
	}
	return sup, err
}

// ChangeCredentials replaces a supervisor's username and/or password after
// checking the current password. Empty new values keep the old ones.
func (s *Service) ChangeCredentials(ctx context.Context, username string, req models.ChangeCredentialsRequest) (models.Supervisor, error) {
	sup, err := s.db.GetSupervisorByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return models.Supervisor{}, apperrors.ErrUnauthorized
	}
	if err != nil {
		return models.Supervisor{}, err
	}

	if !auth.CheckPassword(sup.PasswordHash, req.CurrentPassword) {
		return models.Supervisor{}, apperrors.ErrInvalidCredentials
	}

	newUsername := strings.TrimSpace(req.NewUsername)
	if newUsername == "" {
		newUsername = sup.Username
	}

	hash := sup.PasswordHash
	errs := validation.ValidateCredentials(newUsername, req.NewPassword)
	if req.NewPassword == "" {
		delete(errs, "password")
	}
	if !errs.Empty() {
		return models.Supervisor{}, errs
	}
	if req.NewPassword != "" {
		if hash, err = auth.HashPassword(req.NewPassword); err != nil {
			return models.Supervisor{}, err
		}
	}

	now := s.clock()
	if err := s.db.UpdateSupervisorCredentials(ctx, sup.ID, newUsername, hash, now); err != nil {
		return models.Supervisor{}, storeErr(err, "supervisor")
	}

	s.logger.Info("supervisor credentials changed",
		zap.Int64("supervisor_id", sup.ID),
		zap.String("old_username", sup.Username),
		zap.String("new_username", newUsername),
	)

	sup.Username = newUsername
	sup.PasswordHash = hash
	sup.UpdatedAt = now
	return sup, nil
}

// CreateSupervisor creates a supervisor or resets the password of an
// existing one.
func (s *Service) CreateSupervisor(ctx context.Context, username, password string) (models.Supervisor, error) {
	username = strings.TrimSpace(username)
	if errs := validation.ValidateCredentials(username, password); !errs.Empty() {
		return models.Supervisor{}, errs
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Supervisor{}, err
	}

	sup, err := s.db.UpsertSupervisor(ctx, username, hash, s.clock())
	if err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to save supervisor %s: %w", username, err)
	}

	s.logger.Info("supervisor saved", zap.Int64("supervisor_id", sup.ID), zap.String("username", sup.Username))
	return sup, nil
}
