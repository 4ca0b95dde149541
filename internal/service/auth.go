package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/auth"
	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

// Auth errors.
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	maxNameLength  = 200
	maxEmailLength = 254
)

// AuthConfig tunes token lifetimes and login lockout.
type AuthConfig struct {
	RefreshTokenTTL time.Duration
	MaxAttempts     int
	LockoutWindow   time.Duration
}

// AuthService handles registration, login and token rotation.
type AuthService struct {
	store    AuthStore
	jwt      *auth.JWTManager
	denylist TokenDenylist
	cfg      AuthConfig
	clock    Clock
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store AuthStore, jwt *auth.JWTManager, denylist TokenDenylist, cfg AuthConfig, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:    store,
		jwt:      jwt,
		denylist: denylist,
		cfg:      cfg,
		clock:    clock,
		metrics:  recorder,
		logger:   logger,
	}
}

// ClientInfo identifies the caller for token and attempt records.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	BusinessName string
	Phone        string
	Client       ClientInfo
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

// AuthResult is an issued access/refresh token pair.
type AuthResult struct {
	User                 *model.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	ExpiresIn            time.Duration
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, validationErrorf("%s", err.Error())
	}

	fullName := strings.TrimSpace(input.FullName)
	if len(fullName) > maxNameLength {
		return nil, validationErrorf("full_name must be at most %d characters", maxNameLength)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           generateULID(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		BusinessName: strings.TrimSpace(input.BusinessName),
		Phone:        strings.TrimSpace(input.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError("create user", err)
	}

	s.metrics.IncRegistration()
	s.logger.Info("user_registered", "user_id", user.ID)

	return s.issueTokens(ctx, user, input.Client)
}

// Login verifies credentials, enforcing the failed-attempt lockout.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	failures, err := s.store.CountRecentFailedLogins(ctx, email, now.Add(-s.cfg.LockoutWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}
	if s.cfg.MaxAttempts > 0 && failures >= s.cfg.MaxAttempts {
		s.metrics.IncLogin(metrics.LoginLocked)
		s.logger.Warn("login_locked", "ip", input.Client.IPAddress, "failures", failures)
		return nil, ErrTooManyAttempts
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok := false
	if user == nil {
		auth.VerifyDummy(input.Password)
	} else {
		ok, err = auth.VerifyPassword(input.Password, user.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("failed to verify password: %w", err)
		}
		ok = ok && user.IsActive
	}

	s.recordAttempt(ctx, email, input.Client.IPAddress, ok, now)

	if !ok {
		s.metrics.IncLogin(metrics.LoginInvalid)
		return nil, ErrInvalidCredentials
	}

	if err := s.store.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		return nil, storeError("update last login", err)
	}
	user.LastLoginAt = &now

	s.metrics.IncLogin(metrics.LoginSuccess)
	s.logger.Info("user_logged_in", "user_id", user.ID)

	return s.issueTokens(ctx, user, input.Client)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair issued. A token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResult, error) {
	hash, err := auth.ParseRefreshToken(refreshToken)
	if err != nil {
		s.metrics.IncTokenRefresh(false)
		return nil, ErrInvalidToken
	}

	stored, err := s.store.ConsumeRefreshToken(ctx, hash, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			s.metrics.IncTokenRefresh(false)
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	user, err := s.store.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		s.metrics.IncTokenRefresh(false)
		return nil, ErrInvalidToken
	}

	s.metrics.IncTokenRefresh(true)
	return s.issueTokens(ctx, user, client)
}

// Logout revokes the presented refresh token (if any) and denylists the
// access token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, ac *model.AuthContext, refreshToken string) error {
	now := s.clock.Now()

	if refreshToken != "" {
		if hash, err := auth.ParseRefreshToken(refreshToken); err == nil {
			if _, err := s.store.ConsumeRefreshToken(ctx, hash, now); err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return fmt.Errorf("failed to revoke refresh token: %w", err)
			}
		}
	}

	if ac != nil && ac.TokenID != "" && s.denylist != nil {
		if err := s.denylist.DenyToken(ctx, ac.TokenID, ac.ExpiresAt.Sub(now)); err != nil {
			return fmt.Errorf("failed to revoke access token: %w", err)
		}
	}

	if ac != nil {
		s.logger.Info("user_logged_out", "user_id", ac.UserID)
	}
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, ac *model.AuthContext) error {
	if _, err := s.store.RevokeUserRefreshTokens(ctx, ac.UserID, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return s.Logout(ctx, ac, "")
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError("get user", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User, client ClientInfo) (*AuthResult, error) {
	access, err := s.jwt.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.store.CreateRefreshToken(ctx, &model.RefreshToken{
		ID:        generateULID(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		UserAgent: truncate(client.UserAgent, 512),
		IPAddress: client.IPAddress,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResult{
		User:                 user,
		AccessToken:          access.Token,
		AccessTokenExpiresAt: access.ExpiresAt,
		RefreshToken:         refresh.Plaintext,
		ExpiresIn:            s.jwt.TTL(),
	}, nil
}

// recordAttempt stores a login outcome. Failure to record is logged, not
// surfaced: the login itself has already been decided.
func (s *AuthService) recordAttempt(ctx context.Context, email, ip string, succeeded bool, at time.Time) {
	err := s.store.RecordLoginAttempt(ctx, &model.LoginAttempt{
		ID:          generateULID(),
		Email:       email,
		IPAddress:   ip,
		Succeeded:   succeeded,
		AttemptedAt: at,
	})
	if err != nil {
		s.logger.Error("login_attempt_record_failed", "error", err)
	}
}

func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", validationErrorf("email is required")
	}
	if len(s) > maxEmailLength {
		return "", validationErrorf("email must be at most %d characters", maxEmailLength)
	}
	return optionalEmail("email", s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
