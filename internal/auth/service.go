package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/logging"
)

// Service implements registration, login, and session management on top of
// the user repository.
type Service struct {
	repo            *database.Repository
	config          Config
	jwtManager      *JWTManager
	passwordManager *PasswordManager
	logger          *logging.Logger
}

// NewService creates a new authentication service
func NewService(repo *database.Repository, config Config) *Service {
	return &Service{
		repo:            repo,
		config:          config,
		jwtManager:      NewJWTManager(config.JWTSecret, config.AccessTokenDuration, config.RefreshTokenDuration),
		passwordManager: NewPasswordManager(config.BcryptCost, config.MinPasswordLength),
		logger:          logging.Default().WithComponent("auth"),
	}
}

// GetJWTManager returns the JWT manager for middleware wiring
func (s *Service) GetJWTManager() *JWTManager {
	return s.jwtManager
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*database.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	if err := s.passwordManager.ValidatePasswordStrength(req.Password); err != nil {
		return nil, AuthError{Code: ErrWeakPassword.Code, Message: err.Error()}
	}

	hash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login verifies credentials and issues a token pair backed by a session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !s.passwordManager.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	claims := UserClaims{UserID: user.ID, Email: user.Email}
	tokenPair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	session := &database.Session{
		UserID:           user.ID,
		RefreshTokenHash: HashRefreshToken(tokenPair.RefreshToken),
		ExpiresAt:        time.Now().Add(s.jwtManager.GetRefreshTokenDuration()),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		// session creation failure does not block login, refresh just won't work
		s.logger.WithField("user_id", user.ID).WithError(err).Warn("session creation failed")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Warn("failed to update last login")
	}

	return &LoginResponse{
		User:         toUserResponse(user),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// RefreshTokens rotates the refresh token and issues a new access token
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	tokenHash := HashRefreshToken(refreshToken)

	session, err := s.repo.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		// lookup already excludes revoked and expired sessions
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(UserClaims{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	// rotate: revoke the old session and write the new one
	if err := s.repo.RevokeSession(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}
	newSession := &database.Session{
		UserID:           user.ID,
		RefreshTokenHash: HashRefreshToken(tokenPair.RefreshToken),
		ExpiresAt:        time.Now().Add(s.jwtManager.GetRefreshTokenDuration()),
	}
	if err := s.repo.CreateSession(ctx, newSession); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &RefreshResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// Logout revokes the session behind a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.repo.GetSessionByTokenHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil // already gone
	}
	return s.repo.RevokeSession(ctx, session.ID)
}

// LogoutAll revokes every session for a user
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.repo.RevokeUserSessions(ctx, userID)
}

// ChangePassword updates the password after verifying the current one and
// revokes all other sessions.
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.passwordManager.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := s.passwordManager.ValidatePasswordStrength(req.NewPassword); err != nil {
		return AuthError{Code: ErrWeakPassword.Code, Message: err.Error()}
	}

	hash, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.repo.RevokeUserSessions(ctx, userID); err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("failed to revoke sessions after password change")
	}
	return nil
}

// GeneratePasswordResetToken issues a reset token for the account behind an
// email address. An unknown email yields an empty token and no error, so
// callers cannot probe which addresses exist.
func (s *Service) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil
	}

	token, err := s.jwtManager.GenerateVerificationToken(user.ID, PurposePasswordReset, s.config.PasswordResetDuration)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return token, nil
}

// ResetPassword replaces a user's password using a valid reset token and
// revokes every open session
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	userID, err := s.jwtManager.ValidateVerificationToken(req.Token, PurposePasswordReset)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.passwordManager.ValidatePasswordStrength(req.NewPassword); err != nil {
		return AuthError{Code: ErrWeakPassword.Code, Message: err.Error()}
	}

	hash, err := s.passwordManager.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.repo.RevokeUserSessions(ctx, userID); err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("failed to revoke sessions after password reset")
	}
	return nil
}

// GetUserByID fetches a user for profile display
func (s *Service) GetUserByID(ctx context.Context, userID string) (*database.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	return s.repo.CleanupExpiredSessions(ctx, time.Now())
}

func toUserResponse(user *database.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
