package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blancapp/blanc-server/internal/auth"
	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/store"
)

// defaultRoleName is the registry role every self-registered user gets.
const defaultRoleName = "user"

// inviteCodeAttempts bounds the retry loop when generating a unique
// invite code.
const inviteCodeAttempts = 5

// AuthService handles registration, login and the refresh token
// lifecycle.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=1024"`
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // Access token lifetime in seconds
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	TokenPair
}

// Register creates a new user account with the default role and a fresh
// invite code. Fails if the role registry has not been seeded.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	// Registration depends on the seeded role registry.
	if _, err := s.store.GetRoleByName(ctx, defaultRoleName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Internal("role registry is not seeded; run the seed command first")
		}
		return nil, fmt.Errorf("lookup default role: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	inviteCode, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         domain.RoleUser,
		InviteCode:   inviteCode,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("username or email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered",
			"user_id", userID,
			"username", user.Username,
		)
	}

	return user, nil
}

// uniqueInviteCode generates an invite code not yet held by any user,
// retrying on collision.
func (s *AuthService) uniqueInviteCode(ctx context.Context) (string, error) {
	for range inviteCodeAttempts {
		code, err := id.InviteCode()
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}

		_, err = s.store.GetUserByInviteCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check invite code: %w", err)
		}
	}
	return "", domainerrors.Internal("could not generate a unique invite code")
}

// Login authenticates a user and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the username exists
			return nil, domainerrors.InvalidCredentials("invalid username or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	if !user.Active {
		return nil, domainerrors.Forbidden("account is deactivated")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return &AuthResponse{User: user, TokenPair: *pair}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshHash := auth.HashRefreshToken(refreshToken)

	tokenID, err := id.Generate("rt")
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	record := &domain.RefreshToken{
		ID:        tokenID,
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt: now,
	}
	if err := s.store.CreateRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// Refresh issues a new access token against a valid refresh token. The
// refresh token itself is returned unchanged; it stays valid until it
// expires or is revoked on logout.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	user, err := s.redeemRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResponse{
		User: user,
		TokenPair: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
		},
	}, nil
}

func (s *AuthService) redeemRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error) {
	record, err := s.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if !record.IsValid() {
		return nil, domainerrors.TokenExpired("refresh token expired or revoked")
	}

	user, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Active {
		return nil, domainerrors.Forbidden("account is deactivated")
	}

	return user, nil
}

// Logout revokes the refresh token, ending the session. Unknown tokens
// are a NotFound error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("refresh token not found")
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if err := s.store.RevokeRefreshToken(ctx, record.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged out", "user_id", record.UserID)
	}
	return nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domainerrors.TokenExpired("access token expired")
		}
		return nil, nil, domainerrors.Unauthorized("invalid access token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("unknown user")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.Active {
		return nil, nil, domainerrors.Forbidden("account is deactivated")
	}

	return user, claims, nil
}
