package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolhub/internal/auth"
	"schoolhub/internal/cache"
	"schoolhub/internal/crypto"
	"schoolhub/internal/model"
	"schoolhub/internal/repository"
)

// Auth handles registration, the token lifecycle and revocation. The cache
// doubles as the blacklist; when it is unavailable revocation checks degrade
// open so valid tokens keep working.
type Auth struct {
	users  repository.Users
	tokens *auth.Tokens
	cache  *cache.Cache
	logger *zap.Logger
}

func NewAuth(users repository.Users, tokens *auth.Tokens, c *cache.Cache, logger *zap.Logger) *Auth {
	return &Auth{users: users, tokens: tokens, cache: c, logger: logger}
}

type RegisterInput struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=8,password"`
	Role     string  `json:"role" validate:"required,oneof=superadmin schooladmin"`
	SchoolID *string `json:"schoolId" validate:"required_if=Role schooladmin,omitempty,uuid"`
}

func (s *Auth) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		SchoolID:     in.SchoolID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, badRequest("username already taken")
		}
		return nil, err
	}
	return user, nil
}

type LoginResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

// Login is deliberately uniform about failure: unknown user and wrong
// password produce the same response.
func (s *Auth) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("Invalid credentials")
		}
		return nil, err
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, unauthorized("Invalid credentials")
	}

	schoolID := ""
	if user.SchoolID != nil {
		schoolID = *user.SchoolID
	}
	accessToken, _, err := s.tokens.NewAccessToken(user.ID, user.Role, schoolID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.NewRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, err
	}
	user.RefreshToken = &refreshToken
	return &LoginResult{Token: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must match the user's stored one, so only the latest login session
// can refresh.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return "", unauthorized("Invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", unauthorized("Invalid refresh token")
		}
		return "", err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", unauthorized("Invalid refresh token")
	}

	schoolID := ""
	if user.SchoolID != nil {
		schoolID = *user.SchoolID
	}
	accessToken, _, err := s.tokens.NewAccessToken(user.ID, user.Role, schoolID)
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// Logout blacklists the presented access token for its remaining lifetime and
// clears the stored refresh token.
func (s *Auth) Logout(ctx context.Context, token string, claims *auth.Claims) error {
	if claims.ExpiresAt != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			s.cache.SetJSON(ctx, cache.BlacklistKey(token), true, ttl)
		}
	}
	if err := s.users.UpdateRefreshToken(ctx, claims.UserID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// IsRevoked reports whether the token was blacklisted. A cache failure reads
// as not revoked.
func (s *Auth) IsRevoked(ctx context.Context, token string) bool {
	var revoked bool
	return s.cache.GetJSON(ctx, cache.BlacklistKey(token), &revoked) && revoked
}

// BootstrapSuperAdmin creates the initial superadmin account when none
// exists, so the superadmin-only register endpoint is reachable on a fresh
// database.
func (s *Auth) BootstrapSuperAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	user, err := s.Register(ctx, RegisterInput{
		Username: username,
		Password: password,
		Role:     model.RoleSuperAdmin,
	})
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap superadmin created", zap.String("userId", user.ID), zap.String("username", username))
	return nil
}
