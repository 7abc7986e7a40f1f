package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/shared/utils"
)

// UserLookup is the read-side storage auth needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// LoginResult carries the signed token and the profile of the user it was issued to.
type LoginResult struct {
	Token string
	User  models.UserView
}

// AuthQueryService handles login and token refresh. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	users    UserLookup
	tokenTTL time.Duration
}

func NewAuthQueryService(users UserLookup, tokenTTL time.Duration) *AuthQueryService {
	return &AuthQueryService{users: users, tokenTTL: tokenTTL}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(cmd.Email))
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, errs.ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{
		Token: token,
		User: models.UserView{
			ID:            user.ID,
			Username:      user.Username,
			Email:         user.Email,
			MonthlyBudget: user.MonthlyBudget,
			CreatedAt:     user.CreatedAt,
			UpdatedAt:     user.UpdatedAt,
		},
	}, nil
}

// RefreshToken exchanges a still valid token for a fresh one with a full TTL.
func (s *AuthQueryService) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := middleware.ParseToken(cmd.Token)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	token, err := middleware.IssueToken(claims.UserID, claims.Email, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
