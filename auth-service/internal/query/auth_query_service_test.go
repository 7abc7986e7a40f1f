package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/shared/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "broken@example.com" {
		return nil, errs.Store("get user by email", fmt.Errorf("connection refused"))
	}
	u, ok := f[email]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) *AuthQueryService {
	t.Helper()
	middleware.SetJWTSecret("test-secret")
	hash, err := utils.HashPassword("securepass123")
	require.NoError(t, err)
	users := fakeUsers{
		"alice@example.com": {
			ID: "usr-001", Username: "alice", Email: "alice@example.com",
			PasswordHash: hash, MonthlyBudget: decimal.NewFromInt(10000),
		},
	}
	return NewAuthQueryService(users, time.Hour)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	t.Run("valid credentials issue a token for the user", func(t *testing.T) {
		res, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: "  Alice@Example.com ", Password: "securepass123"})
		require.NoError(t, err)
		assert.Equal(t, "usr-001", res.User.ID)
		assert.True(t, res.User.MonthlyBudget.Equal(decimal.NewFromInt(10000)))

		claims, err := middleware.ParseToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, "usr-001", claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: "alice@example.com", Password: "nope"})
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: "bob@example.com", Password: "securepass123"})
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		_, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: "broken@example.com", Password: "x"})
		assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, errs.ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	svc := newTestService(t)

	original, err := middleware.IssueToken("usr-001", "alice@example.com", time.Minute)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: original})
	require.NoError(t, err)
	claims, err := middleware.ParseToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "usr-001", claims.UserID)

	_, err = svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: "not.a.token"})
	assert.ErrorIs(t, err, errs.ErrInvalidToken)

	expired, err := middleware.IssueToken("usr-001", "alice@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: expired})
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
}
