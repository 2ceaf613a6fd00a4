package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/memory"
)

func newTestAuthService() (*AuthService, *TokenManager) {
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(memory.NewStore(), tokens), tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	auth, tokens := newTestAuthService()
	ctx := context.Background()

	result, err := auth.Register(ctx, Credentials{Email: "Worker@Example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", result.Account.Email)
	assert.NotEqual(t, "Secret123", result.Account.PasswordHash)

	id, err := tokens.ParseAccess(result.TokenPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, id)

	login, err := auth.Login(ctx, Credentials{Email: "WORKER@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, login.Account.ID)

	_, err = auth.Login(ctx, Credentials{Email: "worker@example.com", Password: "Wrong1234"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = auth.Login(ctx, Credentials{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Register_Validation(t *testing.T) {
	auth, _ := newTestAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, Credentials{Email: "not-an-email", Password: "Secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = auth.Register(ctx, Credentials{Email: "user@example.com", Password: "short"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = auth.Register(ctx, Credentials{Email: "user@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, Credentials{Email: "USER@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)
}

func TestAuthService_Refresh(t *testing.T) {
	auth, tokens := newTestAuthService()
	ctx := context.Background()

	result, err := auth.Register(ctx, Credentials{Email: "creator@example.com", Password: "Secret123"})
	require.NoError(t, err)

	pair, err := auth.Refresh(ctx, result.TokenPair.RefreshToken)
	require.NoError(t, err)
	id, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, id)

	// access токен не принимается как refresh
	_, err = auth.Refresh(ctx, result.TokenPair.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	// токен неизвестной учётной записи
	orphan, err := tokens.GeneratePair(&models.Account{ID: uuid.New()})
	require.NoError(t, err)
	_, err = auth.Refresh(ctx, orphan.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	tokens := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	account := &models.Account{ID: uuid.New()}

	expired := NewTokenManager("access-secret", "refresh-secret", -time.Minute, time.Hour)
	pair, err := expired.GeneratePair(account)
	require.NoError(t, err)
	_, err = tokens.ParseAccess(pair.AccessToken)
	assert.Error(t, err)

	other := NewTokenManager("other-secret", "refresh-secret", time.Minute, time.Hour)
	pair, err = other.GeneratePair(account)
	require.NoError(t, err)
	_, err = tokens.ParseAccess(pair.AccessToken)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: account.ID.String()})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.ParseAccess(raw)
	assert.Error(t, err)
}
