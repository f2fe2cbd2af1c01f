package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usersvc/internal/common"
	"usersvc/internal/models"
	"usersvc/internal/services"
)

const testJWTSecret = "test_jwt_secret"

func newAuthFixture(t *testing.T) (*services.AuthService, *MockAccountRepository) {
	t.Helper()
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	repo := new(MockAccountRepository)
	repo.On("FindByUsername", mock.Anything, "karl").Return(&models.Account{
		ID:       "id-1",
		Username: "karl",
		Secret:   digest,
		Roles:    models.NewRoleSet(models.RoleUser, models.RoleEditor),
	}, nil)
	repo.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, common.ErrNotFound)

	accounts := newMockService(repo)
	return services.NewAuthService(accounts, hasher, testJWTSecret, time.Hour), repo
}

func TestAuthService_Authenticate(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	account, err := auth.Authenticate(ctx, "karl", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", account.ID)

	_, err = auth.Authenticate(ctx, "karl", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_AuthenticatePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := new(MockAccountRepository)
	repo.On("FindByUsername", mock.Anything, "karl").Return(nil, boom)
	auth := services.NewAuthService(newMockService(repo), hasher, testJWTSecret, time.Hour)

	_, err := auth.Authenticate(context.Background(), "karl", "secret1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	auth, _ := newAuthFixture(t)

	token, err := auth.Login(context.Background(), "karl", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	caller, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "karl", caller.Username)
	assert.True(t, caller.Roles.Has(models.RoleUser))
	assert.True(t, caller.Roles.Has(models.RoleEditor))
	assert.False(t, caller.IsAdmin())

	_, err = auth.Login(context.Background(), "karl", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	auth, _ := newAuthFixture(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "karl",
		"exp":      jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredString, _ := expired.SignedString([]byte(testJWTSecret))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "karl",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	foreignString, _ := foreign.SignedString([]byte("other_secret"))

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	anonymousString, _ := anonymous.SignedString([]byte(testJWTSecret))

	for name, token := range map[string]string{
		"garbage":      "invalid.token.string",
		"expired":      expiredString,
		"wrong secret": foreignString,
		"no username":  anonymousString,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}

func TestAuthService_ValidateTokenUsesStoredAccount(t *testing.T) {
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	account := &models.Account{
		ID:       "id-7",
		Username: "boss",
		Secret:   digest,
		Roles:    models.NewRoleSet(models.RoleAdmin),
	}
	demoted := &models.Account{ID: "id-7", Username: "boss", Secret: digest, Roles: models.NewRoleSet(models.RoleUser)}
	recreated := &models.Account{ID: "id-8", Username: "boss", Secret: digest, Roles: models.NewRoleSet(models.RoleAdmin)}

	repo := new(MockAccountRepository)
	repo.On("FindByUsername", mock.Anything, "boss").Return(account, nil).Once()
	repo.On("FindByUsername", mock.Anything, "boss").Return(demoted, nil).Once()
	repo.On("FindByUsername", mock.Anything, "boss").Return(recreated, nil).Once()
	repo.On("FindByUsername", mock.Anything, "boss").Return(nil, common.ErrNotFound).Once()
	repo.On("FindByUsername", mock.Anything, "boss").Return(nil, errors.New("connection reset")).Once()
	auth := services.NewAuthService(newMockService(repo), hasher, testJWTSecret, time.Hour)
	ctx := context.Background()

	token, err := auth.Login(ctx, "boss", "secret1")
	require.NoError(t, err)

	caller, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, caller.IsAdmin(), "roles come from the stored account")
	assert.True(t, caller.Roles.Has(models.RoleUser))

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthorized, "account recreated under the same name")

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthorized, "account deleted")

	_, err = auth.ValidateToken(ctx, token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrUnauthorized)
}
