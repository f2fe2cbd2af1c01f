package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/samber/oops"

	"usersvc/internal/common"
	"usersvc/internal/models"
	"usersvc/internal/security"
)

// AccountLookup finds accounts for credential checks.
type AccountLookup interface {
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// AuthService handles authentication: verifying credentials and issuing and
// validating tokens.
type AuthService struct {
	accounts  AccountLookup
	hasher    security.Hasher
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts AccountLookup, hasher security.Hasher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Authenticate returns the account if password matches its stored digest.
// Unknown usernames and wrong passwords fail alike with
// common.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return nil, oops.Code("LOGIN_FAILED").Wrap(common.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, account.Secret) {
		return nil, oops.Code("LOGIN_FAILED").Wrap(common.ErrInvalidCredentials)
	}
	return account, nil
}

// Login authenticates the user and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      account.ID,
		"username": account.Username,
		"roles":    account.Roles.Strings(),
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// ValidateToken parses a token issued by Login and resolves its caller
// against the store, so roles come from the account as it is now. Tokens of
// deleted or recreated accounts are rejected with common.ErrUnauthorized;
// store failures are returned as is.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (security.Caller, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return security.Caller{}, invalidToken(err.Error())
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return security.Caller{}, invalidToken("claims rejected")
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return security.Caller{}, invalidToken("missing username")
	}

	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return security.Caller{}, invalidToken("account no longer exists")
	}
	if err != nil {
		return security.Caller{}, err
	}
	if sub, _ := claims["sub"].(string); sub != account.ID {
		return security.Caller{}, invalidToken("subject mismatch")
	}
	return security.Caller{Username: account.Username, Roles: account.Roles.Clone()}, nil
}

func invalidToken(reason string) error {
	return oops.Code("TOKEN_INVALID").With("reason", reason).Wrap(common.ErrUnauthorized)
}
