package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingSecret = errors.New("JWT secret key not set")

// TokenConfig describes how access tokens are signed and checked.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Token is a freshly signed access token.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Issuer signs HS256 access tokens and builds the matching validator.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewIssuer(cfg TokenConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
	}, nil
}

// CreateToken signs a token whose subject is the user id. Every token gets a unique jti
// so it can be revoked on logout.
func (i *Issuer) CreateToken(userID string) (Token, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   userID,
		Issuer:    i.issuer,
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Value:     signed,
		ID:        id,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Validator returns a go-jwt-middleware validator accepting tokens from CreateToken.
func (i *Issuer) Validator() (*validator.Validator, error) {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return i.secret, nil
	}

	v, err := validator.New(
		keyFunc,
		validator.HS256,
		i.issuer,
		[]string{i.audience},
		validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("set up jwt validator: %w", err)
	}
	return v, nil
}
