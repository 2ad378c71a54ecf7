package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/logger"
)

const (
	DefaultIssuer      = "mylibrary"
	DefaultTokenExpiry = 30 * 24 * time.Hour
	tokenLeeway        = 30 * time.Second
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the validated content of a token.
type Claims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer signs and validates HS256 tokens.
type TokenIssuer struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker TokenRevoker
	now     func() time.Time
}

// NewTokenIssuer builds an issuer from config. An empty secret is replaced by
// a random one, which invalidates tokens on every restart.
func NewTokenIssuer(cfg config.Auth, revoker TokenRevoker) (*TokenIssuer, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = generated
		logger.For(context.Background()).Warn("AUTH_JWT_SECRET is empty; tokens will not survive a restart")
	}
	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := cfg.TokenExpiry
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	return &TokenIssuer{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

// Issue returns a signed token for userID.
func (t *TokenIssuer) Issue(userID uint) (string, error) {
	now := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    t.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var registered jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &registered, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || registered.ID == "" || registered.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(registered.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: uint(id), ID: registered.ID, ExpiresAt: registered.ExpiresAt.Time}, nil
}

// Validate parses token and rejects revoked ones.
func (t *TokenIssuer) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := t.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks token for the rest of its lifetime. Invalid tokens are
// ignored since they cannot authenticate anyway.
func (t *TokenIssuer) Revoke(ctx context.Context, token string) error {
	claims, err := t.parse(token)
	if err != nil {
		return nil
	}
	return t.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(t.now()))
}
