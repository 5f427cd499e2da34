// Package authutils verifies and mints the HS256 access tokens that gate the
// admin API.
package authutils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"passage-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// JWTVerifier checks HMAC-signed access tokens.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
	logger *zap.Logger
}

type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	issuer string
	leeway time.Duration
}

// WithIssuer rejects tokens whose iss claim differs.
func WithIssuer(issuer string) VerifierOption {
	return func(o *verifierOptions) { o.issuer = issuer }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) VerifierOption {
	return func(o *verifierOptions) { o.leeway = d }
}

func NewJWTVerifier(jwtSecret string, logger *zap.Logger, opts ...VerifierOption) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o verifierOptions
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{jwt.WithValidMethods(hmacMethods), jwt.WithExpirationRequired()}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(o.issuer))
	}
	if o.leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(o.leeway))
	}

	return &JWTVerifier{
		secret: []byte(jwtSecret),
		parser: jwt.NewParser(parserOpts...),
		logger: logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken returns the claims of a valid token. Failures map onto
// models.ErrTokenExpired, models.ErrTokenMalformed or models.ErrTokenInvalid.
func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		log.Debug("Token rejected", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
	if claims.UserID == uuid.Nil {
		log.Warn("Token missing user_id")
		return nil, fmt.Errorf("%w: user_id missing", models.ErrTokenInvalid)
	}
	return claims, nil
}

// SignToken issues an HS256 token.
func SignToken(secret string, claims *models.Claims) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret cannot be empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// NewClaims builds claims for userID valid for ttl from now.
func NewClaims(userID uuid.UUID, ttl time.Duration, roles ...string) *models.Claims {
	now := time.Now()
	return &models.Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func tokenSnippet(tokenString string) string {
	const limit = 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
