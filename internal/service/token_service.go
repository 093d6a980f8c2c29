package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"webhook-dispatcher/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// Operator roles carried in admin tokens.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)

// operatorClaims is the admin token payload.
type operatorClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTTokenService implements ports.TokenService using HS256 JWT.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate issues a signed token for an operator.
func (s *JWTTokenService) Generate(subject string, roles []string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("subject is required")
	}
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := operatorClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Validate parses a token and returns its operator claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	var claims operatorClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("missing subject claim")
	}

	return &ports.TokenClaims{Subject: claims.Subject, Roles: claims.Roles}, nil
}

// HasRole reports whether claims grant role. Operators may do everything a
// viewer may.
func HasRole(claims *ports.TokenClaims, role string) bool {
	if claims == nil {
		return false
	}
	if slices.Contains(claims.Roles, role) {
		return true
	}
	return role == RoleViewer && slices.Contains(claims.Roles, RoleOperator)
}
