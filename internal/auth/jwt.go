package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidRole  = errors.New("token carries an unknown role")
)

// Claims is the token payload issued by the identity service.
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 bearer tokens signed with the shared secret.
type JWTValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		leeway: cfg.LeewayDuration(),
	}
}

// ValidateToken validates a JWT token and returns user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: token signing secret not configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidToken)
	}

	role := domain.UserRole(strings.ToUpper(claims.Role))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, claims.Role)
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = username
	}

	return &UserContext{
		Username:    username,
		DisplayName: displayName,
		Role:        role,
		AuthType:    AuthTypeJWT,
	}, nil
}

// IssueToken signs a token for username. Used by operator tooling and tests.
func (v *JWTValidator) IssueToken(username string, role domain.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
