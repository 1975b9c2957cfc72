package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func newValidator(issuer string) *auth.JWTValidator {
	return auth.NewJWTValidator(&config.AuthConfig{
		JWTSecret:     testSecret,
		Issuer:        issuer,
		LeewaySeconds: 0,
	})
}

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTValidator_IssueAndValidate(t *testing.T) {
	v := newValidator("srf-identity")

	token, err := v.IssueToken("ravi", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	userCtx, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ravi", userCtx.Username)
	assert.Equal(t, "ravi", userCtx.DisplayName)
	assert.Equal(t, domain.RoleUser, userCtx.Role)
	assert.Equal(t, auth.AuthTypeJWT, userCtx.AuthType)
	assert.False(t, userCtx.IsAdmin())
}

func TestJWTValidator_RoleIsCaseInsensitive(t *testing.T) {
	v := newValidator("")
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
		Username: "meena",
		Name:     "Meena K",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userCtx, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, userCtx.Role)
	assert.Equal(t, "Meena K", userCtx.DisplayName)
	assert.True(t, userCtx.IsAdmin())
}

func TestJWTValidator_SubjectFallback(t *testing.T) {
	v := newValidator("")
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "suresh",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userCtx, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "suresh", userCtx.Username)
}

func TestJWTValidator_Rejections(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
					Username: "ravi",
					Role:     "USER",
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
					},
				})
			},
			wantErr: auth.ErrExpiredToken,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
					Username: "ravi",
					Role:     "USER",
				})
			},
			wantErr: auth.ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte("other-secret"), auth.Claims{
					Username:         "ravi",
					Role:             "USER",
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				})
			},
			wantErr: auth.ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), auth.Claims{
					Username:         "ravi",
					Role:             "USER",
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				})
			},
			wantErr: auth.ErrInvalidToken,
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
					Username:         "ravi",
					Role:             "SUPERVISOR",
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				})
			},
			wantErr: auth.ErrInvalidRole,
		},
		{
			name: "missing username",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
					Role:             "USER",
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
				})
			},
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not.a.token" },
			wantErr: auth.ErrInvalidToken,
		},
	}

	v := newValidator("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestJWTValidator_Issuer(t *testing.T) {
	issued, err := newValidator("someone-else").IssueToken("ravi", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = newValidator("srf-identity").ValidateToken(issued)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_NoSecret(t *testing.T) {
	token, err := newValidator("").IssueToken("ravi", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	v := auth.NewJWTValidator(&config.AuthConfig{})
	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{Username: "ravi", Role: domain.RoleAdmin})

	userCtx, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.True(t, userCtx.IsAdmin())
	assert.Equal(t, "ravi", auth.MustFromContext(ctx).Username)

	_, ok = auth.FromContext(auth.WithUserContext(ctx, nil))
	assert.False(t, ok)
}
