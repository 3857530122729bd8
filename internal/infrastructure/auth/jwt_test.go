package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests-only!"

func newVerifier() *JWTVerifier {
	return NewJWTVerifier(config.JWTConfig{Secret: testSecret, Issuer: "slnko-identity"})
}

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "slnko-identity",
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:     "u-1",
		Name:       "Test User",
		Department: "SCM",
		Role:       "Manager",
	}
}

func TestVerify_ValidToken(t *testing.T) {
	v := newVerifier()
	claims, err := v.Verify(signToken(t, validClaims(), testSecret))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "SCM", claims.Department)
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newVerifier()
	_, err := v.Verify(signToken(t, validClaims(), "some-other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	c := validClaims()
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err := newVerifier().Verify(signToken(t, c, testSecret))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	c := validClaims()
	c.Issuer = "someone-else"
	_, err := newVerifier().Verify(signToken(t, c, testSecret))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingFields(t *testing.T) {
	c := validClaims()
	c.UserID = ""
	_, err := newVerifier().Verify(signToken(t, c, testSecret))
	assert.ErrorIs(t, err, ErrMissingUserID)

	c = validClaims()
	c.Department = ""
	_, err = newVerifier().Verify(signToken(t, c, testSecret))
	assert.ErrorIs(t, err, ErrMissingDepartment)
}

func TestClaims_Actor(t *testing.T) {
	c := validClaims()
	actor := c.Actor()
	assert.Equal(t, payment.Actor{
		UserID:     "u-1",
		Name:       "Test User",
		Department: payment.DeptSCM,
		Role:       "manager",
	}, actor)
}
