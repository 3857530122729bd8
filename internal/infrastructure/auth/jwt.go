package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrMissingUserID     = errors.New("missing user_id in claims")
	ErrMissingDepartment = errors.New("missing department in claims")
)

// Claims are the custom JWT claims issued by the identity service. This
// service only verifies them; it never mints tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
}

// JWTVerifier validates bearer tokens and extracts the acting user
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a new JWTVerifier
func NewJWTVerifier(cfg config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Verify parses and validates a token string, returning its claims
func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if claims.Department == "" {
		return nil, ErrMissingDepartment
	}
	return claims, nil
}

// Actor converts verified claims into the domain actor acting on a request
func (c *Claims) Actor() payment.Actor {
	return payment.Actor{
		UserID:     c.UserID,
		Name:       c.Name,
		Department: payment.Department(strings.TrimSpace(c.Department)),
		Role:       strings.ToLower(strings.TrimSpace(c.Role)),
	}
}
