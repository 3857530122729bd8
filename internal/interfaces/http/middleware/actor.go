package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/auth"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

// Gin context keys set by the actor middleware
const (
	ActorKey     = "actor"
	ActorUserKey = "actor_user_id"
	ActorNameKey = "actor_name"
	ActorDeptKey = "actor_department"
	ActorRoleKey = "actor_role"
	bearerPrefix = "Bearer "
)

// Authenticate verifies the bearer token and stores the acting user on the
// request context. Tokens are issued elsewhere; this service only checks them.
// A nil blacklist disables revocation checks.
func Authenticate(verifier *auth.JWTVerifier, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, code, "Invalid or expired token")
			return
		}

		if blacklist != nil && tokenRevoked(c, blacklist, claims) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Token has been revoked")
			return
		}

		actor := claims.Actor()
		c.Set(ActorKey, actor)
		c.Set(ActorUserKey, actor.UserID)
		c.Set(ActorNameKey, actor.Name)
		c.Set(ActorDeptKey, string(actor.Department))
		c.Set(ActorRoleKey, actor.Role)
		c.Next()
	}
}

// tokenRevoked checks the JTI blacklist and the user-level revocation instant.
// Blacklist lookup failures fail open: a Redis outage must not lock out every
// authenticated caller.
func tokenRevoked(c *gin.Context, blacklist auth.TokenBlacklist, claims *auth.Claims) bool {
	if claims.ID != "" {
		if revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID); err == nil && revoked {
			return true
		}
	}
	if claims.IssuedAt != nil {
		if revoked, err := blacklist.IsUserRevoked(c.Request.Context(), claims.UserID, claims.IssuedAt.Time); err == nil && revoked {
			return true
		}
	}
	return false
}

// GetActor returns the authenticated actor for the request
func GetActor(c *gin.Context) (payment.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return payment.Actor{}, false
	}
	actor, ok := v.(payment.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, requestID))
}
