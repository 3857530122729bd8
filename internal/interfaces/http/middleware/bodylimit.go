package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

// BodyLimit caps request body size. Declared sizes are rejected up front;
// chunked uploads are capped while streaming via MaxBytesReader, so a lying
// or absent Content-Length cannot bypass the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "request body exceeds the allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
