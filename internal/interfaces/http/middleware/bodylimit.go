package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gescom/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes caps request bodies at 1 MiB; quotation payloads
// are a few KB at most.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects request bodies larger than maxBytes. Requests
// announcing an oversize Content-Length are refused outright; chunked
// requests are capped while being read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large", c.GetString("request_id")))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
