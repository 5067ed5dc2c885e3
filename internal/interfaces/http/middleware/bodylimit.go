package middleware

import (
	"fmt"
	"net/http"

	"github.com/btp-erp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused before the handler runs; chunked bodies are cut off by
// http.MaxBytesReader and reported through HandleValidationError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tooLargeResponse(c, maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func tooLargeResponse(c *gin.Context, limit int64) dto.Response {
	return dto.NewErrorResponseWithRequestID(
		dto.ErrCodeTooLarge,
		fmt.Sprintf("Request body exceeds the %d byte limit", limit),
		GetRequestID(c),
	)
}
