package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/models"
)

// RequireContentType rejects requests whose body is not of the given media
// type with 415.
func RequireContentType(mediaType string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		mt, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err != nil || mt != mediaType {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.ErrorResponse{
				Error: "Content-Type must be " + mediaType,
			})
			return
		}
		ctx.Next()
	}
}

// LimitBody caps the request body size.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if maxBytes > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)
		}
		ctx.Next()
	}
}
