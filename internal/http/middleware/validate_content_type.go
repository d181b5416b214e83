package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
)

// ValidateContentType ensures request bodies are JSON
func ValidateContentType() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			ctx.Next()
			return
		}

		contentType := strings.ToLower(ctx.GetHeader("Content-Type"))
		if !strings.HasPrefix(contentType, "application/json") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
				Success: false,
				Error:   "Content-Type must be application/json",
				Code:    models.KindInvalidArguments,
			})
			return
		}

		ctx.Next()
	}
}
