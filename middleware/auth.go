package middleware

import (
	"context"
	"net/http"
	"strings"

	"quizgate/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

type TokenParser interface {
	ParseAccessToken(ctx context.Context, token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid bearer access token and stores the caller's
// identity on the context.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}

		claims, err := parser.ParseAccessToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if se, ok := services.AsServiceError(err); ok {
				c.AbortWithStatusJSON(se.Status(), gin.H{"error": se.Message})
				return
			}
			log.Error().Err(err).Str("path", c.FullPath()).Msg("failed to authenticate request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func Claims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
