package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/middleware"
	"github.com/jne-ops/opsboard-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	if v, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := v.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}

func actorEmail(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.Email
	}
	return ""
}
