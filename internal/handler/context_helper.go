package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler-api/internal/middleware"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/response"
)

// claimsFromContext returns the authenticated claims or nil. Callers that
// only attribute an action to a user when one is present use this form.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims returns the authenticated claims or answers 401. Routes
// behind the JWT middleware always carry claims, the guard keeps a
// miswired route from dereferencing a missing context value.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// clientMeta captures the caller's address and agent for audit rows.
func clientMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
