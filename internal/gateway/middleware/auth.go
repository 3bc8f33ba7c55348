package middleware

import (
	"net/http"
	"strings"

	"github.com/Pravinkumar0908/business/internal/auth"
	"github.com/Pravinkumar0908/business/internal/logger"
	"github.com/Pravinkumar0908/business/internal/metrics"
	"github.com/Pravinkumar0908/business/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserID   = "user_id"
	ctxTenantID = "tenant_id"
	ctxRole     = "role"
)

func UserID(c *gin.Context) string   { return c.GetString(ctxUserID) }
func TenantID(c *gin.Context) string { return c.GetString(ctxTenantID) }
func Role(c *gin.Context) auth.Role  { return auth.Role(c.GetString(ctxRole)) }

func abortWith(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

// JWTAuth verifies the bearer token and stores the actor on the gin context.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		header := c.GetHeader("Authorization")
		if header == "" {
			metrics.AuthAttempts.WithLabelValues("missing").Inc()
			log.Warn("missing authorization token")
			abortWith(c, http.StatusUnauthorized, "authentication required")
			return
		}

		tokenString := header
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			tokenString = header[7:]
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			metrics.AuthAttempts.WithLabelValues("invalid").Inc()
			log.Warn("invalid token", zap.Error(err))
			abortWith(c, http.StatusUnauthorized, "invalid token")
			return
		}
		metrics.AuthAttempts.WithLabelValues("success").Inc()

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxTenantID, claims.TenantID)
		c.Set(ctxRole, claims.Role)

		log = log.With(
			zap.String("user_id", claims.UserID),
			zap.String("tenant_id", claims.TenantID),
			zap.String("role", claims.Role),
		)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))
		c.Next()
	}
}

// RequireTenantContext rejects tokens that do not name a tenant.
func RequireTenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if TenantID(c) == "" {
			metrics.AuthAttempts.WithLabelValues("no_tenant").Inc()
			logger.FromContext(c.Request.Context()).Warn("missing tenant context")
			abortWith(c, http.StatusForbidden, "tenant context required")
			return
		}
		c.Next()
	}
}

// RequireCapability asks the authorizer whether the caller's role grants
// the capability.
func RequireCapability(a auth.Authorizer, capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Allowed(Role(c), capability) {
			metrics.PermissionDenied.WithLabelValues(string(capability)).Inc()
			logger.FromContext(c.Request.Context()).Warn("permission denied",
				zap.String("capability", string(capability)))
			abortWith(c, http.StatusForbidden, "permission denied: "+string(capability))
			return
		}
		c.Next()
	}
}
