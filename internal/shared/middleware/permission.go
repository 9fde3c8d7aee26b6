package middleware

import (
	"library-backend/internal/access"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequirePermission checks the caller role against the access policy
// Phải đứng sau AuthMiddleware
func RequirePermission(policy *access.Policy, op access.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		if err := policy.Authorize(role, op); err != nil {
			userID, _ := GetUserID(c)
			logger.Warn("permission denied", map[string]interface{}{
				"user_id":   userID.String(),
				"role":      string(role),
				"operation": string(op),
			})
			response.Forbidden(c, "Access denied: insufficient role")
			c.Abort()
			return
		}

		c.Next()
	}
}
