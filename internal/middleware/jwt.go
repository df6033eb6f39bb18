package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/event-horizon/backend/internal/auth"
	"github.com/event-horizon/backend/pkg/response"
)

const (
	// ContextStaffID is the key for staff ID in gin context.
	ContextStaffID = "staff_id"
	// ContextStaffRole is the key for staff role in gin context.
	ContextStaffRole = "staff_role"
	// ContextStaffEmail is the key for staff email in gin context.
	ContextStaffEmail = "staff_email"
)

// JWT returns a middleware that validates a staff token and sets claims in
// context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextStaffID, claims.StaffID)
		c.Set(ContextStaffRole, claims.Role)
		c.Set(ContextStaffEmail, claims.Email)
		c.Next()
	}
}
