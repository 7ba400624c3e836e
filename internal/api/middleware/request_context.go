package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lifedash/privacy_service/internal/api/handlers/common"
)

// RequestID attaches a request ID to every request, honoring an
// upstream X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// UserContext extracts the authenticated user from the X-User-ID header
// set by the API gateway. Requests without a valid user ID are rejected.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			common.RespondUnauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			common.RespondUnauthorized(c, "Invalid user identity")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
