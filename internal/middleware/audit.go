package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/service"
	"github.com/fieldside/clubcal-api/pkg/middleware/requestid"
)

// Audit records successful mutations on the team activity feed.
func Audit(activity *service.ActivityService, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if activity == nil || c.Writer.Status() >= 400 {
			return
		}

		claims, ok := CurrentClaims(c)
		if !ok {
			return
		}

		actorID := claims.UserID
		detail := map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		}
		if reqID := requestid.Value(c); reqID != "" {
			detail["request_id"] = reqID
		}
		activity.Record(c.Request.Context(), claims.TeamID, &actorID, action, resource, c.Param("id"), detail)
	}
}
