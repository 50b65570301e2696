package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// FeatureGate rejects requests with SERVICE_DISABLED when enabled is false.
func FeatureGate(enabled bool, feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, feature+" is disabled"))
			c.Abort()
			return
		}
		c.Next()
	}
}
