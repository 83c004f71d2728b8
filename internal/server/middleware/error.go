package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-local/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error attached with c.Error as an OpenAI
// style error envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// a streamed response has already committed its status
		if c.Writer.Written() {
			logger.Warn("error after response started", zap.String("path", c.Request.URL.Path), zap.Error(err))
			return
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			if apiErr.Log != nil {
				logger.Error("request failed",
					zap.Int("status", apiErr.Status),
					zap.String("message", apiErr.Message),
					zap.Error(apiErr.Log),
				)
			}
			c.JSON(apiErr.Status, apiErr.Envelope())
			c.Abort()
			return
		}

		// at this point it's an unknown error, so 500 catch-all
		logger.Error("unhandled error", zap.Error(err))
		internal := api.InternalError("An unexpected error occurred.", err)
		c.JSON(internal.Status, internal.Envelope())
		c.Abort()
	}
}
