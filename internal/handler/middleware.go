package handler

import (
	"time"

	"recky/backend/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := c.GetString(auth.UserIDKey); userID != "" {
			fields = append(fields, zap.String("userID", userID))
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("Request served", fields...)
			return
		}
		logger.Debug("Request served", fields...)
	}
}
