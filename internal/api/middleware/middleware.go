package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/nflodds/internal/api/models"
	"github.com/richard-senior/nflodds/internal/logger"
)

// ErrorHandler turns panics into a 500 with the standard error body
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Recovered from panic", c.Request.URL.Path, fmt.Sprint(recovered))
		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewError("INTERNAL_ERROR", message))
	})
}

// Logger logs one line per request through the application logger
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		line := fmt.Sprintf("%s %s %d %s", c.Request.Method, c.Request.URL.RequestURI(), status, time.Since(start).Round(time.Millisecond))
		if status >= http.StatusInternalServerError {
			logger.Warn(line)
		} else {
			logger.Info(line)
		}
	}
}
