package middleware

import (
	"submission-disk/internal/transport/httpdto"
	"submission-disk/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors that handlers attached via c.Error but did not
// write themselves.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(c.Writer.Status(), httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}
