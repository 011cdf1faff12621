package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request, tagged with the request id so
// entries correlate with handler error logs. Requests that passed key
// authentication also carry the key id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}
		method := c.Request.Method

		c.Next()

		line := fmt.Sprintf("[%s] %s %s - %d - %v - %s",
			c.GetString("request_id"),
			method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
		)

		if keyID, ok := c.Get("api_key_id"); ok {
			line = fmt.Sprintf("%s - key=%v", line, keyID)
		}

		log.Print(line)
	}
}
