package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/inkhouse/inkhouse/internal/repository"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// InitRequestLogger starts the background worker that batch inserts
// public API request logs for the admin analytics views.
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}
			if err := repo.CreateBatch(context.Background(), batch); err != nil {
				log.Printf("failed to insert request logs: %v", err)
			}
			batch = make([]models.RequestLog, 0, 100)
		}

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)
				if len(batch) >= 100 {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()
}

// RequestLogger records each public API request, keyed by the API key
// that made it. Logging is best effort: a full buffer drops the entry
// rather than blocking the response.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		var apiKeyID *uuid.UUID
		if value, exists := c.Get("api_key_id"); exists {
			if id, ok := value.(uuid.UUID); ok {
				apiKeyID = &id
			}
		}

		var userID *uuid.UUID
		if value, exists := c.Get("user_id"); exists {
			if id, ok := value.(uuid.UUID); ok {
				userID = &id
			}
		}

		entry := models.RequestLog{
			Timestamp:      start,
			APIKeyID:       apiKeyID,
			UserID:         userID,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		if logChannel == nil {
			return
		}

		select {
		case logChannel <- entry:
		default:
			log.Println("request log channel full, dropping entry")
		}
	}
}
