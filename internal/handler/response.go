package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkhouse/inkhouse/internal/ratelimit"
	"github.com/inkhouse/inkhouse/internal/service"
)

// Public API error codes
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

type RateLimitMeta struct {
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     string `json:"reset"`
}

type Meta struct {
	Page      int            `json:"page,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Total     *int64         `json:"total,omitempty"`
	RateLimit *RateLimitMeta `json:"rate_limit,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data interface{}, meta *Meta) {
	if meta == nil {
		meta = &Meta{}
	}
	meta.RateLimit = rateLimitMeta(c)

	c.JSON(status, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
	})
}

// Maps service-layer failures onto the public error taxonomy. Store
// errors are logged with context but never leaked to the client.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, CodeValidationError, validationErr.Message)
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "post not found")
	case errors.Is(err, service.ErrNotPostOwner):
		respondError(c, http.StatusForbidden, CodeForbidden, "you do not have access to this post")
	default:
		log.Printf("[%s] %s %s failed: %v",
			c.GetString("request_id"), c.Request.Method, c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, CodeInternalError, "an unexpected error occurred")
	}
}

// Pulls the limiter outcome stashed by the rate-limit middleware so
// every authenticated success carries quota metadata in the body.
func rateLimitMeta(c *gin.Context) *RateLimitMeta {
	value, exists := c.Get("rate_limit")
	if !exists {
		return nil
	}

	result, ok := value.(*ratelimit.Result)
	if !ok {
		return nil
	}

	return &RateLimitMeta{
		Limit:     result.Limit,
		Remaining: result.Remaining,
		Reset:     result.Reset.UTC().Format(time.RFC3339),
	}
}
