package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/service"
)

// APIKeyHandler serves the account-facing key management endpoints.
// These sit behind session (JWT) auth, not API-key auth.
type APIKeyHandler struct {
	service *service.APIKeyService
}

func NewAPIKeyHandler(service *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

var keyExpiryChoices = map[int]bool{0: true, 30: true, 90: true, 365: true}

// Handles POST /account/keys
func (h *APIKeyHandler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		Name          string `json:"name" binding:"required"`
		ExpiresInDays int    `json:"expires_in_days"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if !keyExpiryChoices[req.ExpiresInDays] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expires_in_days must be one of 30, 90, 365, or 0 for never"})
		return
	}

	ctx := c.Request.Context()
	apiKey, plaintext, err := h.service.Issue(ctx, userID, req.Name, req.ExpiresInDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":     apiKey,
		"secret":  plaintext,
		"message": "Save this key - it won't be shown again",
	})
}

// Handles GET /account/keys
func (h *APIKeyHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	ctx := c.Request.Context()
	keys, err := h.service.List(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list API keys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// Handles DELETE /account/keys/:id - revokes, never deletes
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}

	ctx := c.Request.Context()
	apiKey, err := h.service.Get(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up API key"})
		return
	}

	// Foreign keys are reported as missing, not forbidden
	if apiKey == nil || apiKey.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	if err := h.service.Revoke(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}
