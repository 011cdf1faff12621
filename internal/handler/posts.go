package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/inkhouse/inkhouse/internal/service"
)

// PostHandler serves the versioned public posts resource. Every route
// runs behind API-key auth and the per-key rate limit; the handler
// itself enforces ownership and body validation.
type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// Handles GET /v1/posts
func (h *PostHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	params := service.ListParams{
		Page:   1,
		Limit:  10,
		Status: c.Query("status"),
	}

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidationError, "page must be an integer")
			return
		}
		params.Page = page
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeValidationError, "limit must be an integer")
			return
		}
		params.Limit = limit
	}

	ctx := c.Request.Context()
	posts, total, err := h.service.List(ctx, userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}

	respond(c, http.StatusOK, posts, &Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: &total,
	})
}

// Handles POST /v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var input service.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	post, err := h.service.Create(ctx, userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, post, nil)
}

// Handles GET /v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, ok := parsePostID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	post, err := h.service.Get(ctx, userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, post, nil)
}

// Handles PATCH /v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, ok := parsePostID(c)
	if !ok {
		return
	}

	var patch service.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationError, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	post, err := h.service.Update(ctx, userID, id, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, post, nil)
}

// Handles DELETE /v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, ok := parsePostID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.service.Delete(ctx, userID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func parsePostID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidationError, "post id must be an integer")
		return 0, false
	}

	return uint(id), true
}
