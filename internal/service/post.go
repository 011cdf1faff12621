package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("post does not belong to the authenticated user")
)

// ValidationError reports a rejected request body or parameter. The
// message is safe to return to the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const (
	titleMaxLen = 200
	maxPageSize = 100
)

// PostStore is the slice of the post repository the service consumes.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, status string, limit, offset int) ([]models.Post, error)
	CountByAuthor(ctx context.Context, authorID uuid.UUID, status string) (int64, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type PostService struct {
	store PostStore
	now   func() time.Time
}

func NewPostService(store PostStore) *PostService {
	return &PostService{
		store: store,
		now:   time.Now,
	}
}

type ListParams struct {
	Page   int
	Limit  int
	Status string
}

type CreateInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	ImageURL      string `json:"image_url"`
	Featured      bool   `json:"featured"`
	AllowComments *bool  `json:"allow_comments"`
	Status        string `json:"status"`
}

// PostPatch carries a partial update. Only non-nil fields are applied;
// anything outside this allow-list is dropped at JSON decode time.
type PostPatch struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	ImageURL      *string `json:"image_url"`
	Featured      *bool   `json:"featured"`
	AllowComments *bool   `json:"allow_comments"`
	Status        *string `json:"status"`
}

func (p *PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Description == nil &&
		p.Category == nil && p.ImageURL == nil && p.Featured == nil &&
		p.AllowComments == nil && p.Status == nil
}

// List returns one page of the author's posts, newest-updated first.
func (s *PostService) List(ctx context.Context, authorID uuid.UUID, params ListParams) ([]models.Post, int64, error) {
	if params.Page < 1 {
		return nil, 0, validationError("page must be a positive integer")
	}
	if params.Limit < 1 || params.Limit > maxPageSize {
		return nil, 0, validationError("limit must be between 1 and %d", maxPageSize)
	}
	if params.Status != "" && !models.ValidPostStatus(params.Status) {
		return nil, 0, validationError("status must be one of draft, published, archived")
	}

	offset := (params.Page - 1) * params.Limit

	posts, err := s.store.ListByAuthor(ctx, authorID, params.Status, params.Limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.store.CountByAuthor(ctx, authorID, params.Status)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input CreateInput) (*models.Post, error) {
	if input.Title == "" {
		return nil, validationError("title is required")
	}
	if utf8.RuneCountInString(input.Title) > titleMaxLen {
		return nil, validationError("title must be at most %d characters", titleMaxLen)
	}
	if input.Content == "" {
		return nil, validationError("content is required")
	}

	status := input.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	// Archived posts can't be created directly, only updated into
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		return nil, validationError("status must be one of draft, published")
	}

	slug, err := s.uniqueSlug(ctx, input.Title, 0)
	if err != nil {
		return nil, err
	}

	allowComments := true
	if input.AllowComments != nil {
		allowComments = *input.AllowComments
	}

	post := &models.Post{
		AuthorID:      authorID,
		Title:         input.Title,
		Slug:          slug,
		Content:       input.Content,
		Description:   input.Description,
		Category:      input.Category,
		ImageURL:      input.ImageURL,
		Featured:      input.Featured,
		AllowComments: allowComments,
		Status:        status,
	}

	if status == models.PostStatusPublished {
		pubDate := s.now()
		post.PubDate = &pubDate
	}

	if err := s.store.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Get returns the post only to its owner. Nonexistence and foreign
// ownership are reported distinctly.
func (s *PostService) Get(ctx context.Context, authorID uuid.UUID, id uint) (*models.Post, error) {
	return s.ownedPost(ctx, authorID, id)
}

func (s *PostService) Update(ctx context.Context, authorID uuid.UUID, id uint, patch PostPatch) (*models.Post, error) {
	post, err := s.ownedPost(ctx, authorID, id)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		return nil, validationError("update body contains no recognized fields")
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, validationError("title cannot be empty")
		}
		if utf8.RuneCountInString(*patch.Title) > titleMaxLen {
			return nil, validationError("title must be at most %d characters", titleMaxLen)
		}
	}
	if patch.Content != nil && *patch.Content == "" {
		return nil, validationError("content cannot be empty")
	}
	if patch.Status != nil && !models.ValidPostStatus(*patch.Status) {
		return nil, validationError("status must be one of draft, published, archived")
	}

	if patch.Title != nil && *patch.Title != post.Title {
		post.Title = *patch.Title

		// A title edit that derives the post's current slug keeps it,
		// preserving the public URL.
		if Slugify(*patch.Title) != post.Slug {
			slug, err := s.uniqueSlug(ctx, *patch.Title, post.ID)
			if err != nil {
				return nil, err
			}
			post.Slug = slug
		}
	}

	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Description != nil {
		post.Description = *patch.Description
	}
	if patch.Category != nil {
		post.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		post.ImageURL = *patch.ImageURL
	}
	if patch.Featured != nil {
		post.Featured = *patch.Featured
	}
	if patch.AllowComments != nil {
		post.AllowComments = *patch.AllowComments
	}

	if patch.Status != nil {
		post.Status = *patch.Status

		// pub_date latches on the first transition to published
		if *patch.Status == models.PostStatusPublished && post.PubDate == nil {
			pubDate := s.now()
			post.PubDate = &pubDate
		}
	}

	if err := s.store.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *PostService) Delete(ctx context.Context, authorID uuid.UUID, id uint) error {
	if _, err := s.ownedPost(ctx, authorID, id); err != nil {
		return err
	}

	return s.store.Delete(ctx, id)
}

func (s *PostService) ownedPost(ctx context.Context, authorID uuid.UUID, id uint) (*models.Post, error) {
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if post == nil {
		return nil, ErrPostNotFound
	}

	if post.AuthorID != authorID {
		return nil, ErrNotPostOwner
	}

	return post, nil
}

// uniqueSlug resolves collisions by suffixing the current unix
// timestamp. excludeID keeps a post from colliding with its own row
// on updates; creates pass 0. The check-then-insert window is
// accepted: two concurrent creates with the same base can at worst
// race into a unique-index error on the loser, never corrupt data.
func (s *PostService) uniqueSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	slug := Slugify(title)

	exists, err := s.store.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}

	if exists {
		slug = fmt.Sprintf("%s-%d", slug, s.now().Unix())
	}

	return slug, nil
}
