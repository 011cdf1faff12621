package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/inkhouse/inkhouse/internal/storage"
	"gorm.io/gorm"
)

type PostRepository struct {
	db *storage.Postgres
}

func NewPostRepository(db *storage.Postgres) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&post).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &post, err
}

// Retrieves a page of an author's posts, newest-updated first.
// An empty status means no status filter.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, status string, limit, offset int) ([]models.Post, error) {
	var posts []models.Post

	query := r.db.DB.WithContext(ctx).
		Where("author_id = ?", authorID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error

	return posts, err
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID, status string) (int64, error) {
	var count int64

	query := r.db.DB.WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ?", authorID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Count(&count).Error
	return count, err
}

// SlugExists reports whether another post already owns the slug.
// excludeID skips the caller's own row; pass 0 when creating.
func (r *PostRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.Post{}).
		Where("normalized_title = ? AND id <> ?", slug, excludeID).
		Count(&count).Error

	return count > 0, err
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.DB.WithContext(ctx).Save(post).Error
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Post{}).Error
}
