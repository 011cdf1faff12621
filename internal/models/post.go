package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AuthorID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"author_id"`
	Title         string     `gorm:"not null" json:"title"`
	Slug          string     `gorm:"column:normalized_title;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"not null" json:"content"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	ImageURL      string     `json:"image_url"`
	Featured      bool       `gorm:"default:false" json:"featured"`
	AllowComments bool       `gorm:"default:true" json:"allow_comments"`
	Status        string     `gorm:"index;default:'draft'" json:"status"`
	PubDate       *time.Time `json:"pub_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}
