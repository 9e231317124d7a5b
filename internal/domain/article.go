package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

type Article struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:191;uniqueIndex;not null"`
	Summary     string         `json:"summary" gorm:"type:text"`
	Body        string         `json:"body" gorm:"type:text"` // markdown
	Status      ArticleStatus  `json:"status" gorm:"size:16;not null;default:'draft';index"`
	CategoryID  *uuid.UUID     `json:"categoryId" gorm:"type:char(36);index"`
	AuthorID    uuid.UUID      `json:"authorId" gorm:"type:char(36);not null"`
	Tags        datatypes.JSON `json:"tags"` // ["news", "events"]
	PublishedAt *time.Time     `json:"publishedAt" gorm:"index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt" gorm:"index"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// TagList decodes Tags; malformed JSON yields no tags.
func (a *Article) TagList() []string {
	if len(a.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(a.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

func (a *Article) SetTags(tags []string) {
	if len(tags) == 0 {
		a.Tags = nil
		return
	}
	raw, _ := json.Marshal(tags)
	a.Tags = raw
}
