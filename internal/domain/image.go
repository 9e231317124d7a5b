package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is the metadata record of an uploaded picture. The file itself is
// handled by the upload pipeline, not by this application.
type Image struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Filename  string         `json:"filename" gorm:"size:255;not null"`
	AltText   string         `json:"altText" gorm:"size:255"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
