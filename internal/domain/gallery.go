package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gallery is a node of the gallery tree. A nil ParentID makes it a root.
type Gallery struct {
	ID              uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Name            string         `json:"name" gorm:"size:255;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	ParentID        *uuid.UUID     `json:"parentId" gorm:"type:char(36);index"`
	FeaturedImageID *uuid.UUID     `json:"featuredImageId" gorm:"type:char(36)"`
	Version         int            `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"deletedAt" gorm:"index"`

	// Relations
	Images []Image `json:"images,omitempty" gorm:"many2many:gallery_images;"`
}

func (g *Gallery) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Version == 0 {
		g.Version = 1
	}
	return nil
}

func (g *Gallery) IsRoot() bool {
	return g.ParentID == nil
}

func (g *Gallery) IsTrashed() bool {
	return g.DeletedAt.Valid
}

// ParentReason explains why a parent assignment was refused.
type ParentReason string

const (
	ReasonSelfParent     ParentReason = "self-parent"
	ReasonCircular       ParentReason = "circular"
	ReasonParentNotFound ParentReason = "not-found"
	ReasonImageNotFound  ParentReason = "image-not-found"
)

// ParentValidation is the outcome of checking a proposed parent link.
type ParentValidation struct {
	Valid  bool         `json:"valid"`
	Reason ParentReason `json:"reason,omitempty"`
}

func ValidParent() ParentValidation {
	return ParentValidation{Valid: true}
}

func InvalidParent(reason ParentReason) ParentValidation {
	return ParentValidation{Valid: false, Reason: reason}
}

// Message is the text shown to the editor next to the parent field.
func (v ParentValidation) Message() string {
	switch v.Reason {
	case "":
		return ""
	case ReasonSelfParent:
		return "A gallery cannot be its own parent."
	case ReasonCircular:
		return "The selected parent is inside this gallery; that would create a loop."
	case ReasonParentNotFound:
		return "The selected parent gallery does not exist or is in the trash."
	case ReasonImageNotFound:
		return "The featured image does not exist or is in the trash."
	default:
		return "Invalid parent gallery."
	}
}
