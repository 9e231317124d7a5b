package gormstore

import (
	"context"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// galleryImage is a row of the many2many join table gorm creates for
// Gallery.Images.
type galleryImage struct {
	GalleryID uuid.UUID `gorm:"type:char(36);primaryKey"`
	ImageID   uuid.UUID `gorm:"type:char(36);primaryKey"`
}

func (galleryImage) TableName() string {
	return "gallery_images"
}

type galleryRepository struct {
	db *gorm.DB
}

func NewGalleryRepository(db *gorm.DB) *galleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) Create(ctx context.Context, gallery *domain.Gallery) error {
	return r.db.WithContext(ctx).Omit("Images").Create(gallery).Error
}

func (r *galleryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	var gallery domain.Gallery
	err := r.db.WithContext(ctx).First(&gallery, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrGalleryNotFound)
	}
	return &gallery, nil
}

func (r *galleryRepository) GetAny(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	var gallery domain.Gallery
	err := r.db.WithContext(ctx).Unscoped().First(&gallery, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrGalleryNotFound)
	}
	return &gallery, nil
}

func (r *galleryRepository) Update(ctx context.Context, gallery *domain.Gallery, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Gallery{}).
			Where("id = ? AND version = ?", gallery.ID, expectedVersion).
			Updates(map[string]any{
				"name":              gallery.Name,
				"description":       gallery.Description,
				"parent_id":         nullableID(gallery.ParentID),
				"featured_image_id": nullableID(gallery.FeaturedImageID),
				"version":           gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Gallery{}).Where("id = ?", gallery.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrGalleryNotFound
			}
			return domain.ErrStaleTree
		}
		gallery.Version = expectedVersion + 1
		return nil
	})
}

func (r *galleryRepository) ListActive(ctx context.Context) ([]*domain.Gallery, error) {
	var galleries []*domain.Gallery
	err := r.db.WithContext(ctx).Order("name ASC").Find(&galleries).Error
	if err != nil {
		return nil, err
	}
	return galleries, nil
}

func (r *galleryRepository) ListTrashed(ctx context.Context) ([]*domain.Gallery, error) {
	var galleries []*domain.Gallery
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&galleries).Error
	if err != nil {
		return nil, err
	}
	return galleries, nil
}

func (r *galleryRepository) DeleteAndPromoteChildren(ctx context.Context, id uuid.UUID) (int64, *domain.Gallery, error) {
	var (
		node     domain.Gallery
		promoted int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&node, "id = ?", id).Error
		if err != nil {
			return mapNotFound(err, domain.ErrGalleryNotFound)
		}

		// Only active children are reported as promoted.
		err = tx.Model(&domain.Gallery{}).Where("parent_id = ?", id).Count(&promoted).Error
		if err != nil {
			return err
		}

		// Trashed children move too, so a later restore finds a sane parent.
		err = tx.Unscoped().Model(&domain.Gallery{}).
			Where("parent_id = ?", id).
			Updates(map[string]any{
				"parent_id": nullableID(node.ParentID),
				"version":   gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&domain.Gallery{}, "id = ?", id).Error
	})
	if err != nil {
		return 0, nil, err
	}
	return promoted, &node, nil
}

func (r *galleryRepository) PermanentlyDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var node domain.Gallery
		err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).First(&node, "id = ?", id).Error
		if err != nil {
			return mapNotFound(err, domain.ErrGalleryNotFound)
		}
		if !node.IsTrashed() {
			return domain.ErrNotInTrash
		}

		if err := tx.Where("gallery_id = ?", id).Delete(&galleryImage{}).Error; err != nil {
			return err
		}
		err = tx.Unscoped().Model(&domain.Gallery{}).
			Where("parent_id = ?", id).
			Update("parent_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Unscoped().Delete(&domain.Gallery{}, "id = ?", id).Error
	})
}

func (r *galleryRepository) Restore(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().
		Model(&domain.Gallery{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{
			"deleted_at": nil,
			"parent_id":  nullableID(parentID),
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetAny(ctx, id); err != nil {
		return err
	}
	return domain.ErrNotInTrash
}

func (r *galleryRepository) AttachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	link := galleryImage{GalleryID: galleryID, ImageID: imageID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

func (r *galleryRepository) DetachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("gallery_id = ? AND image_id = ?", galleryID, imageID).
		Delete(&galleryImage{}).Error
}

func (r *galleryRepository) ListImages(ctx context.Context, galleryID uuid.UUID) ([]*domain.Image, error) {
	var images []*domain.Image
	err := r.db.WithContext(ctx).
		Joins("JOIN gallery_images ON gallery_images.image_id = images.id").
		Where("gallery_images.gallery_id = ?", galleryID).
		Order("images.created_at ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}
