package gormstore

import (
	"context"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *imageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	var image domain.Image
	err := r.db.WithContext(ctx).First(&image, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrImageNotFound)
	}
	return &image, nil
}

func (r *imageRepository) Update(ctx context.Context, image *domain.Image) error {
	res := r.db.WithContext(ctx).Model(image).Select("title", "filename", "alt_text").Updates(image)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func (r *imageRepository) List(ctx context.Context) ([]*domain.Image, error) {
	var images []*domain.Image
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// SoftDelete trashes the image and unsets it as featured image of every
// gallery, trashed ones included.
func (r *imageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Image{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrImageNotFound
		}
		return tx.Unscoped().Model(&domain.Gallery{}).
			Where("featured_image_id = ?", id).
			Updates(map[string]any{
				"featured_image_id": nil,
				"version":           gorm.Expr("version + 1"),
			}).Error
	})
}

func (r *imageRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Image{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
