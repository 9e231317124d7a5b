package gormstore

import (
	"context"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *articleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	return r.db.WithContext(ctx).Omit("Category", "Author").Create(article).Error
}

func (r *articleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	var article domain.Article
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Author").
		First(&article, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrArticleNotFound)
	}
	return &article, nil
}

func (r *articleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	var article domain.Article
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Author").
		First(&article, "slug = ?", slug).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrArticleNotFound)
	}
	return &article, nil
}

func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	res := r.db.WithContext(ctx).
		Model(article).
		Select("title", "slug", "summary", "body", "status", "category_id", "tags", "published_at").
		Updates(article)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

func (r *articleRepository) List(ctx context.Context, filter repository.ArticleFilter) ([]*domain.Article, error) {
	q := r.db.WithContext(ctx).Preload("Category").Preload("Author")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var articles []*domain.Article
	err := q.Order("published_at DESC").Order("created_at DESC").Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) ListTrashed(ctx context.Context) ([]*domain.Article, error) {
	var articles []*domain.Article
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Article{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

func (r *articleRepository) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().
		Model(&domain.Article{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

func (r *articleRepository) SlugExists(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Unscoped().Model(&domain.Article{}).Where("slug = ?", slug)
	if exceptID != nil {
		q = q.Where("id <> ?", *exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
