package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	logger       *slog.Logger
}

func NewCategoryService(categoryRepo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger.With("service", "category"),
	}
}

type CategoryInput struct {
	Name        string
	Description string
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	slug, err := uniqueSlug(ctx, name, "category", nil, s.categoryRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("category created", "category_id", category.ID, "slug", category.Slug)
	return category, nil
}

// Update renames the category. The slug follows the name so links stay
// readable; the old slug stops resolving.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != category.Name {
		slug, err := uniqueSlug(ctx, name, "category", &id, s.categoryRepo.SlugExists)
		if err != nil {
			return nil, err
		}
		category.Slug = slug
	}
	category.Name = name
	category.Description = strings.TrimSpace(input.Description)

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.categoryRepo.GetBySlug(ctx, slug)
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) ListTrashed(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.ListTrashed(ctx)
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category trashed", "category_id", id)
	return nil
}

func (s *CategoryService) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category restored", "category_id", id)
	return nil
}
