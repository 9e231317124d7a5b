package service

import (
	"log/slog"

	"github.com/dom/gallery-cms/internal/config"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/markdown"
	"github.com/dom/gallery-cms/internal/repository"
)

type Services struct {
	Auth     *AuthService
	Category *CategoryService
	Article  *ArticleService
	Image    *ImageService
	Gallery  *GalleryService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, logger *slog.Logger) *Services {
	if logger == nil {
		logger = logging.Discard()
	}
	images := NewImageService(repos.Image, logger)
	return &Services{
		Auth:     NewAuthService(repos.User, logger),
		Category: NewCategoryService(repos.Category, logger),
		Article:  NewArticleService(repos.Article, repos.Category, markdown.NewRenderer(), cfg.ArticlesPerPage, logger),
		Image:    images,
		Gallery:  NewGalleryService(repos.Gallery, images, logger),
	}
}
