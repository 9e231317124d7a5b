package service

import (
	"context"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/markdown"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
)

type ArticleService struct {
	articleRepo  repository.ArticleRepository
	categoryRepo repository.CategoryRepository
	renderer     *markdown.Renderer
	perPage      int
	logger       *slog.Logger
	now          func() time.Time
}

func NewArticleService(
	articleRepo repository.ArticleRepository,
	categoryRepo repository.CategoryRepository,
	renderer *markdown.Renderer,
	perPage int,
	logger *slog.Logger,
) *ArticleService {
	if perPage <= 0 {
		perPage = 10
	}
	return &ArticleService{
		articleRepo:  articleRepo,
		categoryRepo: categoryRepo,
		renderer:     renderer,
		perPage:      perPage,
		logger:       logger.With("service", "article"),
		now:          time.Now,
	}
}

type ArticleInput struct {
	Title      string
	Summary    string
	Body       string
	CategoryID *uuid.UUID
	Tags       []string
	Status     domain.ArticleStatus
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ErrEmptyTitle
	}
	switch in.Status {
	case "", domain.ArticleStatusDraft, domain.ArticleStatusPublished:
		return nil
	default:
		return domain.ErrInvalidStatus
	}
}

func (s *ArticleService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.categoryRepo.GetByID(ctx, *id)
	return err
}

func (s *ArticleService) Create(ctx context.Context, authorID uuid.UUID, input ArticleInput) (*domain.Article, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	slug, err := uniqueSlug(ctx, title, "article", nil, s.articleRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	article := &domain.Article{
		Title:      title,
		Slug:       slug,
		Summary:    strings.TrimSpace(input.Summary),
		Body:       input.Body,
		Status:     domain.ArticleStatusDraft,
		CategoryID: input.CategoryID,
		AuthorID:   authorID,
	}
	article.SetTags(cleanTags(input.Tags))
	if input.Status == domain.ArticleStatusPublished {
		s.publish(article)
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}
	s.logger.Info("article created", "article_id", article.ID, "slug", article.Slug, "status", article.Status)
	return article, nil
}

// Update keeps the slug unless the title changed.
func (s *ArticleService) Update(ctx context.Context, id uuid.UUID, input ArticleInput) (*domain.Article, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title != article.Title {
		slug, err := uniqueSlug(ctx, title, "article", &id, s.articleRepo.SlugExists)
		if err != nil {
			return nil, err
		}
		article.Slug = slug
	}
	article.Title = title
	article.Summary = strings.TrimSpace(input.Summary)
	article.Body = input.Body
	article.CategoryID = input.CategoryID
	article.SetTags(cleanTags(input.Tags))

	switch input.Status {
	case domain.ArticleStatusPublished:
		s.publish(article)
	case domain.ArticleStatusDraft:
		article.Status = domain.ArticleStatusDraft
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// publish keeps the first publication date when an article is republished.
func (s *ArticleService) publish(article *domain.Article) {
	article.Status = domain.ArticleStatusPublished
	if article.PublishedAt == nil {
		now := s.now()
		article.PublishedAt = &now
	}
}

func (s *ArticleService) Publish(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(article)
	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	s.logger.Info("article published", "article_id", id)
	return article, nil
}

func (s *ArticleService) Unpublish(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Status = domain.ArticleStatusDraft
	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	s.logger.Info("article unpublished", "article_id", id)
	return article, nil
}

func (s *ArticleService) Get(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	return s.articleRepo.GetByID(ctx, id)
}

// GetPublished resolves a public article link. Drafts are not found.
func (s *ArticleService) GetPublished(ctx context.Context, slug string) (*domain.Article, error) {
	article, err := s.articleRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished() {
		return nil, domain.ErrArticleNotFound
	}
	return article, nil
}

// ListPublished returns one page of published articles, newest first.
// Pages start at 1.
func (s *ArticleService) ListPublished(ctx context.Context, page int) ([]*domain.Article, error) {
	if page < 1 {
		page = 1
	}
	return s.articleRepo.List(ctx, repository.ArticleFilter{
		Status: domain.ArticleStatusPublished,
		Limit:  s.perPage,
		Offset: (page - 1) * s.perPage,
	})
}

func (s *ArticleService) ListByCategory(ctx context.Context, categorySlug string) (*domain.Category, []*domain.Article, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, err
	}
	articles, err := s.articleRepo.List(ctx, repository.ArticleFilter{
		Status:     domain.ArticleStatusPublished,
		CategoryID: &category.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	return category, articles, nil
}

// ListAll is the back-office listing: every status, no paging.
func (s *ArticleService) ListAll(ctx context.Context) ([]*domain.Article, error) {
	return s.articleRepo.List(ctx, repository.ArticleFilter{})
}

func (s *ArticleService) ListTrashed(ctx context.Context) ([]*domain.Article, error) {
	return s.articleRepo.ListTrashed(ctx)
}

func (s *ArticleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.articleRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("article trashed", "article_id", id)
	return nil
}

func (s *ArticleService) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.articleRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.logger.Info("article restored", "article_id", id)
	return nil
}

// RenderBody turns the article's Markdown into safe HTML.
func (s *ArticleService) RenderBody(article *domain.Article) (template.HTML, error) {
	return s.renderer.RenderHTML(article.Body)
}

// ParseTags splits a comma separated tag field.
func ParseTags(raw string) []string {
	return cleanTags(strings.Split(raw, ","))
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *ArticleService) PerPage() int {
	return s.perPage
}
