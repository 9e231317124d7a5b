package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- CategoryRepository ---

type CategoryRepo struct {
	db *DB
}

func (r *CategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.categories {
		if c.Slug == category.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.db.stamp(&category.CreatedAt, &category.UpdatedAt)
	c := *category
	r.db.categories[c.ID] = &c
	return nil
}

func (r *CategoryRepo) get(id uuid.UUID, trashed bool) (*domain.Category, bool) {
	c, ok := r.db.categories[id]
	if !ok || c.DeletedAt.Valid != trashed {
		return nil, false
	}
	return c, true
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.get(id, false)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	out := *c
	return &out, nil
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.categories {
		if c.Slug == slug && !c.DeletedAt.Valid {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *CategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.get(category.ID, false)
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.Name = category.Name
	c.Slug = category.Slug
	c.Description = category.Description
	c.UpdatedAt = r.db.now()
	return nil
}

func (r *CategoryRepo) list(trashed bool) []*domain.Category {
	var out []*domain.Category
	for _, c := range r.db.categories {
		if c.DeletedAt.Valid == trashed {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (r *CategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := r.list(false)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepo) ListTrashed(ctx context.Context) ([]*domain.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := r.list(true)
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.Time.After(out[j].DeletedAt.Time) })
	return out, nil
}

func (r *CategoryRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.get(id, false)
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.DeletedAt = r.db.trash()
	return nil
}

func (r *CategoryRepo) Restore(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.get(id, true)
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (r *CategoryRepo) SlugExists(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.categories {
		if c.Slug == slug && (exceptID == nil || c.ID != *exceptID) {
			return true, nil
		}
	}
	return false, nil
}

// --- ArticleRepository ---

type ArticleRepo struct {
	db *DB
}

func (r *ArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, a := range r.db.articles {
		if a.Slug == article.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	r.db.stamp(&article.CreatedAt, &article.UpdatedAt)
	a := *article
	a.Category, a.Author = nil, nil
	a.Tags = slices.Clone(article.Tags)
	r.db.articles[a.ID] = &a
	return nil
}

// hydrate copies a and fills the relations, the way the gorm store preloads
// them.
func (r *ArticleRepo) hydrate(a *domain.Article) *domain.Article {
	out := *a
	out.Tags = slices.Clone(a.Tags)
	out.CategoryID = copyID(a.CategoryID)
	if a.CategoryID != nil {
		if c, ok := r.db.categories[*a.CategoryID]; ok && !c.DeletedAt.Valid {
			cp := *c
			out.Category = &cp
		}
	}
	if u, ok := r.db.users[a.AuthorID]; ok {
		cp := *u
		out.Author = &cp
	}
	return &out
}

func (r *ArticleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.articles[id]
	if !ok || a.DeletedAt.Valid {
		return nil, domain.ErrArticleNotFound
	}
	return r.hydrate(a), nil
}

func (r *ArticleRepo) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, a := range r.db.articles {
		if a.Slug == slug && !a.DeletedAt.Valid {
			return r.hydrate(a), nil
		}
	}
	return nil, domain.ErrArticleNotFound
}

func (r *ArticleRepo) Update(ctx context.Context, article *domain.Article) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.articles[article.ID]
	if !ok || a.DeletedAt.Valid {
		return domain.ErrArticleNotFound
	}
	a.Title = article.Title
	a.Slug = article.Slug
	a.Summary = article.Summary
	a.Body = article.Body
	a.Status = article.Status
	a.CategoryID = copyID(article.CategoryID)
	a.Tags = slices.Clone(article.Tags)
	a.PublishedAt = article.PublishedAt
	a.UpdatedAt = r.db.now()
	return nil
}

func (r *ArticleRepo) List(ctx context.Context, filter repository.ArticleFilter) ([]*domain.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*domain.Article
	for _, a := range r.db.articles {
		if a.DeletedAt.Valid {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, r.hydrate(a))
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].Slug, out[j].Slug) < 0
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ArticleRepo) ListTrashed(ctx context.Context) ([]*domain.Article, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*domain.Article
	for _, a := range r.db.articles {
		if a.DeletedAt.Valid {
			out = append(out, r.hydrate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.Time.After(out[j].DeletedAt.Time) })
	return out, nil
}

func (r *ArticleRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.articles[id]
	if !ok || a.DeletedAt.Valid {
		return domain.ErrArticleNotFound
	}
	a.DeletedAt = r.db.trash()
	return nil
}

func (r *ArticleRepo) Restore(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.articles[id]
	if !ok || !a.DeletedAt.Valid {
		return domain.ErrArticleNotFound
	}
	a.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (r *ArticleRepo) SlugExists(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, a := range r.db.articles {
		if a.Slug == slug && (exceptID == nil || a.ID != *exceptID) {
			return true, nil
		}
	}
	return false, nil
}

// --- ImageRepository ---

type ImageRepo struct {
	db *DB
}

func (r *ImageRepo) Create(ctx context.Context, image *domain.Image) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	r.db.stamp(&image.CreatedAt, &image.UpdatedAt)
	i := *image
	r.db.images[i.ID] = &i
	return nil
}

func (r *ImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i, ok := r.db.images[id]
	if !ok || i.DeletedAt.Valid {
		return nil, domain.ErrImageNotFound
	}
	out := *i
	return &out, nil
}

func (r *ImageRepo) Update(ctx context.Context, image *domain.Image) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i, ok := r.db.images[image.ID]
	if !ok || i.DeletedAt.Valid {
		return domain.ErrImageNotFound
	}
	i.Title = image.Title
	i.Filename = image.Filename
	i.AltText = image.AltText
	i.UpdatedAt = r.db.now()
	return nil
}

func (r *ImageRepo) List(ctx context.Context) ([]*domain.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*domain.Image
	for _, i := range r.db.images {
		if !i.DeletedAt.Valid {
			cp := *i
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ImageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i, ok := r.db.images[id]
	if !ok || i.DeletedAt.Valid {
		return domain.ErrImageNotFound
	}
	i.DeletedAt = r.db.trash()
	for _, g := range r.db.galleries {
		if g.FeaturedImageID != nil && *g.FeaturedImageID == id {
			g.FeaturedImageID = nil
			g.Version++
		}
	}
	return nil
}

func (r *ImageRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i, ok := r.db.images[id]
	return ok && !i.DeletedAt.Valid, nil
}
