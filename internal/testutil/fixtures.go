package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/dom/gallery-cms/internal/slug"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
	role     domain.Role
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
		role:     domain.RoleEditor,
	}
}

func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, repos *repository.Repositories) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		Role:         b.role,
	}
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user, b.password
}

// CategoryBuilder creates test categories
type CategoryBuilder struct {
	name string
}

func NewCategoryBuilder() *CategoryBuilder {
	return &CategoryBuilder{name: fmt.Sprintf("Category %s", uuid.New().String()[:8])}
}

func (b *CategoryBuilder) WithName(name string) *CategoryBuilder {
	b.name = name
	return b
}

func (b *CategoryBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Category {
	t.Helper()

	category := &domain.Category{
		ID:   uuid.New(),
		Name: b.name,
		Slug: slug.Make(b.name),
	}
	if err := repos.Category.Create(context.Background(), category); err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category
}

// ArticleBuilder creates test articles. Without an author it creates one.
type ArticleBuilder struct {
	title       string
	body        string
	status      domain.ArticleStatus
	category    *domain.Category
	author      *domain.User
	publishedAt *time.Time
	tags        []string
}

func NewArticleBuilder() *ArticleBuilder {
	return &ArticleBuilder{
		title:  fmt.Sprintf("Article %s", uuid.New().String()[:8]),
		body:   "Some *markdown* body.",
		status: domain.ArticleStatusDraft,
	}
}

func (b *ArticleBuilder) WithTitle(title string) *ArticleBuilder {
	b.title = title
	return b
}

func (b *ArticleBuilder) WithBody(body string) *ArticleBuilder {
	b.body = body
	return b
}

func (b *ArticleBuilder) WithCategory(category *domain.Category) *ArticleBuilder {
	b.category = category
	return b
}

func (b *ArticleBuilder) WithAuthor(author *domain.User) *ArticleBuilder {
	b.author = author
	return b
}

func (b *ArticleBuilder) WithTags(tags ...string) *ArticleBuilder {
	b.tags = tags
	return b
}

// Published marks the article published at the given time.
func (b *ArticleBuilder) Published(at time.Time) *ArticleBuilder {
	b.status = domain.ArticleStatusPublished
	b.publishedAt = &at
	return b
}

func (b *ArticleBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Article {
	t.Helper()

	if b.author == nil {
		b.author, _ = NewUserBuilder().Build(t, repos)
	}

	article := &domain.Article{
		ID:          uuid.New(),
		Title:       b.title,
		Slug:        slug.Make(b.title),
		Body:        b.body,
		Status:      b.status,
		AuthorID:    b.author.ID,
		PublishedAt: b.publishedAt,
	}
	article.SetTags(b.tags)
	if b.category != nil {
		article.CategoryID = &b.category.ID
	}
	if err := repos.Article.Create(context.Background(), article); err != nil {
		t.Fatalf("failed to create article: %v", err)
	}
	return article
}

// ImageBuilder creates test image records
type ImageBuilder struct {
	title    string
	filename string
}

func NewImageBuilder() *ImageBuilder {
	id := uuid.New().String()[:8]
	return &ImageBuilder{
		title:    "Image " + id,
		filename: id + ".jpg",
	}
}

func (b *ImageBuilder) WithTitle(title string) *ImageBuilder {
	b.title = title
	return b
}

func (b *ImageBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Image {
	t.Helper()

	image := &domain.Image{
		ID:       uuid.New(),
		Title:    b.title,
		Filename: b.filename,
	}
	if err := repos.Image.Create(context.Background(), image); err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	return image
}

// GalleryBuilder creates test galleries directly in storage, skipping
// parent validation.
type GalleryBuilder struct {
	name   string
	parent *domain.Gallery
}

func NewGalleryBuilder() *GalleryBuilder {
	return &GalleryBuilder{name: fmt.Sprintf("Gallery %s", uuid.New().String()[:8])}
}

func (b *GalleryBuilder) WithName(name string) *GalleryBuilder {
	b.name = name
	return b
}

func (b *GalleryBuilder) WithParent(parent *domain.Gallery) *GalleryBuilder {
	b.parent = parent
	return b
}

func (b *GalleryBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Gallery {
	t.Helper()

	gallery := &domain.Gallery{
		ID:      uuid.New(),
		Name:    b.name,
		Version: 1,
	}
	if b.parent != nil {
		gallery.ParentID = &b.parent.ID
	}
	if err := repos.Gallery.Create(context.Background(), gallery); err != nil {
		t.Fatalf("failed to create gallery: %v", err)
	}
	return gallery
}

// SeedGalleryChain creates count galleries, each the child of the previous
// one, and returns them root first.
func SeedGalleryChain(t *testing.T, repos *repository.Repositories, count int) []*domain.Gallery {
	t.Helper()

	chain := make([]*domain.Gallery, count)
	var parent *domain.Gallery
	for i := range count {
		chain[i] = NewGalleryBuilder().
			WithName(fmt.Sprintf("Level %d", i)).
			WithParent(parent).
			Build(t, repos)
		parent = chain[i]
	}
	return chain
}
