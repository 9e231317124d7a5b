package repository

import (
	"context"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type SessionRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	ListTrashed(ctx context.Context) ([]*domain.Category, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error)
}

type ArticleFilter struct {
	Status     domain.ArticleStatus
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	Update(ctx context.Context, article *domain.Article) error
	List(ctx context.Context, filter ArticleFilter) ([]*domain.Article, error)
	ListTrashed(ctx context.Context) ([]*domain.Article, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *domain.Image) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error)
	Update(ctx context.Context, image *domain.Image) error
	List(ctx context.Context) ([]*domain.Image, error)
	// SoftDelete also unsets the image wherever it is a gallery's
	// featured image.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Exists reports whether id is an image that is not soft-deleted.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type GalleryRepository interface {
	Create(ctx context.Context, gallery *domain.Gallery) error
	// GetByID returns an active gallery.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error)
	// GetAny returns the gallery whether or not it is in the trash.
	GetAny(ctx context.Context, id uuid.UUID) (*domain.Gallery, error)
	// Update writes gallery if its stored version equals expectedVersion and
	// bumps the version; otherwise it returns domain.ErrStaleTree.
	Update(ctx context.Context, gallery *domain.Gallery, expectedVersion int) error
	ListActive(ctx context.Context) ([]*domain.Gallery, error)
	ListTrashed(ctx context.Context) ([]*domain.Gallery, error)
	// DeleteAndPromoteChildren moves every direct child of id to id's parent
	// and soft-deletes id, all in one transaction. It returns the number of
	// children moved and the deleted gallery.
	DeleteAndPromoteChildren(ctx context.Context, id uuid.UUID) (int64, *domain.Gallery, error)
	// PermanentlyDelete erases a trashed gallery and its image links in one
	// transaction.
	PermanentlyDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	AttachImage(ctx context.Context, galleryID, imageID uuid.UUID) error
	DetachImage(ctx context.Context, galleryID, imageID uuid.UUID) error
	ListImages(ctx context.Context, galleryID uuid.UUID) ([]*domain.Image, error)
}

type Repositories struct {
	User     UserRepository
	Session  SessionRepository
	Category CategoryRepository
	Article  ArticleRepository
	Image    ImageRepository
	Gallery  GalleryRepository
}
