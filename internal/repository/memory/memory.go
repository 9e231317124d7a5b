// Package memory implements the repository interfaces in process memory,
// for tests and local development without a database.
package memory

import (
	"sync"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DB holds every aggregate behind a single mutex.
type DB struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*domain.User
	sessions   map[uuid.UUID]*domain.Session
	categories map[uuid.UUID]*domain.Category
	articles   map[uuid.UUID]*domain.Article
	images     map[uuid.UUID]*domain.Image
	galleries  map[uuid.UUID]*domain.Gallery
	links      map[uuid.UUID]map[uuid.UUID]time.Time

	now func() time.Time
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:      make(map[uuid.UUID]*domain.User),
		sessions:   make(map[uuid.UUID]*domain.Session),
		categories: make(map[uuid.UUID]*domain.Category),
		articles:   make(map[uuid.UUID]*domain.Article),
		images:     make(map[uuid.UUID]*domain.Image),
		galleries:  make(map[uuid.UUID]*domain.Gallery),
		links:      make(map[uuid.UUID]map[uuid.UUID]time.Time),
		now:        time.Now,
	}
}

// SetClock replaces the time source used for timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

// Repositories returns the repository bundle backed by db.
func (db *DB) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:     &UserRepo{db: db},
		Session:  &SessionRepo{db: db},
		Category: &CategoryRepo{db: db},
		Article:  &ArticleRepo{db: db},
		Image:    &ImageRepo{db: db},
		Gallery:  &GalleryRepo{db: db},
	}
}

// Ensure interfaces are met.
var _ repository.UserRepository = (*UserRepo)(nil)
var _ repository.SessionRepository = (*SessionRepo)(nil)
var _ repository.CategoryRepository = (*CategoryRepo)(nil)
var _ repository.ArticleRepository = (*ArticleRepo)(nil)
var _ repository.ImageRepository = (*ImageRepo)(nil)
var _ repository.GalleryRepository = (*GalleryRepo)(nil)

func (db *DB) stamp(created, updated *time.Time) {
	now := db.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (db *DB) trash() gorm.DeletedAt {
	return gorm.DeletedAt{Time: db.now(), Valid: true}
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
