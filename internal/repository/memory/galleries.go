package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GalleryRepo struct {
	db *DB
}

func cloneGallery(g *domain.Gallery) *domain.Gallery {
	out := *g
	out.ParentID = copyID(g.ParentID)
	out.FeaturedImageID = copyID(g.FeaturedImageID)
	out.Images = nil
	return &out
}

func (r *GalleryRepo) Create(ctx context.Context, gallery *domain.Gallery) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if gallery.ID == uuid.Nil {
		gallery.ID = uuid.New()
	}
	if _, ok := r.db.galleries[gallery.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if gallery.Version == 0 {
		gallery.Version = 1
	}
	r.db.stamp(&gallery.CreatedAt, &gallery.UpdatedAt)
	r.db.galleries[gallery.ID] = cloneGallery(gallery)
	return nil
}

func (r *GalleryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.galleries[id]
	if !ok || g.IsTrashed() {
		return nil, domain.ErrGalleryNotFound
	}
	return cloneGallery(g), nil
}

func (r *GalleryRepo) GetAny(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.galleries[id]
	if !ok {
		return nil, domain.ErrGalleryNotFound
	}
	return cloneGallery(g), nil
}

func (r *GalleryRepo) Update(ctx context.Context, gallery *domain.Gallery, expectedVersion int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.galleries[gallery.ID]
	if !ok || g.IsTrashed() {
		return domain.ErrGalleryNotFound
	}
	if g.Version != expectedVersion {
		return domain.ErrStaleTree
	}
	g.Name = gallery.Name
	g.Description = gallery.Description
	g.ParentID = copyID(gallery.ParentID)
	g.FeaturedImageID = copyID(gallery.FeaturedImageID)
	g.Version++
	g.UpdatedAt = r.db.now()
	gallery.Version = g.Version
	return nil
}

func (r *GalleryRepo) list(trashed bool) []*domain.Gallery {
	var out []*domain.Gallery
	for _, g := range r.db.galleries {
		if g.IsTrashed() == trashed {
			out = append(out, cloneGallery(g))
		}
	}
	return out
}

func (r *GalleryRepo) ListActive(ctx context.Context) ([]*domain.Gallery, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := r.list(false)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *GalleryRepo) ListTrashed(ctx context.Context) ([]*domain.Gallery, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := r.list(true)
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.Time.After(out[j].DeletedAt.Time) })
	return out, nil
}

func (r *GalleryRepo) DeleteAndPromoteChildren(ctx context.Context, id uuid.UUID) (int64, *domain.Gallery, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	node, ok := r.db.galleries[id]
	if !ok || node.IsTrashed() {
		return 0, nil, domain.ErrGalleryNotFound
	}

	var promoted int64
	for _, g := range r.db.galleries {
		if g.ParentID != nil && *g.ParentID == id {
			g.ParentID = copyID(node.ParentID)
			g.Version++
			if !g.IsTrashed() {
				promoted++
			}
		}
	}
	deleted := cloneGallery(node)
	node.DeletedAt = r.db.trash()
	return promoted, deleted, nil
}

func (r *GalleryRepo) PermanentlyDelete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	node, ok := r.db.galleries[id]
	if !ok {
		return domain.ErrGalleryNotFound
	}
	if !node.IsTrashed() {
		return domain.ErrNotInTrash
	}
	for _, g := range r.db.galleries {
		if g.ParentID != nil && *g.ParentID == id {
			g.ParentID = nil
		}
	}
	delete(r.db.links, id)
	delete(r.db.galleries, id)
	return nil
}

func (r *GalleryRepo) Restore(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	node, ok := r.db.galleries[id]
	if !ok {
		return domain.ErrGalleryNotFound
	}
	if !node.IsTrashed() {
		return domain.ErrNotInTrash
	}
	node.DeletedAt = gorm.DeletedAt{}
	node.ParentID = copyID(parentID)
	node.Version++
	return nil
}

func (r *GalleryRepo) AttachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	set, ok := r.db.links[galleryID]
	if !ok {
		set = make(map[uuid.UUID]time.Time)
		r.db.links[galleryID] = set
	}
	if _, ok := set[imageID]; !ok {
		set[imageID] = r.db.now()
	}
	return nil
}

func (r *GalleryRepo) DetachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.links[galleryID], imageID)
	return nil
}

func (r *GalleryRepo) ListImages(ctx context.Context, galleryID uuid.UUID) ([]*domain.Image, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*domain.Image
	for imageID := range r.db.links[galleryID] {
		img, ok := r.db.images[imageID]
		if !ok || img.DeletedAt.Valid {
			continue
		}
		cp := *img
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
