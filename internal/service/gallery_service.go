package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
)

const genericTreeFailure = "The gallery could not be changed. Nothing was saved, please try again."

// ImageChecker answers whether an image can be referenced.
type ImageChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// GalleryService keeps the gallery hierarchy a forest: every structural
// write goes through parent validation, and deletes hand children to the
// grandparent instead of orphaning them.
type GalleryService struct {
	galleryRepo repository.GalleryRepository
	images      ImageChecker
	logger      *slog.Logger
}

func NewGalleryService(galleryRepo repository.GalleryRepository, images ImageChecker, logger *slog.Logger) *GalleryService {
	return &GalleryService{
		galleryRepo: galleryRepo,
		images:      images,
		logger:      logger.With("service", "gallery"),
	}
}

type GalleryInput struct {
	Name            string
	Description     string
	ParentID        *uuid.UUID
	FeaturedImageID *uuid.UUID
	// Version is the version the editor loaded. Zero skips the check.
	Version int
}

// MutationResult reports a create, update or erase. Rejections carry a
// message meant for the editor.
type MutationResult struct {
	Success bool                `json:"success"`
	NodeID  uuid.UUID           `json:"nodeId,omitempty"`
	Reason  domain.ParentReason `json:"reason,omitempty"`
	Message string              `json:"message,omitempty"`
}

type DeleteResult struct {
	Success       bool   `json:"success"`
	PromotedCount int64  `json:"promotedCount"`
	NodeName      string `json:"nodeName,omitempty"`
	Message       string `json:"message,omitempty"`
}

func rejected(v domain.ParentValidation) MutationResult {
	return MutationResult{Success: false, Reason: v.Reason, Message: v.Message()}
}

func (s *GalleryService) forest(ctx context.Context) (*domain.Forest, error) {
	nodes, err := s.galleryRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewForest(nodes), nil
}

// ValidateParentAssignment checks whether candidateParentID may become the
// parent of forNodeID. A nil forNodeID means a node that does not exist
// yet; a nil candidate means the root level and is always allowed.
func (s *GalleryService) ValidateParentAssignment(ctx context.Context, candidateParentID, forNodeID *uuid.UUID) (domain.ParentValidation, error) {
	if candidateParentID == nil {
		return domain.ValidParent(), nil
	}
	if forNodeID != nil && *candidateParentID == *forNodeID {
		return domain.InvalidParent(domain.ReasonSelfParent), nil
	}

	active, err := s.galleryRepo.ListActive(ctx)
	if err != nil {
		return domain.ParentValidation{}, err
	}
	trashed, err := s.galleryRepo.ListTrashed(ctx)
	if err != nil {
		return domain.ParentValidation{}, err
	}
	return validateIn(domain.NewForest(active), domain.NewForest(slices.Concat(active, trashed)),
		*candidateParentID, forNodeID), nil
}

// validateIn walks the parent chain over every stored node, trashed ones
// included, so a cycle through the trash is still reported as circular.
// Only active nodes can be chosen as parent.
func validateIn(active, all *domain.Forest, candidate uuid.UUID, forNodeID *uuid.UUID) domain.ParentValidation {
	if forNodeID != nil && all.ChainReaches(candidate, *forNodeID) {
		return domain.InvalidParent(domain.ReasonCircular)
	}
	if _, ok := active.Get(candidate); !ok {
		return domain.InvalidParent(domain.ReasonParentNotFound)
	}
	return domain.ValidParent()
}

// AllowedParents lists the active galleries forNodeID could be moved
// under: everything except the node itself and its descendants.
func (s *GalleryService) AllowedParents(ctx context.Context, forNodeID *uuid.UUID) ([]*domain.Gallery, error) {
	entries, err := s.ParentOptions(ctx, forNodeID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Gallery, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Gallery)
	}
	return out, nil
}

// ParentOptions is AllowedParents in tree order with depth, for select
// boxes.
func (s *GalleryService) ParentOptions(ctx context.Context, forNodeID *uuid.UUID) ([]domain.TreeEntry, error) {
	forest, err := s.forest(ctx)
	if err != nil {
		return nil, err
	}
	all := forest.Flatten()
	if forNodeID == nil {
		return all, nil
	}
	out := make([]domain.TreeEntry, 0, len(all))
	for _, e := range all {
		if forest.ChainReaches(e.Gallery.ID, *forNodeID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *GalleryService) validateFeaturedImage(ctx context.Context, id *uuid.UUID) (domain.ParentValidation, error) {
	if id == nil {
		return domain.ValidParent(), nil
	}
	ok, err := s.images.Exists(ctx, *id)
	if err != nil {
		return domain.ParentValidation{}, err
	}
	if !ok {
		return domain.InvalidParent(domain.ReasonImageNotFound), nil
	}
	return domain.ValidParent(), nil
}

func (s *GalleryService) CreateWithValidation(ctx context.Context, input GalleryInput) (MutationResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return MutationResult{Message: "Name is required."}, nil
	}

	v, err := s.ValidateParentAssignment(ctx, input.ParentID, nil)
	if err != nil {
		return MutationResult{}, err
	}
	if !v.Valid {
		return rejected(v), nil
	}
	if v, err = s.validateFeaturedImage(ctx, input.FeaturedImageID); err != nil || !v.Valid {
		return rejected(v), err
	}

	gallery := &domain.Gallery{
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		ParentID:        input.ParentID,
		FeaturedImageID: input.FeaturedImageID,
	}
	if err := s.galleryRepo.Create(ctx, gallery); err != nil {
		return MutationResult{}, err
	}

	s.logger.Info("gallery created", "gallery_id", gallery.ID, "parent_id", gallery.ParentID)
	return MutationResult{Success: true, NodeID: gallery.ID}, nil
}

// UpdateWithValidation applies input to gallery id. A concurrent change
// to the same gallery since input.Version was read yields
// domain.ErrStaleTree.
func (s *GalleryService) UpdateWithValidation(ctx context.Context, id uuid.UUID, input GalleryInput) (MutationResult, error) {
	current, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return MutationResult{NodeID: id, Message: "Name is required."}, nil
	}

	v, err := s.ValidateParentAssignment(ctx, input.ParentID, &id)
	if err != nil {
		return MutationResult{}, err
	}
	if !v.Valid {
		s.logger.Info("gallery parent rejected", "gallery_id", id, "parent_id", input.ParentID, "reason", v.Reason)
		res := rejected(v)
		res.NodeID = id
		return res, nil
	}
	if v, err = s.validateFeaturedImage(ctx, input.FeaturedImageID); err != nil || !v.Valid {
		res := rejected(v)
		res.NodeID = id
		return res, err
	}

	expected := input.Version
	if expected == 0 {
		expected = current.Version
	}
	current.Name = name
	current.Description = strings.TrimSpace(input.Description)
	current.ParentID = input.ParentID
	current.FeaturedImageID = input.FeaturedImageID

	if err := s.galleryRepo.Update(ctx, current, expected); err != nil {
		if errors.Is(err, domain.ErrStaleTree) {
			s.logger.Warn("stale gallery update", "gallery_id", id, "version", expected)
		}
		return MutationResult{}, err
	}
	return MutationResult{Success: true, NodeID: id}, nil
}

// DeleteAndPromoteChildren trashes id after moving its children up to
// its parent. Storage faults are logged and reported as a failed result;
// the transaction guarantees nothing was changed.
func (s *GalleryService) DeleteAndPromoteChildren(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	promoted, node, err := s.galleryRepo.DeleteAndPromoteChildren(ctx, id)
	switch {
	case errors.Is(err, domain.ErrGalleryNotFound):
		return DeleteResult{Message: "The gallery does not exist or is already in the trash."}, nil
	case err != nil:
		s.logger.Error("gallery delete rolled back", "gallery_id", id, logging.Err(err))
		return DeleteResult{Message: genericTreeFailure}, nil
	}

	s.logger.Info("gallery trashed", "gallery_id", id, "promoted", promoted, "new_parent_id", node.ParentID)
	return DeleteResult{Success: true, PromotedCount: promoted, NodeName: node.Name}, nil
}

// PermanentlyDelete erases a gallery from the trash together with its
// image links. There is no undo.
func (s *GalleryService) PermanentlyDelete(ctx context.Context, id uuid.UUID) (MutationResult, error) {
	err := s.galleryRepo.PermanentlyDelete(ctx, id)
	switch {
	case errors.Is(err, domain.ErrGalleryNotFound):
		return MutationResult{NodeID: id, Message: "The gallery does not exist."}, nil
	case errors.Is(err, domain.ErrNotInTrash):
		return MutationResult{NodeID: id, Message: "Only galleries in the trash can be erased."}, nil
	case err != nil:
		s.logger.Error("gallery erase rolled back", "gallery_id", id, logging.Err(err))
		return MutationResult{NodeID: id, Message: genericTreeFailure}, nil
	}

	s.logger.Info("gallery erased", "gallery_id", id)
	return MutationResult{Success: true, NodeID: id}, nil
}

// Restore takes id out of the trash. When the stored parent is no longer
// an active gallery the node comes back at the root level instead of
// pointing at a parent nobody can see.
func (s *GalleryService) Restore(ctx context.Context, id uuid.UUID) (bool, error) {
	node, err := s.galleryRepo.GetAny(ctx, id)
	if errors.Is(err, domain.ErrGalleryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !node.IsTrashed() {
		return false, nil
	}

	parentID := node.ParentID
	if parentID != nil {
		if _, err := s.galleryRepo.GetByID(ctx, *parentID); err != nil {
			if !errors.Is(err, domain.ErrGalleryNotFound) {
				return false, err
			}
			s.logger.Warn("restored gallery lost its parent, moving to root",
				"gallery_id", id, "former_parent_id", *parentID)
			parentID = nil
		}
	}

	if err := s.galleryRepo.Restore(ctx, id, parentID); err != nil {
		if errors.Is(err, domain.ErrNotInTrash) || errors.Is(err, domain.ErrGalleryNotFound) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("gallery restored", "gallery_id", id, "parent_id", parentID)
	return true, nil
}

func (s *GalleryService) Get(ctx context.Context, id uuid.UUID) (*domain.Gallery, error) {
	return s.galleryRepo.GetByID(ctx, id)
}

// GalleryNode is one gallery with its subtree, for nested listings.
type GalleryNode struct {
	Gallery  *domain.Gallery
	Children []*GalleryNode
}

func (s *GalleryService) Tree(ctx context.Context) ([]*GalleryNode, error) {
	forest, err := s.forest(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, forest.Len())
	var build func(g *domain.Gallery) *GalleryNode
	build = func(g *domain.Gallery) *GalleryNode {
		seen[g.ID] = true
		n := &GalleryNode{Gallery: g}
		for _, c := range forest.Children(g.ID) {
			if !seen[c.ID] {
				n.Children = append(n.Children, build(c))
			}
		}
		return n
	}
	roots := make([]*GalleryNode, 0, len(forest.Roots()))
	for _, r := range forest.Roots() {
		roots = append(roots, build(r))
	}
	return roots, nil
}

// Flatten lists every active gallery depth first, with depth.
func (s *GalleryService) Flatten(ctx context.Context) ([]domain.TreeEntry, error) {
	forest, err := s.forest(ctx)
	if err != nil {
		return nil, err
	}
	return forest.Flatten(), nil
}

func (s *GalleryService) Trash(ctx context.Context) ([]*domain.Gallery, error) {
	return s.galleryRepo.ListTrashed(ctx)
}

// GalleryPage is everything the public gallery page shows.
type GalleryPage struct {
	Gallery   *domain.Gallery
	Ancestors []*domain.Gallery
	Children  []*domain.Gallery
	Images    []*domain.Image
}

func (s *GalleryService) Page(ctx context.Context, id uuid.UUID) (*GalleryPage, error) {
	forest, err := s.forest(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := forest.Get(id)
	if !ok {
		return nil, domain.ErrGalleryNotFound
	}
	images, err := s.galleryRepo.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors := forest.Ancestors(id)
	// Breadcrumbs run root first.
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}
	return &GalleryPage{
		Gallery:   g,
		Ancestors: ancestors,
		Children:  forest.Children(id),
		Images:    images,
	}, nil
}

func (s *GalleryService) AttachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	if _, err := s.galleryRepo.GetByID(ctx, galleryID); err != nil {
		return err
	}
	ok, err := s.images.Exists(ctx, imageID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrImageNotFound
	}
	return s.galleryRepo.AttachImage(ctx, galleryID, imageID)
}

func (s *GalleryService) DetachImage(ctx context.Context, galleryID, imageID uuid.UUID) error {
	return s.galleryRepo.DetachImage(ctx, galleryID, imageID)
}

func (s *GalleryService) Images(ctx context.Context, galleryID uuid.UUID) ([]*domain.Image, error) {
	return s.galleryRepo.ListImages(ctx, galleryID)
}
