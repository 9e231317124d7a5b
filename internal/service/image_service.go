package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/google/uuid"
)

var ErrInvalidFilename = errors.New("filename must be a plain file name")

type ImageService struct {
	imageRepo repository.ImageRepository
	logger    *slog.Logger
}

func NewImageService(imageRepo repository.ImageRepository, logger *slog.Logger) *ImageService {
	return &ImageService{
		imageRepo: imageRepo,
		logger:    logger.With("service", "image"),
	}
}

type ImageInput struct {
	Title    string
	Filename string
	AltText  string
}

func (in ImageInput) normalize() (ImageInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Filename = strings.TrimSpace(in.Filename)
	in.AltText = strings.TrimSpace(in.AltText)
	if in.Title == "" {
		return in, domain.ErrEmptyTitle
	}
	if in.Filename == "" || path.Base(in.Filename) != in.Filename || strings.ContainsAny(in.Filename, `\`) {
		return in, ErrInvalidFilename
	}
	return in, nil
}

// Register records an image the upload pipeline already stored.
func (s *ImageService) Register(ctx context.Context, input ImageInput) (*domain.Image, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	image := &domain.Image{
		Title:    input.Title,
		Filename: input.Filename,
		AltText:  input.AltText,
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		return nil, err
	}
	s.logger.Info("image registered", "image_id", image.ID, "filename", image.Filename)
	return image, nil
}

func (s *ImageService) Update(ctx context.Context, id uuid.UUID, input ImageInput) (*domain.Image, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	image, err := s.imageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	image.Title = input.Title
	image.Filename = input.Filename
	image.AltText = input.AltText
	if err := s.imageRepo.Update(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *ImageService) Get(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	return s.imageRepo.GetByID(ctx, id)
}

func (s *ImageService) List(ctx context.Context) ([]*domain.Image, error) {
	return s.imageRepo.List(ctx)
}

func (s *ImageService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.imageRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("image trashed", "image_id", id)
	return nil
}

// Exists reports whether id names an image that is not in the trash.
func (s *ImageService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.imageRepo.Exists(ctx, id)
}
