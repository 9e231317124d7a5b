package domain

import "errors"

// Lookup errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrArticleNotFound  = errors.New("article not found")
	ErrImageNotFound    = errors.New("image not found")
	ErrGalleryNotFound  = errors.New("gallery not found")
)

// Gallery tree errors
var (
	ErrStaleTree  = errors.New("gallery was changed by someone else, reload and try again")
	ErrNotInTrash = errors.New("gallery must be in the trash before it can be erased")
)

// Content errors
var (
	ErrSlugTaken     = errors.New("slug already in use")
	ErrInvalidStatus = errors.New("invalid article status")
	ErrEmptyTitle    = errors.New("title is required")
	ErrEmptyName     = errors.New("name is required")
)
