package service

import (
	"context"
	"fmt"

	"github.com/dom/gallery-cms/internal/slug"
	"github.com/google/uuid"
)

const maxSlugAttempts = 1000

type slugChecker func(ctx context.Context, slug string, exceptID *uuid.UUID) (bool, error)

// uniqueSlug derives a slug from title and appends -2, -3, ... until exists
// reports it free. exceptID lets a record keep its own slug.
func uniqueSlug(ctx context.Context, title, fallback string, exceptID *uuid.UUID, exists slugChecker) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = fallback
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = slug.WithSuffix(base, n)
		}
		taken, err := exists(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}
