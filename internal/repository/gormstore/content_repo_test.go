package gormstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/dom/gallery-cms/internal/repository/gormstore"
	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCategoryRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormstore.NewCategoryRepository(testDB.DB)
	ctx := context.Background()

	cat := &domain.Category{Name: "News", Slug: "news"}
	require.NoError(t, repo.Create(ctx, cat))

	got, err := repo.GetBySlug(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)

	cat.Description = "Latest"
	require.NoError(t, repo.Update(ctx, cat))
	got, err = repo.GetByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Latest", got.Description)

	require.NoError(t, repo.SoftDelete(ctx, cat.ID))
	_, err = repo.GetByID(ctx, cat.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	taken, err := repo.SlugExists(ctx, "news", nil)
	require.NoError(t, err)
	assert.True(t, taken, "trashed categories keep their slug")

	trash, err := repo.ListTrashed(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	require.NoError(t, repo.Restore(ctx, cat.ID))
	assert.ErrorIs(t, repo.Restore(ctx, cat.ID), domain.ErrCategoryNotFound)
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.SoftDelete(ctx, uuid.New()), domain.ErrCategoryNotFound)
}

func TestArticleRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := gormstore.NewRepositories(testDB.DB)
	ctx := context.Background()

	author := &domain.User{Username: "writer", PasswordHash: "hash"}
	require.NoError(t, repos.User.Create(ctx, author))
	cat := &domain.Category{Name: "Events", Slug: "events"}
	require.NoError(t, repos.Category.Create(ctx, cat))

	older := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	newer := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	articles := []*domain.Article{
		{Title: "Old", Slug: "old", Status: domain.ArticleStatusPublished, PublishedAt: &older, AuthorID: author.ID, CategoryID: &cat.ID},
		{Title: "New", Slug: "new", Status: domain.ArticleStatusPublished, PublishedAt: &newer, AuthorID: author.ID,
			Tags: datatypes.JSON(`["a","b"]`)},
		{Title: "Draft", Slug: "draft", Status: domain.ArticleStatusDraft, AuthorID: author.ID},
	}
	for _, a := range articles {
		require.NoError(t, repos.Article.Create(ctx, a))
	}

	tests := []struct {
		name   string
		filter repository.ArticleFilter
		want   []string
	}{
		{
			name:   "published newest first",
			filter: repository.ArticleFilter{Status: domain.ArticleStatusPublished},
			want:   []string{"new", "old"},
		},
		{
			name:   "paged",
			filter: repository.ArticleFilter{Status: domain.ArticleStatusPublished, Limit: 1, Offset: 1},
			want:   []string{"old"},
		},
		{
			name:   "by category",
			filter: repository.ArticleFilter{CategoryID: &cat.ID},
			want:   []string{"old"},
		},
		{
			name:   "drafts",
			filter: repository.ArticleFilter{Status: domain.ArticleStatusDraft},
			want:   []string{"draft"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repos.Article.List(ctx, tt.filter)
			require.NoError(t, err)
			slugs := make([]string, 0, len(got))
			for _, a := range got {
				slugs = append(slugs, a.Slug)
			}
			assert.Equal(t, tt.want, slugs)
		})
	}

	t.Run("get by slug preloads relations", func(t *testing.T) {
		got, err := repos.Article.GetBySlug(ctx, "old")
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, "Events", got.Category.Name)
		require.NotNil(t, got.Author)
		assert.Equal(t, "writer", got.Author.Username)

		got, err = repos.Article.GetBySlug(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.TagList())
	})

	t.Run("update and trash", func(t *testing.T) {
		draft := articles[2]
		draft.Title = "Draft v2"
		draft.Status = domain.ArticleStatusPublished
		now := time.Now().UTC().Truncate(time.Second)
		draft.PublishedAt = &now
		require.NoError(t, repos.Article.Update(ctx, draft))

		got, err := repos.Article.GetByID(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, "Draft v2", got.Title)
		assert.True(t, got.IsPublished())

		require.NoError(t, repos.Article.SoftDelete(ctx, draft.ID))
		_, err = repos.Article.GetBySlug(ctx, "draft")
		assert.ErrorIs(t, err, domain.ErrArticleNotFound)

		taken, err := repos.Article.SlugExists(ctx, "draft", nil)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repos.Article.SlugExists(ctx, "draft", &draft.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		trash, err := repos.Article.ListTrashed(ctx)
		require.NoError(t, err)
		require.Len(t, trash, 1)
		require.NoError(t, repos.Article.Restore(ctx, draft.ID))
	})
}

func TestImageRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := gormstore.NewImageRepository(testDB.DB)
	ctx := context.Background()

	img := &domain.Image{Title: "Sunset", Filename: "sunset.jpg"}
	require.NoError(t, repo.Create(ctx, img))

	exists, err := repo.Exists(ctx, img.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	img.AltText = "orange sky"
	require.NoError(t, repo.Update(ctx, img))
	got, err := repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "orange sky", got.AltText)

	galleries := gormstore.NewGalleryRepository(testDB.DB)
	featured := &domain.Gallery{Name: "Featured", FeaturedImageID: &img.ID}
	require.NoError(t, galleries.Create(ctx, featured))

	require.NoError(t, repo.SoftDelete(ctx, img.ID))
	g, err := galleries.GetByID(ctx, featured.ID)
	require.NoError(t, err)
	assert.Nil(t, g.FeaturedImageID, "a trashed image is no longer featured")
	assert.Equal(t, 2, g.Version)

	exists, err = repo.Exists(ctx, img.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.ErrorIs(t, repo.SoftDelete(ctx, img.ID), domain.ErrImageNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
