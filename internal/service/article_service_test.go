package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/markdown"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/dom/gallery-cms/internal/repository/memory"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleService(t *testing.T, perPage int) (*service.ArticleService, *repository.Repositories) {
	t.Helper()
	repos := memory.New().Repositories()
	return service.NewArticleService(repos.Article, repos.Category, markdown.NewRenderer(), perPage, logging.Discard()), repos
}

func TestArticleService_Create(t *testing.T) {
	svc, repos := newArticleService(t, 10)
	ctx := context.Background()
	author, _ := testutil.NewUserBuilder().Build(t, repos)
	category := testutil.NewCategoryBuilder().Build(t, repos)

	tests := []struct {
		name     string
		input    service.ArticleInput
		wantSlug string
		wantErr  error
	}{
		{"first article", service.ArticleInput{Title: "Hello World"}, "hello-world", nil},
		{"same title gets a suffix", service.ArticleInput{Title: "Hello, world!"}, "hello-world-2", nil},
		{"and again", service.ArticleInput{Title: "hello world"}, "hello-world-3", nil},
		{"only punctuation falls back", service.ArticleInput{Title: "!!!"}, "article", nil},
		{"with category", service.ArticleInput{Title: "Filed", CategoryID: &category.ID}, "filed", nil},
		{"blank title", service.ArticleInput{Title: " "}, "", domain.ErrEmptyTitle},
		{"bad status", service.ArticleInput{Title: "X", Status: "archived"}, "", domain.ErrInvalidStatus},
		{"unknown category", service.ArticleInput{Title: "X", CategoryID: ptr(uuid.New())}, "", domain.ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := svc.Create(ctx, author.ID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, article.Slug)
			assert.Equal(t, domain.ArticleStatusDraft, article.Status)
			assert.Nil(t, article.PublishedAt)
		})
	}
}

func TestArticleService_TrashedSlugStaysReserved(t *testing.T) {
	svc, repos := newArticleService(t, 10)
	ctx := context.Background()
	author, _ := testutil.NewUserBuilder().Build(t, repos)

	first, err := svc.Create(ctx, author.ID, service.ArticleInput{Title: "News"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	second, err := svc.Create(ctx, author.ID, service.ArticleInput{Title: "News"})
	require.NoError(t, err)
	assert.Equal(t, "news-2", second.Slug)

	require.NoError(t, svc.Restore(ctx, first.ID))
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "news", got.Slug)
}

func TestArticleService_UpdateKeepsSlugUnlessTitleChanges(t *testing.T) {
	svc, repos := newArticleService(t, 10)
	ctx := context.Background()
	author, _ := testutil.NewUserBuilder().Build(t, repos)

	article, err := svc.Create(ctx, author.ID, service.ArticleInput{Title: "Original"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, article.ID, service.ArticleInput{Title: "Original", Body: "new body", Tags: []string{"A", "a", " b "}})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Slug)
	assert.Equal(t, []string{"a", "b"}, updated.TagList())

	updated, err = svc.Update(ctx, article.ID, service.ArticleInput{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Slug)

	_, err = svc.Update(ctx, uuid.New(), service.ArticleInput{Title: "Missing"})
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestArticleService_PublishKeepsFirstDate(t *testing.T) {
	svc, repos := newArticleService(t, 10)
	ctx := context.Background()
	author, _ := testutil.NewUserBuilder().Build(t, repos)

	article, err := svc.Create(ctx, author.ID, service.ArticleInput{Title: "Dated"})
	require.NoError(t, err)

	_, err = svc.GetPublished(ctx, "dated")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound, "drafts are not public")

	published, err := svc.Publish(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt

	_, err = svc.Unpublish(ctx, article.ID)
	require.NoError(t, err)
	republished, err := svc.Publish(ctx, article.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(*republished.PublishedAt))

	got, err := svc.GetPublished(ctx, "dated")
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ID)
}

func TestArticleService_ListPublishedPages(t *testing.T) {
	svc, repos := newArticleService(t, 2)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		testutil.NewArticleBuilder().
			WithTitle(fmt.Sprintf("Post %d", i)).
			Published(base.Add(time.Duration(i) * time.Hour)).
			Build(t, repos)
	}
	testutil.NewArticleBuilder().WithTitle("Draft").Build(t, repos)

	tests := []struct {
		page int
		want []string
	}{
		{0, []string{"Post 4", "Post 3"}},
		{1, []string{"Post 4", "Post 3"}},
		{2, []string{"Post 2", "Post 1"}},
		{3, []string{"Post 0"}},
		{4, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			articles, err := svc.ListPublished(ctx, tt.page)
			require.NoError(t, err)
			var titles []string
			for _, a := range articles {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestArticleService_ListByCategory(t *testing.T) {
	svc, repos := newArticleService(t, 10)
	ctx := context.Background()
	news := testutil.NewCategoryBuilder().WithName("News").Build(t, repos)
	other := testutil.NewCategoryBuilder().WithName("Other").Build(t, repos)
	now := time.Now()

	in := testutil.NewArticleBuilder().WithCategory(news).Published(now).Build(t, repos)
	testutil.NewArticleBuilder().WithCategory(news).Build(t, repos)
	testutil.NewArticleBuilder().WithCategory(other).Published(now).Build(t, repos)

	category, articles, err := svc.ListByCategory(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, news.ID, category.ID)
	require.Len(t, articles, 1)
	assert.Equal(t, in.ID, articles[0].ID)

	_, _, err = svc.ListByCategory(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestArticleService_RenderBody(t *testing.T) {
	svc, _ := newArticleService(t, 10)

	html, err := svc.RenderBody(&domain.Article{Body: "# Title\n\n<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")
	assert.NotContains(t, string(html), "<script>")
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, service.ParseTags(" Go, web,,go "))
	assert.Nil(t, service.ParseTags(""))
}
