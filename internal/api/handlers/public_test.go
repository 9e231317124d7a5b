package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPublicHandler_Pages(t *testing.T) {
	ts := testutil.NewTestServer(t)
	news := testutil.NewCategoryBuilder().WithName("News").Build(t, ts.Repos)
	published := testutil.NewArticleBuilder().
		WithTitle("Opening Night").
		WithBody("We **open** on Friday.").
		WithCategory(news).
		Published(time.Now()).
		Build(t, ts.Repos)
	draft := testutil.NewArticleBuilder().WithTitle("Secret Plans").Build(t, ts.Repos)
	root := testutil.NewGalleryBuilder().WithName("Events").Build(t, ts.Repos)
	child := testutil.NewGalleryBuilder().WithName("Concert").WithParent(root).Build(t, ts.Repos)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		contains       []string
		notContains    []string
	}{
		{"health", "/health", http.StatusOK, []string{"OK"}, nil},
		{"home lists published", "/", http.StatusOK, []string{"Opening Night", "News"}, []string{"Secret Plans"}},
		{"article", "/articles/" + published.Slug, http.StatusOK, []string{"<strong>open</strong>"}, nil},
		{"draft is hidden", "/articles/" + draft.Slug, http.StatusNotFound, []string{"That article does not exist."}, nil},
		{"category", "/categories/" + news.Slug, http.StatusOK, []string{"Opening Night"}, nil},
		{"unknown category", "/categories/nope", http.StatusNotFound, nil, nil},
		{"gallery index", "/gallery", http.StatusOK, []string{"Events", "Concert"}, nil},
		{"gallery breadcrumb", "/gallery/" + child.ID.String(), http.StatusOK, []string{`<a href="/gallery/` + root.ID.String() + `">Events</a>`}, nil},
		{"unknown gallery", "/gallery/" + uuid.New().String(), http.StatusNotFound, nil, nil},
		{"bad gallery id", "/gallery/xyz", http.StatusNotFound, nil, nil},
		{"static asset", "/static/site.css", http.StatusOK, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.Get(t, tt.path)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestPublicHandler_HomePaging(t *testing.T) {
	ts := testutil.NewTestServer(t)
	perPage := ts.Config.ArticlesPerPage
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range perPage + 1 {
		testutil.NewArticleBuilder().
			WithTitle(fmt.Sprintf("Post %02d", i)).
			Published(base.Add(time.Duration(i) * time.Hour)).
			Build(t, ts.Repos)
	}

	_, body := ts.Get(t, "/")
	assert.Contains(t, body, `href="/?page=2"`)
	assert.NotContains(t, body, "Post 00")

	_, body = ts.Get(t, "/?page=2")
	assert.Contains(t, body, "Post 00")
	assert.Contains(t, body, `href="/?page=1"`)
	assert.NotContains(t, body, `href="/?page=3"`)
}

func TestPublicHandler_PublicPagesDoNotSetCookies(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, _ := ts.Get(t, "/")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.Empty(t, resp.Cookies(), "an untouched session is not persisted")

	resp, _ = ts.Get(t, "/login")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.NotEmpty(t, resp.Cookies(), "issuing a form token starts a session")
}
