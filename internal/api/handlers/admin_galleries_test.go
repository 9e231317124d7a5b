package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/gallery-cms/internal/api/handlers"
	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T) *testutil.TestServer {
	t.Helper()
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.Repos)
	ts.Login(t, user.Username, password)
	return ts
}

func editPath(g *domain.Gallery) string {
	return "/admin/galleries/" + g.ID.String() + "/edit"
}

func TestAdminHandler_CreateGallery(t *testing.T) {
	ts := loggedIn(t)
	parent := testutil.NewGalleryBuilder().WithName("Holidays").Build(t, ts.Repos)

	tests := []struct {
		name           string
		parentID       string
		galleryName    string
		expectedStatus int
		expectedReason domain.ParentReason
	}{
		{"root gallery", "", "Trips", http.StatusSeeOther, ""},
		{"under a parent", parent.ID.String(), "Summer", http.StatusSeeOther, ""},
		{"unknown parent", uuid.New().String(), "Lost", http.StatusUnprocessableEntity, domain.ReasonParentNotFound},
		{"garbage parent id", "not-an-id", "Lost", http.StatusUnprocessableEntity, domain.ReasonParentNotFound},
		{"blank name", "", " ", http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := ts.FormFields(t, "/admin/galleries/new", "gallery-form")
			values.Set("name", tt.galleryName)
			values.Set("parent_id", tt.parentID)

			resp, body := ts.PostForm(t, "/admin/galleries", values)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.expectedStatus == http.StatusSeeOther {
				assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/admin/galleries/"))
				return
			}
			if tt.expectedReason != "" {
				assert.Contains(t, body, `data-reason="`+string(tt.expectedReason)+`"`)
			}
			assert.Contains(t, body, `id="gallery-form"`, "the form is shown again")
		})
	}
}

func TestAdminHandler_UpdateGalleryRejectsCycle(t *testing.T) {
	ts := loggedIn(t)
	a := testutil.NewGalleryBuilder().WithName("A").Build(t, ts.Repos)
	b := testutil.NewGalleryBuilder().WithName("B").WithParent(a).Build(t, ts.Repos)

	values := ts.FormFields(t, editPath(a), "gallery-form")
	values.Set("name", "A")
	values.Set("parent_id", b.ID.String())

	resp, body := ts.PostForm(t, "/admin/galleries/"+a.ID.String(), values)
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	assert.Contains(t, body, `data-reason="circular"`)

	got, err := ts.Repos.Gallery.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	values = ts.FormFields(t, editPath(a), "gallery-form")
	values.Set("name", "A")
	values.Set("parent_id", a.ID.String())
	resp, body = ts.PostForm(t, "/admin/galleries/"+a.ID.String(), values)
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	assert.Contains(t, body, `data-reason="self-parent"`)
}

func TestAdminHandler_UpdateGallery(t *testing.T) {
	ts := loggedIn(t)
	a := testutil.NewGalleryBuilder().WithName("A").Build(t, ts.Repos)
	b := testutil.NewGalleryBuilder().WithName("B").Build(t, ts.Repos)

	values := ts.FormFields(t, editPath(b), "gallery-form")
	assert.Equal(t, "1", values.Get("version"))
	values.Set("name", "B renamed")
	values.Set("parent_id", a.ID.String())

	resp, _ := ts.PostForm(t, "/admin/galleries/"+b.ID.String(), values)
	testutil.AssertRedirect(t, resp, "/admin/galleries")

	got, err := ts.Repos.Gallery.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B renamed", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, a.ID, *got.ParentID)
}

func TestAdminHandler_UpdateGalleryStale(t *testing.T) {
	ts := loggedIn(t)
	g := testutil.NewGalleryBuilder().WithName("Shared").Build(t, ts.Repos)

	values := ts.FormFields(t, editPath(g), "gallery-form")

	// Someone else saves first.
	res, err := ts.Services.Gallery.UpdateWithValidation(context.Background(), g.ID, service.GalleryInput{Name: "Theirs", Version: 1})
	require.NoError(t, err)
	require.True(t, res.Success)

	values.Set("name", "Mine")
	resp, body := ts.PostForm(t, "/admin/galleries/"+g.ID.String(), values)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	assert.Contains(t, body, "changed by someone else")

	got, err := ts.Repos.Gallery.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", got.Name)
}

func TestAdminHandler_AllowedParents(t *testing.T) {
	ts := loggedIn(t)
	chain := testutil.SeedGalleryChain(t, ts.Repos, 3)
	other := testutil.NewGalleryBuilder().WithName("Other").Build(t, ts.Repos)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       []uuid.UUID
	}{
		{"new gallery", "/admin/galleries/allowed-parents", http.StatusOK, []uuid.UUID{chain[0].ID, chain[1].ID, chain[2].ID, other.ID}},
		{"middle of a chain", "/admin/galleries/" + chain[1].ID.String() + "/allowed-parents", http.StatusOK, []uuid.UUID{chain[0].ID, other.ID}},
		{"unknown gallery", "/admin/galleries/" + uuid.New().String() + "/allowed-parents", http.StatusNotFound, nil},
		{"bad id", "/admin/galleries/nope/allowed-parents", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.Get(t, tt.path)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.expected == nil {
				return
			}
			var options []handlers.ParentOption
			testutil.AssertJSONResponse(t, resp, body, &options)
			ids := make([]uuid.UUID, 0, len(options))
			for _, o := range options {
				ids = append(ids, o.ID)
			}
			assert.ElementsMatch(t, tt.expected, ids)
		})
	}
}

func TestAdminHandler_DeleteGalleryJSON(t *testing.T) {
	ts := loggedIn(t)
	g := testutil.NewGalleryBuilder().WithName("G").Build(t, ts.Repos)
	p := testutil.NewGalleryBuilder().WithName("P").WithParent(g).Build(t, ts.Repos)
	c1 := testutil.NewGalleryBuilder().WithName("C1").WithParent(p).Build(t, ts.Repos)
	c2 := testutil.NewGalleryBuilder().WithName("C2").WithParent(p).Build(t, ts.Repos)

	action := "/admin/galleries/" + p.ID.String() + "/delete"
	values := ts.FormFieldsByAction(t, "/admin/galleries", action)
	assert.Equal(t, "gallery-actions", values.Get("csrf_id"))

	req, err := http.NewRequest(http.MethodPost, ts.URL(action), strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", ts.BaseURL())

	resp, body := ts.Do(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var result service.DeleteResult
	testutil.AssertJSONResponse(t, resp, body, &result)
	assert.True(t, result.Success)
	assert.EqualValues(t, 2, result.PromotedCount)
	assert.Equal(t, "P", result.NodeName)

	for _, c := range []*domain.Gallery{c1, c2} {
		got, err := ts.Repos.Gallery.GetByID(context.Background(), c.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, g.ID, *got.ParentID)
	}

	// Deleting again reports a failure without a page.
	req, err = http.NewRequest(http.MethodPost, ts.URL(action), nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", ts.BaseURL())
	req.Header.Set("X-CSRF-ID", "gallery-actions")
	req.Header.Set("X-CSRF-Token", resp.Header.Get("X-CSRF-Token"))

	resp, body = ts.Do(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	testutil.AssertJSONResponse(t, resp, body, &result)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestAdminHandler_DeleteGalleryForm(t *testing.T) {
	ts := loggedIn(t)
	p := testutil.NewGalleryBuilder().WithName("Parent").Build(t, ts.Repos)
	testutil.NewGalleryBuilder().WithName("Child").WithParent(p).Build(t, ts.Repos)

	action := "/admin/galleries/" + p.ID.String() + "/delete"
	values := ts.FormFieldsByAction(t, "/admin/galleries", action)
	resp, _ := ts.PostForm(t, action, values)
	testutil.AssertRedirect(t, resp, "/admin/galleries")

	_, body := ts.Get(t, "/admin/galleries")
	assert.Contains(t, body, "moved to the trash")
	assert.Contains(t, body, "1 sub-galleries moved up one level.")
}

func TestAdminHandler_TrashRestoreAndErase(t *testing.T) {
	ts := loggedIn(t)
	ctx := context.Background()
	keep := testutil.NewGalleryBuilder().WithName("Keep").Build(t, ts.Repos)
	erase := testutil.NewGalleryBuilder().WithName("Erase").Build(t, ts.Repos)
	for _, g := range []*domain.Gallery{keep, erase} {
		_, err := ts.Services.Gallery.DeleteAndPromoteChildren(ctx, g.ID)
		require.NoError(t, err)
	}

	restore := "/admin/trash/galleries/" + keep.ID.String() + "/restore"
	values := ts.FormFieldsByAction(t, "/admin/trash", restore)
	resp, _ := ts.PostForm(t, restore, values)
	testutil.AssertRedirect(t, resp, "/admin/trash")

	_, err := ts.Repos.Gallery.GetByID(ctx, keep.ID)
	require.NoError(t, err)

	remove := "/admin/trash/galleries/" + erase.ID.String() + "/erase"
	values = ts.FormFieldsByAction(t, "/admin/trash", remove)
	resp, _ = ts.PostForm(t, remove, values)
	testutil.AssertRedirect(t, resp, "/admin/trash")

	_, err = ts.Repos.Gallery.GetAny(ctx, erase.ID)
	assert.ErrorIs(t, err, domain.ErrGalleryNotFound)
}

func TestAdminHandler_GalleryImages(t *testing.T) {
	ts := loggedIn(t)
	g := testutil.NewGalleryBuilder().Build(t, ts.Repos)
	image := testutil.NewImageBuilder().WithTitle("Beach").Build(t, ts.Repos)

	values := ts.FormFields(t, editPath(g), "attach-form")
	values.Set("image_id", image.ID.String())
	resp, _ := ts.PostForm(t, "/admin/galleries/"+g.ID.String()+"/images", values)
	testutil.AssertRedirect(t, resp, editPath(g))

	images, err := ts.Services.Gallery.Images(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)

	detach := "/admin/galleries/" + g.ID.String() + "/images/" + image.ID.String() + "/detach"
	values = ts.FormFieldsByAction(t, editPath(g), detach)
	resp, _ = ts.PostForm(t, detach, values)
	testutil.AssertRedirect(t, resp, editPath(g))

	images, err = ts.Services.Gallery.Images(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}
