package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginData struct {
	Next     string
	Username string
}

func newViews(t *testing.T) (*web.Views, *csrf.Guard) {
	t.Helper()
	guard := csrf.New(csrf.DefaultConfig(), nil)
	views, err := web.NewViews(guard, nil)
	require.NoError(t, err)
	return views, guard
}

func render(views *web.Views, sess *domain.Session, status int, name string, page web.Page) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if sess != nil {
		req = req.WithContext(session.NewContext(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	views.Render(rec, req, status, name, page)
	return rec
}

func TestViews_PagesIncludePartials(t *testing.T) {
	views, _ := newViews(t)

	rec := render(views, &domain.Session{}, http.StatusOK, "error", web.Page{Title: "Oops"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<header class="site">`, "nav partial")
	assert.Contains(t, body, "<h1>Oops</h1>")
}

func TestViews_RenderIssuesFormToken(t *testing.T) {
	views, guard := newViews(t)
	sess := &domain.Session{}

	rec := render(views, sess, http.StatusOK, "login", web.Page{Title: "Log in", Data: loginData{Next: "/admin"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	token, err := guard.CurrentOrIssue(sess, "login")
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, `<input type="hidden" name="csrf_token" value="`+token+`">`)
	assert.Contains(t, body, `<input type="hidden" name="csrf_id" value="login">`)
	assert.Contains(t, body, `value="/admin"`)
	assert.True(t, sess.IsModified(), "issuing a token marks the session for saving")
}

func TestViews_FlashShownOnce(t *testing.T) {
	views, _ := newViews(t)
	sess := &domain.Session{}
	web.SetFlash(sess, "Gallery saved.")

	rec := render(views, sess, http.StatusOK, "error", web.Page{Title: "x"})
	assert.Contains(t, rec.Body.String(), `<p class="flash">Gallery saved.</p>`)

	rec = render(views, sess, http.StatusOK, "error", web.Page{Title: "x"})
	assert.NotContains(t, rec.Body.String(), `class="flash"`)
}

func TestViews_Error(t *testing.T) {
	views, _ := newViews(t)
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()

	views.Error(rec, req, http.StatusNotFound, "Nothing <here>.")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Not Found</h1>")
	assert.Contains(t, body, "Nothing &lt;here&gt;.")
}

func TestViews_UnknownTemplate(t *testing.T) {
	views, _ := newViews(t)
	rec := render(views, nil, http.StatusOK, "no-such-page", web.Page{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestViews_LoggedInNavCarriesLogoutToken(t *testing.T) {
	views, guard := newViews(t)
	sess := &domain.Session{}
	user := &domain.User{Username: "ann"}

	rec := render(views, sess, http.StatusOK, "error", web.Page{Title: "x", User: user})

	token, err := guard.CurrentOrIssue(sess, "logout")
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, `id="logout-form"`)
	assert.Contains(t, body, `value="`+token+`"`)
	assert.Contains(t, body, "Log out ann")
}

func TestStatic(t *testing.T) {
	rec := httptest.NewRecorder()
	web.Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = httptest.NewRecorder()
	web.Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/nope.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
