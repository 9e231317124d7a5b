package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dom/gallery-cms/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csrfRejected = "Your session form expired, reload the page and submit again."

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		password       string
		tamper         func(url.Values)
		origin         string
		expectedStatus int
		expectedBody   string
		expectedTarget string
	}{
		{
			name:           "successful login",
			password:       "testpassword123",
			expectedStatus: http.StatusSeeOther,
			expectedTarget: "/admin",
		},
		{
			name:     "next is honoured",
			password: "testpassword123",
			tamper: func(v url.Values) {
				v.Set("next", "/admin/galleries")
			},
			expectedStatus: http.StatusSeeOther,
			expectedTarget: "/admin/galleries",
		},
		{
			name:     "offsite next is ignored",
			password: "testpassword123",
			tamper: func(v url.Values) {
				v.Set("next", "//evil.example/")
			},
			expectedStatus: http.StatusSeeOther,
			expectedTarget: "/admin",
		},
		{
			name:           "wrong password",
			password:       "not-the-password",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Wrong username or password.",
		},
		{
			name:     "missing token",
			password: "testpassword123",
			tamper: func(v url.Values) {
				v.Del("csrf_token")
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   csrfRejected,
		},
		{
			name:     "forged token",
			password: "testpassword123",
			tamper: func(v url.Values) {
				v.Set("csrf_token", strings.Repeat("0", 64))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   csrfRejected,
		},
		{
			name:     "token for another form",
			password: "testpassword123",
			tamper: func(v url.Values) {
				v.Set("csrf_id", "gallery")
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   csrfRejected,
		},
		{
			name:           "cross origin",
			password:       "testpassword123",
			origin:         "http://evil.example",
			expectedStatus: http.StatusForbidden,
			expectedBody:   csrfRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)
			user, _ := testutil.NewUserBuilder().WithUsername("editor").Build(t, ts.Repos)

			values := ts.FormFields(t, "/login", "login-form")
			require.NotEmpty(t, values.Get("csrf_token"))
			assert.Equal(t, "login", values.Get("csrf_id"))
			values.Set("username", user.Username)
			values.Set("password", tt.password)
			if tt.tamper != nil {
				tt.tamper(values)
			}

			req, err := http.NewRequest(http.MethodPost, ts.URL("/login"), strings.NewReader(values.Encode()))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			origin := ts.BaseURL()
			if tt.origin != "" {
				origin = tt.origin
			}
			req.Header.Set("Origin", origin)

			resp, body := ts.Do(t, req)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.expectedBody != "" {
				assert.Contains(t, body, tt.expectedBody)
			}
			if tt.expectedTarget != "" {
				assert.Equal(t, tt.expectedTarget, resp.Header.Get("Location"))
			}
		})
	}
}

func TestAuthHandler_TokenRotatesAfterUse(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.Repos)

	values := ts.FormFields(t, "/login", "login-form")
	values.Set("username", user.Username)
	values.Set("password", "wrong-password")

	resp, _ := ts.PostForm(t, "/login", values)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	rotated := resp.Header.Get("X-CSRF-Token")
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, values.Get("csrf_token"), rotated)

	// The secret that was just accepted is spent.
	values.Set("password", password)
	resp, _ = ts.PostForm(t, "/login", values)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	// The rotated one works for the next submission.
	values.Set("csrf_token", rotated)
	resp, _ = ts.PostForm(t, "/login", values)
	testutil.AssertRedirect(t, resp, "/admin")
}

func TestAuthHandler_AdminRequiresLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, _ := ts.Get(t, "/admin/galleries")
	testutil.AssertRedirect(t, resp, "/login?next=%2Fadmin%2Fgalleries")

	req, err := http.NewRequest(http.MethodGet, ts.URL("/admin/galleries/allowed-parents"), nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, _ = ts.Do(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestAuthHandler_LoginAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.Repos)

	ts.Login(t, user.Username, password)

	resp, body := ts.Get(t, "/admin")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, body, "Welcome back, "+user.Username+".")

	// The flash is shown once.
	_, body = ts.Get(t, "/admin")
	assert.NotContains(t, body, "Welcome back")

	resp, _ = ts.Get(t, "/login")
	testutil.AssertRedirect(t, resp, "/admin")

	values := ts.FormFields(t, "/admin", "logout-form")
	resp, _ = ts.PostForm(t, "/logout", values)
	testutil.AssertRedirect(t, resp, "/")

	resp, _ = ts.Get(t, "/admin")
	testutil.AssertRedirect(t, resp, "/login?next=%2Fadmin")
}
