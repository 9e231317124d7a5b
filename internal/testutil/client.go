package testutil

import (
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"
)

var hiddenInput = regexp.MustCompile(`<input type="hidden" name="([^"]+)" value="([^"]*)">`)

// Get fetches path with the server's client and returns the response
// with its body read.
func (ts *TestServer) Get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := ts.Client.Get(ts.URL(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

// FormFields loads path and returns the hidden inputs of the form with the
// given id, the CSRF token among them.
func (ts *TestServer) FormFields(t *testing.T, path, formID string) url.Values {
	t.Helper()
	return ts.formFields(t, path, `id="`+formID+`"`)
}

// FormFieldsByAction is FormFields for forms without an id, matched by
// their action attribute.
func (ts *TestServer) FormFieldsByAction(t *testing.T, path, action string) url.Values {
	t.Helper()
	return ts.formFields(t, path, `action="`+action+`"`)
}

func (ts *TestServer) formFields(t *testing.T, path, marker string) url.Values {
	t.Helper()
	resp, body := ts.Get(t, path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}

	start := strings.Index(body, marker)
	if start < 0 {
		t.Fatalf("form %s not found on %s", marker, path)
	}
	form := body[start:]
	if end := strings.Index(form, "</form>"); end >= 0 {
		form = form[:end]
	}

	values := url.Values{}
	for _, m := range hiddenInput.FindAllStringSubmatch(form, -1) {
		values.Set(m[1], html.UnescapeString(m[2]))
	}
	return values
}

// PostForm submits values to path the way a same-origin browser would.
func (ts *TestServer) PostForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL(path), strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", ts.Server.URL)
	return ts.Do(t, req)
}

func (ts *TestServer) Do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := ts.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp, readBody(t, resp)
}

// Login signs in through the login form and fails the test unless the
// server redirects.
func (ts *TestServer) Login(t *testing.T, username, password string) {
	t.Helper()
	values := ts.FormFields(t, "/login", "login-form")
	values.Set("username", username)
	values.Set("password", password)
	resp, _ := ts.PostForm(t, "/login", values)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login as %s: status %d", username, resp.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
