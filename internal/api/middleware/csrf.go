package middleware

import (
	"net/http"

	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/session"
)

// IdentifierHeader names the token slot for requests without a form body.
const IdentifierHeader = "X-CSRF-ID"

// CSRF rejects state-changing requests that do not carry a valid token.
// The candidate comes from the form field or the X-CSRF-Token header; the
// slot from the csrf_id field or X-CSRF-ID. After a successful check the
// rotated token is echoed in X-CSRF-Token for script clients.
func CSRF(guard *csrf.Guard, onFailure http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			sess := session.FromContext(r.Context())
			if sess == nil {
				onFailure.ServeHTTP(w, r)
				return
			}

			candidate := r.PostFormValue(guard.FieldName())
			if candidate == "" {
				candidate = r.Header.Get(csrf.HeaderName)
			}
			identifier := r.PostFormValue(csrf.IdentifierField)
			if identifier == "" {
				identifier = r.Header.Get(IdentifierHeader)
			}

			if !guard.Validate(r, sess, candidate, identifier) {
				onFailure.ServeHTTP(w, r)
				return
			}

			if rotated, err := guard.CurrentOrIssue(sess, identifier); err == nil {
				w.Header().Set(csrf.HeaderName, rotated)
			}
			next.ServeHTTP(w, r)
		})
	}
}
