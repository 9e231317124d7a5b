package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// LoadUser attaches the logged-in user, if any, to the request context.
func LoadUser(authService *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || !sess.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.GetUser(r.Context(), *sess.UserID)
			if err != nil {
				if !errors.Is(err, domain.ErrUserNotFound) {
					logger.Error("failed to load session user", "user_id", *sess.UserID, logging.Err(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				// The account is gone; treat the session as anonymous.
				sess.UserID = nil
				sess.MarkModified()
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser sends anonymous visitors to the login page. Requests asking
// for JSON get a 401 instead.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Accept"), "application/json")
}
