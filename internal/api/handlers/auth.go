package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    *session.Manager
	views       *web.Views
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, sessions *session.Manager, views *web.Views, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		views:       views,
		logger:      logger,
	}
}

type LoginData struct {
	Username string
	Next     string
}

// safeNext only allows local paths as the post-login target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin"
	}
	return next
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	data := LoginData{Next: r.URL.Query().Get("next")}
	h.views.Render(w, r, http.StatusOK, "login", page(r, "Log in", data))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	next := r.PostFormValue("next")

	user, err := h.authService.Login(r.Context(), username, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		p := page(r, "Log in", LoginData{Username: username, Next: next})
		p.Error = "Wrong username or password."
		h.views.Render(w, r, http.StatusUnauthorized, "login", p)
		return
	}
	if err != nil {
		h.logger.Error("login failed", logging.Err(err))
		h.views.Error(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.sessions.Authenticate(sess, user.ID); err != nil {
		h.logger.Error("failed to authenticate session", "user_id", user.ID, logging.Err(err))
		h.views.Error(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	web.SetFlash(sess, "Welcome back, "+user.Username+".")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("failed to destroy session", logging.Err(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
