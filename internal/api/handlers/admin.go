package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
)

// AdminHandler serves the back office. Every route sits behind
// middleware.RequireUser.
type AdminHandler struct {
	services *service.Services
	views    *web.Views
	logger   *slog.Logger
}

func NewAdminHandler(services *service.Services, views *web.Views, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		views:    views,
		logger:   logger,
	}
}

var notFoundErrors = []error{
	domain.ErrArticleNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrImageNotFound,
	domain.ErrGalleryNotFound,
}

// fail renders err as a 404 for lookups and a 500 for anything else.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			h.views.Error(w, r, http.StatusNotFound, capitalize(nf.Error())+".")
			return
		}
	}
	h.logger.Error("admin request failed", "method", r.Method, "path", r.URL.Path, logging.Err(err))
	h.views.Error(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func (h *AdminHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.views.Error(w, r, http.StatusNotFound, "Page not found.")
}

func (h *AdminHandler) redirect(w http.ResponseWriter, r *http.Request, to, flash string) {
	if flash != "" {
		web.SetFlash(session.FromContext(r.Context()), flash)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type DashboardData struct {
	Articles   int
	Drafts     int
	Categories int
	Images     int
	Galleries  int
	Trash      int
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data DashboardData

	articles, err := h.services.Article.ListAll(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Articles = len(articles)
	for _, a := range articles {
		if !a.IsPublished() {
			data.Drafts++
		}
	}

	categories, err := h.services.Category.List(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Categories = len(categories)

	images, err := h.services.Image.List(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Images = len(images)

	galleries, err := h.services.Gallery.Flatten(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Galleries = len(galleries)

	trash, err := h.trash(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Trash = len(trash.Articles) + len(trash.Categories) + len(trash.Galleries)

	h.views.Render(w, r, http.StatusOK, "admin/dashboard", page(r, "Dashboard", data))
}

type TrashData struct {
	Articles   []*domain.Article
	Categories []*domain.Category
	Galleries  []*domain.Gallery
}

func (h *AdminHandler) trash(r *http.Request) (TrashData, error) {
	var (
		data TrashData
		err  error
	)
	if data.Articles, err = h.services.Article.ListTrashed(r.Context()); err != nil {
		return data, err
	}
	if data.Categories, err = h.services.Category.ListTrashed(r.Context()); err != nil {
		return data, err
	}
	if data.Galleries, err = h.services.Gallery.Trash(r.Context()); err != nil {
		return data, err
	}
	return data, nil
}

func (h *AdminHandler) Trash(w http.ResponseWriter, r *http.Request) {
	data, err := h.trash(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "admin/trash", page(r, "Trash", data))
}

func (h *AdminHandler) RestoreArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Article.Restore(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/trash", "Article restored.")
}

func (h *AdminHandler) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Category.Restore(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/trash", "Category restored.")
}
