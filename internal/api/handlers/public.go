package handlers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/web"
	"github.com/go-chi/chi/v5"
)

type PublicHandler struct {
	articleService  *service.ArticleService
	categoryService *service.CategoryService
	galleryService  *service.GalleryService
	views           *web.Views
	logger          *slog.Logger
}

func NewPublicHandler(services *service.Services, views *web.Views, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		articleService:  services.Article,
		categoryService: services.Category,
		galleryService:  services.Gallery,
		views:           views,
		logger:          logger,
	}
}

type HomeData struct {
	Articles   []*domain.Article
	Categories []*domain.Category
	Page       int
	PrevPage   int
	NextPage   int
}

type ArticleData struct {
	Article *domain.Article
	Body    template.HTML
}

type CategoryData struct {
	Category *domain.Category
	Articles []*domain.Article
}

func (h *PublicHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "path", r.URL.Path, logging.Err(err))
	h.views.Error(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	n := pageNumber(r)
	articles, err := h.articleService.ListPublished(r.Context(), n)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := HomeData{Articles: articles, Categories: categories, Page: n, PrevPage: n - 1}
	// Only a full page can have a successor.
	if len(articles) > 0 && len(articles) == h.articleService.PerPage() {
		data.NextPage = n + 1
	}
	h.views.Render(w, r, http.StatusOK, "home", page(r, "", data))
}

func (h *PublicHandler) Article(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, domain.ErrArticleNotFound) {
		h.views.Error(w, r, http.StatusNotFound, "That article does not exist.")
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	body, err := h.articleService.RenderBody(article)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "article", page(r, article.Title, ArticleData{Article: article, Body: body}))
}

func (h *PublicHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, articles, err := h.articleService.ListByCategory(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, domain.ErrCategoryNotFound) {
		h.views.Error(w, r, http.StatusNotFound, "That category does not exist.")
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "category", page(r, category.Name, CategoryData{Category: category, Articles: articles}))
}

func (h *PublicHandler) GalleryIndex(w http.ResponseWriter, r *http.Request) {
	tree, err := h.galleryService.Tree(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "gallery_index", page(r, "Gallery", tree))
}

func (h *PublicHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.views.Error(w, r, http.StatusNotFound, "That gallery does not exist.")
		return
	}
	p, err := h.galleryService.Page(r.Context(), id)
	if errors.Is(err, domain.ErrGalleryNotFound) {
		h.views.Error(w, r, http.StatusNotFound, "That gallery does not exist.")
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "gallery_show", page(r, p.Gallery.Name, p))
}
