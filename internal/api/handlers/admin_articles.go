package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/google/uuid"
)

type ArticleForm struct {
	ID         *uuid.UUID
	Action     string
	Title      string
	Summary    string
	Body       string
	CategoryID *uuid.UUID
	Tags       string
	Status     string
	Categories []*domain.Category
}

func (h *AdminHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.services.Article.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "admin/articles", page(r, "Articles", articles))
}

func (h *AdminHandler) renderArticleForm(w http.ResponseWriter, r *http.Request, status int, form ArticleForm, message string) {
	categories, err := h.services.Category.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	form.Categories = categories
	title := "New article"
	if form.ID != nil {
		title = "Edit article"
	}
	p := page(r, title, form)
	p.Error = message
	h.views.Render(w, r, status, "admin/article_form", p)
}

func (h *AdminHandler) NewArticle(w http.ResponseWriter, r *http.Request) {
	h.renderArticleForm(w, r, http.StatusOK, ArticleForm{
		Action: "/admin/articles",
		Status: string(domain.ArticleStatusDraft),
	}, "")
}

func (h *AdminHandler) EditArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	article, err := h.services.Article.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderArticleForm(w, r, http.StatusOK, ArticleForm{
		ID:         &article.ID,
		Action:     "/admin/articles/" + article.ID.String(),
		Title:      article.Title,
		Summary:    article.Summary,
		Body:       article.Body,
		CategoryID: article.CategoryID,
		Tags:       strings.Join(article.TagList(), ", "),
		Status:     string(article.Status),
	}, "")
}

// articleFormInput reads the posted form. ok is false when the category
// field is not an id.
func articleFormInput(r *http.Request) (ArticleForm, service.ArticleInput, bool) {
	categoryID, ok := optionalID(r.PostFormValue("category_id"))
	form := ArticleForm{
		Title:      r.PostFormValue("title"),
		Summary:    r.PostFormValue("summary"),
		Body:       r.PostFormValue("body"),
		CategoryID: categoryID,
		Tags:       r.PostFormValue("tags"),
		Status:     r.PostFormValue("status"),
	}
	input := service.ArticleInput{
		Title:      form.Title,
		Summary:    form.Summary,
		Body:       form.Body,
		CategoryID: categoryID,
		Tags:       service.ParseTags(form.Tags),
		Status:     domain.ArticleStatus(form.Status),
	}
	return form, input, ok
}

func articleInputMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return "Title is required.", true
	case errors.Is(err, domain.ErrInvalidStatus):
		return "Choose draft or published.", true
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "The selected category does not exist.", true
	}
	return "", false
}

func (h *AdminHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	form, input, ok := articleFormInput(r)
	form.Action = "/admin/articles"
	if !ok {
		h.renderArticleForm(w, r, http.StatusUnprocessableEntity, form, "The selected category does not exist.")
		return
	}

	article, err := h.services.Article.Create(r.Context(), currentUser(r).ID, input)
	if msg, isInput := articleInputMessage(err); isInput {
		h.renderArticleForm(w, r, http.StatusUnprocessableEntity, form, msg)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/articles", "Article \""+article.Title+"\" saved.")
}

func (h *AdminHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	form, input, ok := articleFormInput(r)
	form.ID = &id
	form.Action = "/admin/articles/" + id.String()
	if !ok {
		h.renderArticleForm(w, r, http.StatusUnprocessableEntity, form, "The selected category does not exist.")
		return
	}

	article, err := h.services.Article.Update(r.Context(), id, input)
	if msg, isInput := articleInputMessage(err); isInput {
		h.renderArticleForm(w, r, http.StatusUnprocessableEntity, form, msg)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/articles", "Article \""+article.Title+"\" saved.")
}

func (h *AdminHandler) PublishArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if _, err := h.services.Article.Publish(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/articles", "Article published.")
}

func (h *AdminHandler) UnpublishArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if _, err := h.services.Article.Unpublish(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/articles", "Article moved back to drafts.")
}

func (h *AdminHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Article.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/articles", "Article moved to the trash.")
}
