package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/google/uuid"
)

type CategoryForm struct {
	ID          *uuid.UUID
	Action      string
	Name        string
	Description string
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.services.Category.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "admin/categories", page(r, "Categories", categories))
}

func (h *AdminHandler) renderCategoryForm(w http.ResponseWriter, r *http.Request, status int, form CategoryForm, message string) {
	title := "New category"
	if form.ID != nil {
		title = "Edit category"
	}
	p := page(r, title, form)
	p.Error = message
	h.views.Render(w, r, status, "admin/category_form", p)
}

func (h *AdminHandler) NewCategory(w http.ResponseWriter, r *http.Request) {
	h.renderCategoryForm(w, r, http.StatusOK, CategoryForm{Action: "/admin/categories"}, "")
}

func (h *AdminHandler) EditCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	category, err := h.services.Category.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderCategoryForm(w, r, http.StatusOK, CategoryForm{
		ID:          &category.ID,
		Action:      "/admin/categories/" + category.ID.String(),
		Name:        category.Name,
		Description: category.Description,
	}, "")
}

func categoryFormInput(r *http.Request) (CategoryForm, service.CategoryInput) {
	form := CategoryForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	return form, service.CategoryInput{Name: form.Name, Description: form.Description}
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	form, input := categoryFormInput(r)
	form.Action = "/admin/categories"

	_, err := h.services.Category.Create(r.Context(), input)
	if errors.Is(err, domain.ErrEmptyName) {
		h.renderCategoryForm(w, r, http.StatusUnprocessableEntity, form, "Name is required.")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/categories", "Category saved.")
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	form, input := categoryFormInput(r)
	form.ID = &id
	form.Action = "/admin/categories/" + id.String()

	_, err := h.services.Category.Update(r.Context(), id, input)
	if errors.Is(err, domain.ErrEmptyName) {
		h.renderCategoryForm(w, r, http.StatusUnprocessableEntity, form, "Name is required.")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/categories", "Category saved.")
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Category.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/categories", "Category moved to the trash.")
}
