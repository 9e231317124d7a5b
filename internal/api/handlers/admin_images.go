package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/google/uuid"
)

type ImageForm struct {
	ID       *uuid.UUID
	Action   string
	Title    string
	Filename string
	AltText  string
}

func (h *AdminHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.services.Image.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "admin/images", page(r, "Images", images))
}

func (h *AdminHandler) renderImageForm(w http.ResponseWriter, r *http.Request, status int, form ImageForm, message string) {
	title := "Register image"
	if form.ID != nil {
		title = "Edit image"
	}
	p := page(r, title, form)
	p.Error = message
	h.views.Render(w, r, status, "admin/image_form", p)
}

func (h *AdminHandler) NewImage(w http.ResponseWriter, r *http.Request) {
	h.renderImageForm(w, r, http.StatusOK, ImageForm{Action: "/admin/images"}, "")
}

func (h *AdminHandler) EditImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	image, err := h.services.Image.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderImageForm(w, r, http.StatusOK, ImageForm{
		ID:       &image.ID,
		Action:   "/admin/images/" + image.ID.String(),
		Title:    image.Title,
		Filename: image.Filename,
		AltText:  image.AltText,
	}, "")
}

func imageFormInput(r *http.Request) (ImageForm, service.ImageInput) {
	form := ImageForm{
		Title:    r.PostFormValue("title"),
		Filename: r.PostFormValue("filename"),
		AltText:  r.PostFormValue("alt_text"),
	}
	return form, service.ImageInput{Title: form.Title, Filename: form.Filename, AltText: form.AltText}
}

func imageInputMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return "Title is required.", true
	case errors.Is(err, service.ErrInvalidFilename):
		return "Enter a plain file name without directories.", true
	}
	return "", false
}

func (h *AdminHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	form, input := imageFormInput(r)
	form.Action = "/admin/images"

	_, err := h.services.Image.Register(r.Context(), input)
	if msg, isInput := imageInputMessage(err); isInput {
		h.renderImageForm(w, r, http.StatusUnprocessableEntity, form, msg)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/images", "Image saved.")
}

func (h *AdminHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	form, input := imageFormInput(r)
	form.ID = &id
	form.Action = "/admin/images/" + id.String()

	_, err := h.services.Image.Update(r.Context(), id, input)
	if msg, isInput := imageInputMessage(err); isInput {
		h.renderImageForm(w, r, http.StatusUnprocessableEntity, form, msg)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/images", "Image saved.")
}

func (h *AdminHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Image.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/images", "Image moved to the trash.")
}
