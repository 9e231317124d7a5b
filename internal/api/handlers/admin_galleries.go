package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dom/gallery-cms/internal/api/middleware"
	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const staleGalleryMessage = "This gallery was changed by someone else in the meantime. Reload it and try again."

type GalleryForm struct {
	ID              *uuid.UUID
	Action          string
	Name            string
	Description     string
	ParentID        *uuid.UUID
	FeaturedImageID *uuid.UUID
	Version         int
	Reason          domain.ParentReason
	Parents         []domain.TreeEntry
	Images          []*domain.Image
	Attached        []*domain.Image
}

type ParentOption struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
}

func (h *AdminHandler) ListGalleries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.services.Gallery.Flatten(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "admin/galleries", page(r, "Galleries", entries))
}

func (h *AdminHandler) renderGalleryForm(w http.ResponseWriter, r *http.Request, status int, form GalleryForm, message string) {
	ctx := r.Context()
	parents, err := h.services.Gallery.ParentOptions(ctx, form.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	images, err := h.services.Image.List(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	form.Parents = parents
	form.Images = images

	title := "New gallery"
	if form.ID != nil {
		title = "Edit gallery"
		if form.Attached, err = h.services.Gallery.Images(ctx, *form.ID); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	p := page(r, title, form)
	p.Error = message
	h.views.Render(w, r, status, "admin/gallery_form", p)
}

func (h *AdminHandler) NewGallery(w http.ResponseWriter, r *http.Request) {
	form := GalleryForm{Action: "/admin/galleries"}
	// ?parent= preselects the parent when adding a sub-gallery.
	if parentID, ok := optionalID(r.URL.Query().Get("parent")); ok {
		form.ParentID = parentID
	}
	h.renderGalleryForm(w, r, http.StatusOK, form, "")
}

func (h *AdminHandler) EditGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	g, err := h.services.Gallery.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderGalleryForm(w, r, http.StatusOK, GalleryForm{
		ID:              &g.ID,
		Action:          "/admin/galleries/" + g.ID.String(),
		Name:            g.Name,
		Description:     g.Description,
		ParentID:        g.ParentID,
		FeaturedImageID: g.FeaturedImageID,
		Version:         g.Version,
	}, "")
}

// galleryFormInput reads the posted form. An unparsable id field is
// reported as the matching validation failure.
func galleryFormInput(r *http.Request) (GalleryForm, service.GalleryInput, domain.ParentValidation) {
	parentID, parentOK := optionalID(r.PostFormValue("parent_id"))
	imageID, imageOK := optionalID(r.PostFormValue("featured_image_id"))
	version, _ := strconv.Atoi(r.PostFormValue("version"))

	form := GalleryForm{
		Name:            r.PostFormValue("name"),
		Description:     r.PostFormValue("description"),
		ParentID:        parentID,
		FeaturedImageID: imageID,
		Version:         version,
	}
	input := service.GalleryInput{
		Name:            form.Name,
		Description:     form.Description,
		ParentID:        parentID,
		FeaturedImageID: imageID,
		Version:         version,
	}

	v := domain.ValidParent()
	switch {
	case !parentOK:
		v = domain.InvalidParent(domain.ReasonParentNotFound)
	case !imageOK:
		v = domain.InvalidParent(domain.ReasonImageNotFound)
	}
	return form, input, v
}

func (h *AdminHandler) CreateGallery(w http.ResponseWriter, r *http.Request) {
	form, input, v := galleryFormInput(r)
	form.Action = "/admin/galleries"
	if !v.Valid {
		form.Reason = v.Reason
		h.renderGalleryForm(w, r, http.StatusUnprocessableEntity, form, v.Message())
		return
	}

	res, err := h.services.Gallery.CreateWithValidation(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.Success {
		form.Reason = res.Reason
		h.renderGalleryForm(w, r, http.StatusUnprocessableEntity, form, res.Message)
		return
	}
	h.redirect(w, r, "/admin/galleries/"+res.NodeID.String()+"/edit", "Gallery created.")
}

func (h *AdminHandler) UpdateGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	form, input, v := galleryFormInput(r)
	form.ID = &id
	form.Action = "/admin/galleries/" + id.String()
	if !v.Valid {
		form.Reason = v.Reason
		h.renderGalleryForm(w, r, http.StatusUnprocessableEntity, form, v.Message())
		return
	}

	res, err := h.services.Gallery.UpdateWithValidation(r.Context(), id, input)
	if errors.Is(err, domain.ErrStaleTree) {
		h.renderGalleryForm(w, r, http.StatusConflict, form, staleGalleryMessage)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.Success {
		form.Reason = res.Reason
		h.renderGalleryForm(w, r, http.StatusUnprocessableEntity, form, res.Message)
		return
	}
	h.redirect(w, r, "/admin/galleries", "Gallery saved.")
}

// AllowedParents lists, as JSON, the galleries the node in {id} may be
// moved under. Without {id} it lists every active gallery.
func (h *AdminHandler) AllowedParents(w http.ResponseWriter, r *http.Request) {
	var forNode *uuid.UUID
	if chi.URLParam(r, "id") != "" {
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid gallery id", http.StatusBadRequest)
			return
		}
		if _, err := h.services.Gallery.Get(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrGalleryNotFound) {
				http.Error(w, "Gallery not found", http.StatusNotFound)
				return
			}
			h.logger.Error("failed to load gallery", "gallery_id", id, logging.Err(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		forNode = &id
	}

	parents, err := h.services.Gallery.AllowedParents(r.Context(), forNode)
	if err != nil {
		h.logger.Error("failed to list allowed parents", logging.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	out := make([]ParentOption, 0, len(parents))
	for _, p := range parents {
		out = append(out, ParentOption{ID: p.ID, Name: p.Name, ParentID: p.ParentID})
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteGallery trashes a gallery and promotes its children. Script
// clients asking for JSON get the result object; forms get a redirect.
func (h *AdminHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		if middleware.WantsJSON(r) {
			writeJSON(w, http.StatusNotFound, service.DeleteResult{Message: "Invalid gallery id."})
			return
		}
		h.notFound(w, r)
		return
	}

	res, err := h.services.Gallery.DeleteAndPromoteChildren(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		status := http.StatusOK
		if !res.Success {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, res)
		return
	}

	if !res.Success {
		h.redirect(w, r, "/admin/galleries", res.Message)
		return
	}
	msg := fmt.Sprintf("Gallery %q moved to the trash.", res.NodeName)
	if res.PromotedCount > 0 {
		msg += fmt.Sprintf(" %d sub-galleries moved up one level.", res.PromotedCount)
	}
	h.redirect(w, r, "/admin/galleries", msg)
}

func (h *AdminHandler) RestoreGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	restored, err := h.services.Gallery.Restore(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !restored {
		h.redirect(w, r, "/admin/trash", "That gallery is not in the trash.")
		return
	}
	h.redirect(w, r, "/admin/trash", "Gallery restored.")
}

func (h *AdminHandler) EraseGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	res, err := h.services.Gallery.PermanentlyDelete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.Success {
		h.redirect(w, r, "/admin/trash", res.Message)
		return
	}
	h.redirect(w, r, "/admin/trash", "Gallery deleted permanently.")
}

func (h *AdminHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	imageID, err := uuid.Parse(r.PostFormValue("image_id"))
	if err != nil {
		h.redirect(w, r, "/admin/galleries/"+id.String()+"/edit", "Choose an image to add.")
		return
	}
	if err := h.services.Gallery.AttachImage(r.Context(), id, imageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			h.redirect(w, r, "/admin/galleries/"+id.String()+"/edit", "That image does not exist.")
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/galleries/"+id.String()+"/edit", "Image added.")
}

func (h *AdminHandler) DetachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	imageID, ok := pathID(r, "imageID")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.services.Gallery.DetachImage(r.Context(), id, imageID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/admin/galleries/"+id.String()+"/edit", "Image removed.")
}
