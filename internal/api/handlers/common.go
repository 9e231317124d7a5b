package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/gallery-cms/internal/api/middleware"
	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathID parses the {id} route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// optionalID reads a form field holding an id; empty means none.
func optionalID(raw string) (*uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// page fills the fields every template needs.
func page(r *http.Request, title string, data any) web.Page {
	user, _ := middleware.GetUser(r.Context())
	return web.Page{Title: title, User: user, Data: data}
}

func currentUser(r *http.Request) *domain.User {
	user, _ := middleware.GetUser(r.Context())
	return user
}
