package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/gallery-cms/internal/api/handlers"
	"github.com/dom/gallery-cms/internal/api/middleware"
	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const csrfFailureMessage = "Your session form expired, reload the page and submit again."

func NewRouter(services *service.Services, sessions *session.Manager, guard *csrf.Guard, views *web.Views, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/static/*", web.Static())

	publicHandler := handlers.NewPublicHandler(services, views, logger)
	authHandler := handlers.NewAuthHandler(services.Auth, sessions, views, logger)
	adminHandler := handlers.NewAdminHandler(services, views, logger)

	csrfFailed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		views.Error(w, r, http.StatusForbidden, csrfFailureMessage)
	})

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Use(middleware.LoadUser(services.Auth, logger))
		r.Use(middleware.CSRF(guard, csrfFailed))

		// Public site
		r.Get("/", publicHandler.Home)
		r.Get("/articles/{slug}", publicHandler.Article)
		r.Get("/categories/{slug}", publicHandler.Category)
		r.Get("/gallery", publicHandler.GalleryIndex)
		r.Get("/gallery/{id}", publicHandler.Gallery)

		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Back office
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/", adminHandler.Dashboard)

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", adminHandler.ListArticles)
				r.Get("/new", adminHandler.NewArticle)
				r.Post("/", adminHandler.CreateArticle)
				r.Get("/{id}/edit", adminHandler.EditArticle)
				r.Post("/{id}", adminHandler.UpdateArticle)
				r.Post("/{id}/publish", adminHandler.PublishArticle)
				r.Post("/{id}/unpublish", adminHandler.UnpublishArticle)
				r.Post("/{id}/delete", adminHandler.DeleteArticle)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", adminHandler.ListCategories)
				r.Get("/new", adminHandler.NewCategory)
				r.Post("/", adminHandler.CreateCategory)
				r.Get("/{id}/edit", adminHandler.EditCategory)
				r.Post("/{id}", adminHandler.UpdateCategory)
				r.Post("/{id}/delete", adminHandler.DeleteCategory)
			})

			r.Route("/images", func(r chi.Router) {
				r.Get("/", adminHandler.ListImages)
				r.Get("/new", adminHandler.NewImage)
				r.Post("/", adminHandler.CreateImage)
				r.Get("/{id}/edit", adminHandler.EditImage)
				r.Post("/{id}", adminHandler.UpdateImage)
				r.Post("/{id}/delete", adminHandler.DeleteImage)
			})

			r.Route("/galleries", func(r chi.Router) {
				r.Get("/", adminHandler.ListGalleries)
				r.Get("/new", adminHandler.NewGallery)
				r.Post("/", adminHandler.CreateGallery)
				r.Get("/allowed-parents", adminHandler.AllowedParents)
				r.Get("/{id}/edit", adminHandler.EditGallery)
				r.Get("/{id}/allowed-parents", adminHandler.AllowedParents)
				r.Post("/{id}", adminHandler.UpdateGallery)
				r.Post("/{id}/delete", adminHandler.DeleteGallery)
				r.Post("/{id}/images", adminHandler.AttachImage)
				r.Post("/{id}/images/{imageID}/detach", adminHandler.DetachImage)
			})

			r.Route("/trash", func(r chi.Router) {
				r.Get("/", adminHandler.Trash)
				r.Post("/articles/{id}/restore", adminHandler.RestoreArticle)
				r.Post("/categories/{id}/restore", adminHandler.RestoreCategory)
				r.Post("/galleries/{id}/restore", adminHandler.RestoreGallery)
				r.Post("/galleries/{id}/erase", adminHandler.EraseGallery)
			})
		})
	})

	return r
}
