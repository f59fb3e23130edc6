// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Movilia site. It organizes routes into the public site and the admin
// back-office with their respective middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"movilia/internal/handlers"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/session"
	"movilia/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. secureCookies controls whether the CSRF
// cookie is marked Secure; pass false only in development. loginLimiter
// throttles POST /admin/login per client IP.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, secureCookies bool, loginLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Static assets bundled into the binary.
	r.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))

	// Admin back-office — authentication plus CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secureCookies))

		// Auth pages — accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed verification.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Authenticated and 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", admin.Dashboard)
			r.Get("/dashboard", admin.Dashboard)

			// Calls, their phases, resolutions and applications.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageCalls))

				r.Route("/convocatorias", func(r chi.Router) {
					r.Get("/", admin.CallsList)
					r.Get("/nueva", admin.CallNew)
					r.Post("/", admin.CallCreate)
					r.Post("/validar-campo", admin.CallValidateField)
					r.Get("/{id}", admin.CallDetail)
					r.Get("/{id}/editar", admin.CallEdit)
					r.Post("/{id}", admin.CallUpdate)
					r.Post("/{id}/estado", admin.CallChangeStatus)
					r.Post("/{id}/restaurar", admin.CallRestore)
					r.Delete("/{id}", admin.CallDelete)
					r.Delete("/{id}/definitivo", admin.CallForceDelete)

					r.Get("/{id}/fases/nueva", admin.PhaseNew)
					r.Post("/{id}/fases", admin.PhaseCreate)
					r.Get("/{id}/resoluciones/nueva", admin.ResolutionNew)
					r.Post("/{id}/resoluciones", admin.ResolutionCreate)
				})

				r.Route("/fases", func(r chi.Router) {
					r.Get("/{id}/editar", admin.PhaseEdit)
					r.Post("/{id}", admin.PhaseUpdate)
					r.Post("/{id}/actual", admin.PhaseSetCurrent)
					r.Delete("/{id}", admin.PhaseDelete)
				})

				r.Route("/resoluciones", func(r chi.Router) {
					r.Get("/{id}/editar", admin.ResolutionEdit)
					r.Post("/{id}", admin.ResolutionUpdate)
					r.Post("/{id}/publicar", admin.ResolutionPublish)
					r.Post("/{id}/despublicar", admin.ResolutionUnpublish)
					r.Delete("/{id}", admin.ResolutionDelete)
				})

				r.Route("/solicitudes", func(r chi.Router) {
					r.Post("/{id}/estado", admin.ApplicationSetStatus)
					r.Delete("/{id}", admin.ApplicationDelete)
				})

				r.Get("/importar", admin.ImportPage)
				r.Get("/importar/plantilla", admin.ImportTemplate)
				r.Post("/importar", admin.ImportSubmit)
				r.Get("/exportar/convocatorias", admin.CallsExport)
			})

			// Events
			r.Route("/eventos", func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageEvents))
				r.Get("/", admin.EventsList)
				r.Get("/nuevo", admin.EventNew)
				r.Post("/", admin.EventCreate)
				r.Get("/{id}/editar", admin.EventEdit)
				r.Post("/{id}", admin.EventUpdate)
				r.Post("/{id}/restaurar", admin.EventRestore)
				r.Post("/{id}/imagenes", admin.EventImageUpload)
				r.Delete("/{id}", admin.EventDelete)
				r.Delete("/{id}/definitivo", admin.EventForceDelete)
			})

			// News and documents
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageContent))

				r.Route("/noticias", func(r chi.Router) {
					r.Get("/", admin.NewsList)
					r.Get("/nueva", admin.NewsNew)
					r.Post("/", admin.NewsCreate)
					r.Get("/{id}/editar", admin.NewsEdit)
					r.Post("/{id}", admin.NewsUpdate)
					r.Post("/{id}/publicar", admin.NewsPublish)
					r.Post("/{id}/despublicar", admin.NewsUnpublish)
					r.Post("/{id}/restaurar", admin.NewsRestore)
					r.Delete("/{id}", admin.NewsDelete)
					r.Delete("/{id}/definitivo", admin.NewsForceDelete)
				})

				r.Route("/documentos", func(r chi.Router) {
					r.Get("/", admin.DocumentsList)
					r.Get("/nuevo", admin.DocumentNew)
					r.Post("/", admin.DocumentCreate)
					r.Get("/categorias", admin.DocumentCategories)
					r.Post("/categorias", admin.DocumentCategoryCreate)
					r.Delete("/categorias/{id}", admin.DocumentCategoryDelete)
					r.Get("/{id}/editar", admin.DocumentEdit)
					r.Post("/{id}", admin.DocumentUpdate)
					r.Delete("/{id}", admin.DocumentDelete)
				})
			})

			// Translations
			r.Route("/traducciones", func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageTranslations))
				r.Get("/", admin.TranslationsList)
				r.Get("/nueva", admin.TranslationNew)
				r.Post("/", admin.TranslationCreate)
				r.Get("/{id}/editar", admin.TranslationEdit)
				r.Post("/{id}", admin.TranslationUpdate)
				r.Delete("/{id}", admin.TranslationDelete)
			})

			// Lookup tables: programs, academic years, languages.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageLookups))

				r.Route("/programas", func(r chi.Router) {
					r.Get("/", admin.ProgramsPage)
					r.Post("/", admin.ProgramCreate)
					r.Get("/{id}/editar", admin.ProgramEdit)
					r.Post("/{id}", admin.ProgramUpdate)
					r.Delete("/{id}", admin.ProgramDelete)
				})

				r.Route("/cursos", func(r chi.Router) {
					r.Get("/", admin.AcademicYearsPage)
					r.Post("/", admin.AcademicYearCreate)
					r.Post("/{id}/actual", admin.AcademicYearSetCurrent)
					r.Delete("/{id}", admin.AcademicYearDelete)
				})

				r.Route("/idiomas", func(r chi.Router) {
					r.Get("/", admin.LanguagesPage)
					r.Post("/", admin.LanguageCreate)
					r.Post("/{id}/defecto", admin.LanguageSetDefault)
					r.Delete("/{id}", admin.LanguageDelete)
				})
			})

			// Media library — any authenticated editor may upload.
			r.Route("/medios", func(r chi.Router) {
				r.Get("/", admin.MediaLibrary)
				r.Post("/", admin.MediaUpload)
				r.Get("/{id}/servir", admin.MediaServe)
				r.Delete("/{id}", admin.MediaDelete)
			})

			// User management
			r.Route("/usuarios", func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageUsers))
				r.Get("/", admin.UsersList)
				r.Get("/nuevo", admin.UserNew)
				r.Post("/", admin.UserCreate)
				r.Get("/{id}/editar", admin.UserEdit)
				r.Post("/{id}", admin.UserUpdate)
				r.Delete("/{id}", admin.UserDelete)
			})

			// Settings
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(models.CapManageSettings))
				r.Get("/ajustes", admin.SettingsPage)
				r.Post("/ajustes", admin.SettingsSave)
			})
		})
	})

	// Public site.
	r.Get("/", public.Home)
	r.Get("/convocatorias", public.CallsList)
	r.Get("/convocatorias/{slug}", public.CallDetail)
	r.Get("/eventos", public.Events)
	r.Get("/eventos/{id}", public.EventDetail)
	r.Get("/calendario", public.Calendar)
	r.Get("/calendario/ics", public.CalendarICS)
	r.Get("/noticias", public.News)
	r.Get("/noticias/{slug}", public.NewsArticle)
	r.Get("/documentos", public.Documents)
	r.Get("/documentos/{id}/descargar", public.DocumentDownload)
	r.Get("/resoluciones/{id}/descargar", public.ResolutionDownload)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
