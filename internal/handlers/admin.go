// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handler groups of the application:
// Admin for the back office, Auth for login and 2FA, and Public for the
// visitor-facing site.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"movilia/internal/cache"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/session"
	"movilia/internal/storage"
	"movilia/internal/store"
)

// Admin groups the back-office HTTP handlers. storageClient may be nil
// when S3 is not configured; upload endpoints then refuse politely.
type Admin struct {
	renderer      *render.Renderer
	sessions      *session.Store
	userStore     *store.UserStore
	callStore     *store.CallStore
	phaseStore    *store.PhaseStore
	resStore      *store.ResolutionStore
	appStore      *store.ApplicationStore
	eventStore    *store.EventStore
	trStore       *store.TranslationStore
	programStore  *store.ProgramStore
	yearStore     *store.AcademicYearStore
	langStore     *store.LanguageStore
	settingStore  *store.SettingStore
	newsStore     *store.NewsStore
	docStore      *store.DocumentStore
	mediaStore    *store.MediaStore
	activityStore *store.ActivityStore
	storageClient *storage.Client
	pageCache     *cache.PageCache
	cacheLog      *store.CacheInvalidationStore
}

// NewAdmin creates the Admin handler group.
func NewAdmin(
	renderer *render.Renderer,
	sessions *session.Store,
	userStore *store.UserStore,
	callStore *store.CallStore,
	phaseStore *store.PhaseStore,
	resStore *store.ResolutionStore,
	appStore *store.ApplicationStore,
	eventStore *store.EventStore,
	trStore *store.TranslationStore,
	programStore *store.ProgramStore,
	yearStore *store.AcademicYearStore,
	langStore *store.LanguageStore,
	settingStore *store.SettingStore,
	newsStore *store.NewsStore,
	docStore *store.DocumentStore,
	mediaStore *store.MediaStore,
	activityStore *store.ActivityStore,
	storageClient *storage.Client,
	pageCache *cache.PageCache,
	cacheLog *store.CacheInvalidationStore,
) *Admin {
	return &Admin{
		renderer:      renderer,
		sessions:      sessions,
		userStore:     userStore,
		callStore:     callStore,
		phaseStore:    phaseStore,
		resStore:      resStore,
		appStore:      appStore,
		eventStore:    eventStore,
		trStore:       trStore,
		programStore:  programStore,
		yearStore:     yearStore,
		langStore:     langStore,
		settingStore:  settingStore,
		newsStore:     newsStore,
		docStore:      docStore,
		mediaStore:    mediaStore,
		activityStore: activityStore,
		storageClient: storageClient,
		pageCache:     pageCache,
		cacheLog:      cacheLog,
	}
}

// Dashboard renders the admin landing page with entity counts and the
// recent activity feed.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	callCount, _ := a.callStore.Count()
	eventCount, _ := a.eventStore.Count()
	newsCount, _ := a.newsStore.Count()
	mediaCount, _ := a.mediaStore.Count()

	open, err := a.callStore.List(store.CallFilter{Status: models.CallStatusAbierta})
	if err != nil {
		slog.Error("dashboard open calls failed", "error", err)
	}

	activity, err := a.activityStore.ListRecent(10)
	if err != nil {
		slog.Error("dashboard activity failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Panel",
		Section: "dashboard",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"CallCount":     callCount,
			"OpenCallCount": len(open),
			"EventCount":    eventCount,
			"NewsCount":     newsCount,
			"MediaCount":    mediaCount,
			"Activity":      activity,
		},
	})
}

// UsersList renders the user management index.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.userStore.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.renderer.Page(w, r, "users_list", &render.PageData{
		Title:   "Usuarios",
		Section: "usuarios",
		Flashes: popFlash(w, r),
		Data:    map[string]any{"Users": users},
	})
}

// UserNew renders the empty user form.
func (a *Admin) UserNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "user_form", &render.PageData{
		Title:   "Nuevo usuario",
		Section: "usuarios",
		Data:    map[string]any{},
	})
}

// UserCreate validates and creates a back-office user.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := models.Role(r.FormValue("role"))

	if msg := validateUser(email, displayName, password, role, true); msg != "" {
		a.renderer.Page(w, r, "user_form", &render.PageData{
			Title:   "Nuevo usuario",
			Section: "usuarios",
			Data:    map[string]any{"Error": msg},
		})
		return
	}

	existing, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("user email check failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		a.renderer.Page(w, r, "user_form", &render.PageData{
			Title:   "Nuevo usuario",
			Section: "usuarios",
			Data:    map[string]any{"Error": "Ya existe un usuario con ese correo."},
		})
		return
	}

	created, err := a.userStore.Create(email, password, displayName, role)
	if err != nil {
		slog.Error("user create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "user", created.ID, map[string]string{"email": created.Email})
	a.notify(w, r, "user-created", "Usuario creado.")
	a.seeOther(w, r, "/admin/usuarios")
}

// UserEdit renders the edit form for a user.
func (a *Admin) UserEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	user, err := a.userStore.FindByID(id)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.NotFound(w, r)
		return
	}
	a.renderer.Page(w, r, "user_form", &render.PageData{
		Title:   "Editar usuario",
		Section: "usuarios",
		Data:    map[string]any{"User": user},
	})
}

// UserUpdate changes a user's role. The form submits name and email too,
// but only the role is mutable after creation.
func (a *Admin) UserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	user, err := a.userStore.FindByID(id)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.NotFound(w, r)
		return
	}

	role := models.Role(r.FormValue("role"))
	if role != models.RoleAdmin && role != models.RoleGestor && role != models.RoleEditor {
		a.renderer.Page(w, r, "user_form", &render.PageData{
			Title:   "Editar usuario",
			Section: "usuarios",
			Data:    map[string]any{"User": user, "Error": "Rol no válido."},
		})
		return
	}

	if err := a.userStore.UpdateRole(id, role); err != nil {
		slog.Error("user role update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "updated", "user", id, map[string]string{"role": string(role)})
	a.notify(w, r, "user-updated", "Usuario actualizado.")
	a.seeOther(w, r, "/admin/usuarios")
}

// UserDelete removes a user. The acting admin cannot delete themself.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.UserID == id {
		a.notifyError(w, r, "user-delete-error", "No puedes eliminar tu propio usuario.", nil)
		return
	}
	if err := a.userStore.Delete(id); err != nil {
		slog.Error("user delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.record(r, "deleted", "user", id, nil)
	a.notify(w, r, "user-deleted", "Usuario eliminado.")
	a.seeOther(w, r, "/admin/usuarios")
}

// SettingsPage renders all settings grouped for editing.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	settings, err := a.settingStore.List()
	if err != nil {
		slog.Error("list settings failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type group struct {
		Name     string
		Settings []models.Setting
	}
	var groups []group
	index := map[string]int{}
	for _, s := range settings {
		i, ok := index[s.Group]
		if !ok {
			i = len(groups)
			index[s.Group] = i
			groups = append(groups, group{Name: s.Group})
		}
		groups[i].Settings = append(groups[i].Settings, s)
	}

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Ajustes",
		Section: "ajustes",
		Flashes: popFlash(w, r),
		Data:    map[string]any{"Groups": groups},
	})
}

// SettingsSave persists every submitted setting under its existing group.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	settings, err := a.settingStore.List()
	if err != nil {
		slog.Error("list settings failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	byGroup := map[string]map[string]string{}
	for _, s := range settings {
		if !r.Form.Has(s.Key) {
			continue
		}
		value := strings.TrimSpace(r.FormValue(s.Key))
		if value == s.Value {
			continue
		}
		if byGroup[s.Group] == nil {
			byGroup[s.Group] = map[string]string{}
		}
		byGroup[s.Group][s.Key] = value
	}
	for group, values := range byGroup {
		if err := a.settingStore.SetMany(values, group); err != nil {
			slog.Error("settings save failed", "error", err, "group", group)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	// Settings feed the public chrome (site name, footer), so every cached
	// page is stale now.
	a.invalidate(r, "settings updated")
	a.notify(w, r, "settings-updated", "Ajustes guardados.")
	a.seeOther(w, r, "/admin/ajustes")
}

// validateUser checks the user form fields and returns the first problem.
func validateUser(email, displayName, password string, role models.Role, requirePassword bool) string {
	if displayName == "" {
		return "El nombre es obligatorio."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "El correo electrónico no es válido."
	}
	if requirePassword && len(password) < 8 {
		return "La contraseña debe tener al menos 8 caracteres."
	}
	if role != models.RoleAdmin && role != models.RoleGestor && role != models.RoleEditor {
		return "Rol no válido."
	}
	return ""
}

// parseID reads the {id} chi route parameter. On failure it writes a 400
// and returns ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// seeOther finishes a successful mutation: HTMX requests get an
// HX-Redirect header, full-page submissions a 303.
func (a *Admin) seeOther(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// notify dispatches a named client event. HTMX requests receive it in the
// HX-Trigger header; full-page flows carry it as a one-time flash.
func (a *Admin) notify(w http.ResponseWriter, r *http.Request, event, message string) {
	if r.Header.Get("HX-Request") == "true" {
		payload, _ := json.Marshal(map[string]any{event: map[string]string{"message": message}})
		w.Header().Set("HX-Trigger", string(payload))
		return
	}
	setFlash(w, "success", message)
}

// notifyError dispatches a named error event, optionally carrying the
// dependent-row counts that blocked the operation. It writes a 409 for
// HTMX callers so the client keeps the unchanged page.
func (a *Admin) notifyError(w http.ResponseWriter, r *http.Request, event, message string, counts map[string]int) {
	if r.Header.Get("HX-Request") == "true" {
		detail := map[string]any{"message": message}
		if len(counts) > 0 {
			detail["counts"] = counts
		}
		payload, _ := json.Marshal(map[string]any{event: detail})
		w.Header().Set("HX-Trigger", string(payload))
		w.WriteHeader(http.StatusConflict)
		return
	}
	setFlash(w, "error", message)
	http.Redirect(w, r, r.Referer(), http.StatusSeeOther)
}

// record writes an activity log row for a mutating action. Failures are
// logged and never abort the request.
func (a *Admin) record(r *http.Request, action, subjectType string, subjectID uuid.UUID, props any) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return
	}
	if err := a.activityStore.Record(sess.UserID, action, subjectType, subjectID, props); err != nil {
		slog.Error("activity record failed", "error", err, "action", action, "subject", subjectType)
	}
}

// invalidate clears cached public pages under the given prefixes, or all
// of them when none are named, and logs each invalidation.
func (a *Admin) invalidate(r *http.Request, reason string, prefixes ...string) {
	ctx := r.Context()
	if len(prefixes) == 0 {
		a.pageCache.InvalidateAll(ctx)
		a.logInvalidation("*", reason)
		return
	}
	for _, p := range prefixes {
		a.pageCache.InvalidatePrefix(ctx, p)
		a.logInvalidation(p+"*", reason)
	}
}

func (a *Admin) logInvalidation(key, reason string) {
	if a.cacheLog == nil {
		return
	}
	if err := a.cacheLog.Record(key, reason); err != nil {
		slog.Error("cache invalidation log failed", "error", err, "key", key)
	}
}

// invalidateCallPages clears the call pages plus the home page, which
// lists open calls.
func (a *Admin) invalidateCallPages(r *http.Request, reason string) {
	a.invalidate(r, reason, cache.CallsPrefix(), cache.HomePrefix())
}

// invalidateEventPages clears events, every calendar rendition, the ICS
// feed and the home page.
func (a *Admin) invalidateEventPages(r *http.Request, reason string) {
	a.invalidate(r, reason, cache.EventsPrefix(), cache.CalendarPrefix(), cache.HomePrefix())
	a.pageCache.Invalidate(r.Context(), cache.ICSKey())
	a.logInvalidation(cache.ICSKey(), reason)
}

func (a *Admin) invalidateNewsPages(r *http.Request, reason string) {
	a.invalidate(r, reason, cache.NewsPrefix(), cache.HomePrefix())
}

func (a *Admin) invalidateDocumentPages(r *http.Request, reason string) {
	a.invalidate(r, reason, cache.DocumentsPrefix())
}

// flashCookie carries one-time notifications across a redirect.
const flashCookie = "mv_flash"

func setFlash(w http.ResponseWriter, typ, message string) {
	raw, _ := json.Marshal(render.Flash{Type: typ, Message: message})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/admin",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) []render.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:    flashCookie,
		Path:    "/admin",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
	raw, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f render.Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return []render.Flash{f}
}
