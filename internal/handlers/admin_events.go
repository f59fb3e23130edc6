// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"movilia/internal/forms"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/store"
)

// EventsList renders the agenda index or the trash when ?papelera=1.
func (a *Admin) EventsList(w http.ResponseWriter, r *http.Request) {
	filter := store.EventFilter{
		Deleted: r.URL.Query().Get("papelera") == "1",
	}
	if t := models.EventType(r.URL.Query().Get("tipo")); models.ValidEventType(t) {
		filter.Type = t
	}

	events, err := a.eventStore.List(filter)
	if err != nil {
		slog.Error("list events failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "events_list", &render.PageData{
		Title:   "Eventos",
		Section: "eventos",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"Events":       events,
			"ShowingTrash": filter.Deleted,
		},
	})
}

// EventNew renders the empty event form.
func (a *Admin) EventNew(w http.ResponseWriter, r *http.Request) {
	a.renderEventForm(w, r, nil, nil)
}

// EventCreate validates and creates an event.
func (a *Admin) EventCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindEvent(r.PostForm, "")
	if errs := form.Validate(); errs.Any() {
		a.renderBoundEventForm(w, r, nil, form, errs)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	event := &models.ErasmusEvent{CreatedBy: sess.UserID, UpdatedBy: sess.UserID}
	form.Apply(event)

	created, err := a.eventStore.Create(event)
	if err != nil {
		slog.Error("event create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "event", created.ID, map[string]string{"title": created.Title})
	a.invalidateEventPages(r, "event created")
	a.notify(w, r, "event-created", "Evento creado.")
	a.seeOther(w, r, "/admin/eventos/"+created.ID.String()+"/editar")
}

// EventEdit renders the edit form with attached images.
func (a *Admin) EventEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	event, err := a.eventStore.FindByID(id)
	if err != nil {
		slog.Error("event lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.NotFound(w, r)
		return
	}
	a.renderEventForm(w, r, event, nil)
}

// EventUpdate validates and saves the editable fields of an event.
func (a *Admin) EventUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	event, err := a.eventStore.FindByID(id)
	if err != nil {
		slog.Error("event lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindEvent(r.PostForm, "")
	if errs := form.Validate(); errs.Any() {
		a.renderBoundEventForm(w, r, event, form, errs)
		return
	}

	form.Apply(event)
	sess := middleware.SessionFromCtx(r.Context())
	updated, err := a.eventStore.Update(event, sess.UserID)
	if err != nil {
		slog.Error("event update failed", "error", err, "event", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "event", id, map[string]string{"title": updated.Title})
	a.invalidateEventPages(r, "event updated")
	a.notify(w, r, "event-updated", "Evento actualizado.")
	a.seeOther(w, r, "/admin/eventos")
}

// EventDelete soft-deletes an event unless attached images block it.
func (a *Admin) EventDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	err := a.eventStore.Delete(id, sess.UserID)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.notifyError(w, r, "event-delete-error", guard.Error(), guard.Counts)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("event delete failed", "error", err, "event", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "event", id, nil)
	a.invalidateEventPages(r, "event deleted")
	a.notify(w, r, "event-deleted", "Evento enviado a la papelera.")
	a.seeOther(w, r, "/admin/eventos")
}

// EventRestore brings an event back from the trash.
func (a *Admin) EventRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.eventStore.Restore(id, sess.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("event restore failed", "error", err, "event", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "restored", "event", id, nil)
	a.invalidateEventPages(r, "event restored")
	a.notify(w, r, "event-restored", "Evento restaurado.")
	a.seeOther(w, r, "/admin/eventos")
}

// EventForceDelete permanently removes a trashed event.
func (a *Admin) EventForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	err := a.eventStore.ForceDelete(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.notifyError(w, r, "event-delete-error", guard.Error(), guard.Counts)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("event force delete failed", "error", err, "event", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "force-deleted", "event", id, nil)
	a.notify(w, r, "event-force-deleted", "Evento eliminado definitivamente.")
	a.seeOther(w, r, "/admin/eventos?papelera=1")
}

// EventImageUpload attaches an uploaded image to an event. The file goes
// to the public bucket with WebP variants for the public site.
func (a *Admin) EventImageUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	event, err := a.eventStore.FindByID(id)
	if err != nil {
		slog.Error("event lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.NotFound(w, r)
		return
	}

	media, ue := a.processUpload(r, uploadOptions{
		imagesOnly:     true,
		bucket:         "public",
		attachableType: store.AttachableEvent,
		attachableID:   &event.ID,
	})
	if ue != nil {
		a.notifyError(w, r, "event-error", ue.msg, nil)
		return
	}

	a.record(r, "updated", "event", id, map[string]string{"image": media.Filename})
	a.invalidateEventPages(r, "event image uploaded")
	a.notify(w, r, "event-updated", "Imagen añadida.")
	a.seeOther(w, r, "/admin/eventos/"+id.String()+"/editar")
}

// renderEventForm renders the event form for a stored event.
func (a *Admin) renderEventForm(w http.ResponseWriter, r *http.Request, event *models.ErasmusEvent, errs forms.Errors) {
	a.renderEventFormData(w, r, event, errs)
}

// renderBoundEventForm re-renders the form with what the user submitted.
func (a *Admin) renderBoundEventForm(w http.ResponseWriter, r *http.Request, event *models.ErasmusEvent, form *forms.EventForm, errs forms.Errors) {
	edited := models.ErasmusEvent{}
	if event != nil {
		edited = *event
	}
	form.Apply(&edited)
	a.renderEventFormData(w, r, &edited, errs)
}

func (a *Admin) renderEventFormData(w http.ResponseWriter, r *http.Request, event *models.ErasmusEvent, errs forms.Errors) {
	programs, err := a.programStore.List()
	if err != nil {
		slog.Error("list programs failed", "error", err)
	}
	calls, err := a.callStore.List(store.CallFilter{})
	if err != nil {
		slog.Error("list calls failed", "error", err)
	}

	var images []models.Media
	if event != nil && event.ID != uuid.Nil {
		images, err = a.mediaStore.ListForAttachable(store.AttachableEvent, event.ID)
		if err != nil {
			slog.Error("list event images failed", "error", err, "event", event.ID)
		}
	}

	title := "Nuevo evento"
	if event != nil && event.ID != uuid.Nil {
		title = "Editar evento"
	}

	var publicURL string
	if a.storageClient != nil {
		publicURL = a.storageClient.FileURL("")
	}

	a.renderer.Page(w, r, "event_form", &render.PageData{
		Title:   title,
		Section: "eventos",
		Data: map[string]any{
			"Event":      event,
			"EventTypes": models.EventTypes,
			"Programs":   programs,
			"Calls":      calls,
			"Images":     images,
			"Errors":     map[string]string(errs),
			"PublicURL":  publicURL,
		},
	})
}
