// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"movilia/internal/forms"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/slug"
	"movilia/internal/store"
)

// CallsList renders the call index, filtered by status or showing the
// trash when ?papelera=1.
func (a *Admin) CallsList(w http.ResponseWriter, r *http.Request) {
	filter := store.CallFilter{
		Deleted: r.URL.Query().Get("papelera") == "1",
	}
	status := models.CallStatus(r.URL.Query().Get("estado"))
	switch status {
	case models.CallStatusBorrador, models.CallStatusAbierta, models.CallStatusCerrada,
		models.CallStatusEnBaremacion, models.CallStatusResuelta, models.CallStatusArchivada:
		filter.Status = status
	default:
		status = ""
	}

	calls, err := a.callStore.List(filter)
	if err != nil {
		slog.Error("list calls failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "calls_list", &render.PageData{
		Title:   "Convocatorias",
		Section: "convocatorias",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"Calls":        calls,
			"Status":       string(status),
			"Statuses":     []string{"borrador", "abierta", "cerrada", "en_baremacion", "resuelta", "archivada"},
			"ShowingTrash": filter.Deleted,
		},
	})
}

// CallNew renders the empty call form.
func (a *Admin) CallNew(w http.ResponseWriter, r *http.Request) {
	a.renderCallForm(w, r, nil, nil, nil)
}

// CallCreate validates the submitted form and creates a call in borrador.
func (a *Admin) CallCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindCall(r.PostForm, "")
	if errs := form.Validate(); errs.Any() {
		a.renderCallForm(w, r, nil, form, errs)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	call := &models.Call{CreatedBy: sess.UserID, UpdatedBy: sess.UserID}
	form.Apply(call)
	call.Slug = a.uniqueCallSlug(call.Title, uuid.Nil)

	created, err := a.callStore.Create(call)
	if err != nil {
		slog.Error("call create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "call", created.ID, map[string]string{"title": created.Title})
	a.notify(w, r, "call-created", "Convocatoria creada.")
	a.seeOther(w, r, "/admin/convocatorias/"+created.ID.String())
}

// CallDetail renders one call with its phases, resolutions and
// applications.
func (a *Admin) CallDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	call, err := a.callStore.FindByID(id)
	if err != nil {
		slog.Error("call lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.NotFound(w, r)
		return
	}

	phases, err := a.phaseStore.ListByCall(id)
	if err != nil {
		slog.Error("list phases failed", "error", err, "call", id)
	}
	resolutions, err := a.resStore.ListByCall(id)
	if err != nil {
		slog.Error("list resolutions failed", "error", err, "call", id)
	}
	applications, err := a.appStore.ListByCall(id)
	if err != nil {
		slog.Error("list applications failed", "error", err, "call", id)
	}

	a.renderer.Page(w, r, "call_detail", &render.PageData{
		Title:   call.Title,
		Section: "convocatorias",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"Call":         call,
			"Phases":       phases,
			"Resolutions":  resolutions,
			"Applications": applications,
			"Transitions":  models.AllowedTransitions(call.Status),
		},
	})
}

// CallEdit renders the edit form for a call.
func (a *Admin) CallEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	call, err := a.callStore.FindByID(id)
	if err != nil {
		slog.Error("call lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.NotFound(w, r)
		return
	}
	a.renderCallForm(w, r, call, nil, nil)
}

// CallUpdate validates and saves the editable fields of a call.
func (a *Admin) CallUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	call, err := a.callStore.FindByID(id)
	if err != nil {
		slog.Error("call lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindCall(r.PostForm, "")
	if errs := form.Validate(); errs.Any() {
		a.renderCallForm(w, r, call, form, errs)
		return
	}

	titleChanged := call.Title != form.Title
	form.Apply(call)
	if titleChanged {
		call.Slug = a.uniqueCallSlug(call.Title, call.ID)
	}

	sess := middleware.SessionFromCtx(r.Context())
	updated, err := a.callStore.Update(call, sess.UserID)
	if err != nil {
		slog.Error("call update failed", "error", err, "call", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "call", id, map[string]string{"title": updated.Title})
	a.invalidateCallPages(r, "call updated: "+updated.Slug)
	a.notify(w, r, "call-updated", "Convocatoria actualizada.")
	a.seeOther(w, r, "/admin/convocatorias/"+id.String())
}

// CallChangeStatus moves a call through its lifecycle. Invalid
// transitions are refused server-side with an error notification.
func (a *Admin) CallChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	to := models.CallStatus(r.FormValue("status"))
	sess := middleware.SessionFromCtx(r.Context())

	call, err := a.callStore.ChangeStatus(id, to, sess.UserID)
	var invalid *store.ErrInvalidTransition
	if errors.As(err, &invalid) {
		a.notifyError(w, r, "call-status-error", "Transición de estado no permitida.", nil)
		return
	}
	if err != nil {
		slog.Error("call status change failed", "error", err, "call", id, "to", to)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "status-changed", "call", id, map[string]string{"to": string(to)})
	a.invalidateCallPages(r, "call status changed: "+call.Slug)
	a.notify(w, r, "call-status-changed", "Estado actualizado.")
	a.seeOther(w, r, "/admin/convocatorias/"+id.String())
}

// CallDelete soft-deletes a call unless dependent rows block it.
func (a *Admin) CallDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	err := a.callStore.Delete(id, sess.UserID)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.notifyError(w, r, "call-delete-error", guard.Error(), guard.Counts)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("call delete failed", "error", err, "call", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "call", id, nil)
	a.invalidateCallPages(r, "call deleted")
	a.notify(w, r, "call-deleted", "Convocatoria enviada a la papelera.")
	a.seeOther(w, r, "/admin/convocatorias")
}

// CallRestore brings a call back from the trash.
func (a *Admin) CallRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.callStore.Restore(id, sess.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("call restore failed", "error", err, "call", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "restored", "call", id, nil)
	a.invalidateCallPages(r, "call restored")
	a.notify(w, r, "call-restored", "Convocatoria restaurada.")
	a.seeOther(w, r, "/admin/convocatorias")
}

// CallForceDelete permanently removes a trashed call.
func (a *Admin) CallForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	err := a.callStore.ForceDelete(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.notifyError(w, r, "call-delete-error", guard.Error(), guard.Counts)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("call force delete failed", "error", err, "call", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "force-deleted", "call", id, nil)
	a.notify(w, r, "call-force-deleted", "Convocatoria eliminada definitivamente.")
	a.seeOther(w, r, "/admin/convocatorias?papelera=1")
}

// CallValidateField is the inline validation endpoint the form hits on
// change. It responds with the error message for the changed field, or
// an empty body when the value is fine.
func (a *Admin) CallValidateField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	field := r.PostForm.Get("field")
	if field == "" {
		// Single-input triggers submit only the field itself; find it.
		for name := range r.PostForm {
			if name != "csrf_token" && name != "id" {
				field = name
				break
			}
		}
	}
	if field == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.BindCall(r.PostForm, field)
	errs := form.ValidateField(field)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html.EscapeString(errs[field]))
}

// renderCallForm renders the call form, optionally carrying the
// submitted values and their validation errors back to the operator.
func (a *Admin) renderCallForm(w http.ResponseWriter, r *http.Request, call *models.Call, form *forms.CallForm, errs forms.Errors) {
	programs, err := a.programStore.List()
	if err != nil {
		slog.Error("list programs failed", "error", err)
	}
	years, err := a.yearStore.List()
	if err != nil {
		slog.Error("list academic years failed", "error", err)
	}

	title := "Nueva convocatoria"
	if call != nil {
		title = "Editar convocatoria"
	}

	// Re-rendering after a failed submit shows what the user typed, not
	// what the database holds.
	view := call
	if form != nil {
		edited := models.Call{}
		if call != nil {
			edited = *call
		}
		form.Apply(&edited)
		edited.Destinations = forms.FilterBlank(form.RawDestinations)
		view = &edited
	}

	a.renderer.Page(w, r, "call_form", &render.PageData{
		Title:   title,
		Section: "convocatorias",
		Data: map[string]any{
			"Call":        view,
			"Programs":    programs,
			"Years":       years,
			"Errors":      map[string]string(errs),
			"ScoringJSON": scoringJSON(view),
		},
	})
}

// scoringJSON renders the scoring table as indented JSON for the form
// textarea.
func scoringJSON(call *models.Call) string {
	rows := []models.ScoringRow{{}}
	if call != nil && len(call.ScoringTable) > 0 {
		rows = call.ScoringTable
	}
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

// uniqueCallSlug generates a slug from the title and suffixes it until
// no other live call claims it.
func (a *Admin) uniqueCallSlug(title string, excludeID uuid.UUID) string {
	base := slug.Generate(title)
	if base == "" {
		base = "convocatoria"
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := a.callStore.SlugTaken(candidate, excludeID)
		if err != nil {
			slog.Error("slug check failed", "error", err, "slug", candidate)
			return fmt.Sprintf("%s-%d", base, time.Now().Unix())
		}
		if !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// PhaseNew renders the empty phase form for a call.
func (a *Admin) PhaseNew(w http.ResponseWriter, r *http.Request) {
	call, ok := a.findCall(w, r)
	if !ok {
		return
	}
	a.renderPhaseForm(w, r, call, nil, nil)
}

// PhaseCreate adds a phase to a call.
func (a *Admin) PhaseCreate(w http.ResponseWriter, r *http.Request) {
	call, ok := a.findCall(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	phase, errs := bindPhase(r, call.ID)
	if errs.Any() {
		a.renderPhaseForm(w, r, call, phase, errs)
		return
	}

	created, err := a.phaseStore.Create(phase)
	if err != nil {
		slog.Error("phase create failed", "error", err, "call", call.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "call_phase", created.ID, map[string]string{"name": created.Name})
	a.invalidateCallPages(r, "phase created: "+call.Slug)
	a.notify(w, r, "phase-created", "Fase creada.")
	a.seeOther(w, r, "/admin/convocatorias/"+call.ID.String())
}

// PhaseEdit renders the edit form for a phase.
func (a *Admin) PhaseEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	phase, err := a.phaseStore.FindByID(id)
	if err != nil {
		slog.Error("phase lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if phase == nil {
		http.NotFound(w, r)
		return
	}
	call, err := a.callStore.FindByID(phase.CallID)
	if err != nil || call == nil {
		http.NotFound(w, r)
		return
	}
	a.renderPhaseForm(w, r, call, phase, nil)
}

// PhaseUpdate saves the editable fields of a phase.
func (a *Admin) PhaseUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	phase, err := a.phaseStore.FindByID(id)
	if err != nil {
		slog.Error("phase lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if phase == nil {
		http.NotFound(w, r)
		return
	}
	call, err := a.callStore.FindByID(phase.CallID)
	if err != nil || call == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	bound, errs := bindPhase(r, phase.CallID)
	if errs.Any() {
		bound.ID = phase.ID
		a.renderPhaseForm(w, r, call, bound, errs)
		return
	}
	bound.ID = phase.ID
	bound.IsCurrent = phase.IsCurrent

	if _, err := a.phaseStore.Update(bound); err != nil {
		slog.Error("phase update failed", "error", err, "phase", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "updated", "call_phase", id, map[string]string{"name": bound.Name})
	a.invalidateCallPages(r, "phase updated: "+call.Slug)
	a.notify(w, r, "phase-updated", "Fase actualizada.")
	a.seeOther(w, r, "/admin/convocatorias/"+phase.CallID.String())
}

// PhaseSetCurrent marks a phase as the call's current one, clearing its
// siblings.
func (a *Admin) PhaseSetCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	phase, err := a.phaseStore.SetCurrent(id)
	if err != nil {
		slog.Error("phase set current failed", "error", err, "phase", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if phase == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "call_phase", id, map[string]string{"is_current": "true"})
	a.invalidateCallPages(r, "phase set current")
	a.notify(w, r, "phase-updated", "Fase marcada como actual.")
	a.seeOther(w, r, "/admin/convocatorias/"+phase.CallID.String())
}

// PhaseDelete removes a phase from its call.
func (a *Admin) PhaseDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	phase, err := a.phaseStore.FindByID(id)
	if err != nil {
		slog.Error("phase lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if phase == nil {
		http.NotFound(w, r)
		return
	}

	if err := a.phaseStore.Delete(id); err != nil {
		slog.Error("phase delete failed", "error", err, "phase", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "call_phase", id, nil)
	a.invalidateCallPages(r, "phase deleted")
	a.notify(w, r, "phase-deleted", "Fase eliminada.")
	a.seeOther(w, r, "/admin/convocatorias/"+phase.CallID.String())
}

// ResolutionNew renders the empty resolution form for a call.
func (a *Admin) ResolutionNew(w http.ResponseWriter, r *http.Request) {
	call, ok := a.findCall(w, r)
	if !ok {
		return
	}
	a.renderResolutionForm(w, r, call, nil, nil)
}

// ResolutionCreate attaches a resolution document to a call.
func (a *Admin) ResolutionCreate(w http.ResponseWriter, r *http.Request) {
	call, ok := a.findCall(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	res, errs := bindResolution(r, call.ID)
	if errs.Any() {
		a.renderResolutionForm(w, r, call, res, errs)
		return
	}

	created, err := a.resStore.Create(res)
	if err != nil {
		slog.Error("resolution create failed", "error", err, "call", call.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "resolution", created.ID, map[string]string{"title": created.Title})
	a.notify(w, r, "resolution-created", "Resolución creada.")
	a.seeOther(w, r, "/admin/convocatorias/"+call.ID.String())
}

// ResolutionEdit renders the edit form for a resolution.
func (a *Admin) ResolutionEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	res, err := a.resStore.FindByID(id)
	if err != nil {
		slog.Error("resolution lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		http.NotFound(w, r)
		return
	}
	call, err := a.callStore.FindByID(res.CallID)
	if err != nil || call == nil {
		http.NotFound(w, r)
		return
	}
	a.renderResolutionForm(w, r, call, res, nil)
}

// ResolutionUpdate saves the editable fields of a resolution.
func (a *Admin) ResolutionUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	res, err := a.resStore.FindByID(id)
	if err != nil {
		slog.Error("resolution lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		http.NotFound(w, r)
		return
	}
	call, err := a.callStore.FindByID(res.CallID)
	if err != nil || call == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	bound, errs := bindResolution(r, res.CallID)
	if errs.Any() {
		bound.ID = res.ID
		a.renderResolutionForm(w, r, call, bound, errs)
		return
	}
	bound.ID = res.ID
	bound.PublishedAt = res.PublishedAt

	if _, err := a.resStore.Update(bound); err != nil {
		slog.Error("resolution update failed", "error", err, "resolution", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "updated", "resolution", id, map[string]string{"title": bound.Title})
	a.invalidateCallPages(r, "resolution updated: "+call.Slug)
	a.notify(w, r, "resolution-updated", "Resolución actualizada.")
	a.seeOther(w, r, "/admin/convocatorias/"+res.CallID.String())
}

// ResolutionPublish makes a resolution visible on the public call page.
func (a *Admin) ResolutionPublish(w http.ResponseWriter, r *http.Request) {
	a.setResolutionPublished(w, r, true)
}

// ResolutionUnpublish hides a resolution from the public call page.
func (a *Admin) ResolutionUnpublish(w http.ResponseWriter, r *http.Request) {
	a.setResolutionPublished(w, r, false)
}

func (a *Admin) setResolutionPublished(w http.ResponseWriter, r *http.Request, publish bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var (
		res *models.Resolution
		err error
	)
	if publish {
		res, err = a.resStore.Publish(id)
	} else {
		res, err = a.resStore.Unpublish(id)
	}
	if err != nil {
		slog.Error("resolution publish toggle failed", "error", err, "resolution", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		http.NotFound(w, r)
		return
	}

	action, event, msg := "published", "resolution-updated", "Resolución publicada."
	if !publish {
		action, msg = "unpublished", "Resolución despublicada."
	}
	a.record(r, action, "resolution", id, nil)
	a.invalidateCallPages(r, "resolution visibility changed")
	a.notify(w, r, event, msg)
	a.seeOther(w, r, "/admin/convocatorias/"+res.CallID.String())
}

// ResolutionDelete removes a resolution.
func (a *Admin) ResolutionDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	res, err := a.resStore.FindByID(id)
	if err != nil {
		slog.Error("resolution lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		http.NotFound(w, r)
		return
	}

	if err := a.resStore.Delete(id); err != nil {
		slog.Error("resolution delete failed", "error", err, "resolution", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "resolution", id, nil)
	a.invalidateCallPages(r, "resolution deleted")
	a.notify(w, r, "resolution-deleted", "Resolución eliminada.")
	a.seeOther(w, r, "/admin/convocatorias/"+res.CallID.String())
}

// ApplicationSetStatus moves an application between review states.
func (a *Admin) ApplicationSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	status := models.ApplicationStatus(r.FormValue("status"))
	switch status {
	case models.ApplicationPresentada, models.ApplicationAdmitida, models.ApplicationExcluida:
	default:
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	app, err := a.appStore.UpdateStatus(id, status)
	if err != nil {
		slog.Error("application status update failed", "error", err, "application", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if app == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "status-changed", "application", id, map[string]string{"to": string(status)})
	a.notify(w, r, "application-updated", "Solicitud actualizada.")
	a.seeOther(w, r, "/admin/convocatorias/"+app.CallID.String())
}

// ApplicationDelete removes one application row.
func (a *Admin) ApplicationDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	app, err := a.appStore.FindByID(id)
	if err != nil {
		slog.Error("application lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if app == nil {
		http.NotFound(w, r)
		return
	}

	if err := a.appStore.Delete(id); err != nil {
		slog.Error("application delete failed", "error", err, "application", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "application", id, nil)
	a.notify(w, r, "application-deleted", "Solicitud eliminada.")
	a.seeOther(w, r, "/admin/convocatorias/"+app.CallID.String())
}

// findCall resolves the {id} route parameter to a live call.
func (a *Admin) findCall(w http.ResponseWriter, r *http.Request) (*models.Call, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	call, err := a.callStore.FindByID(id)
	if err != nil {
		slog.Error("call lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if call == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return call, true
}

// bindPhase reads the phase form. Validation is simple enough to do
// inline: a name, a known type, and an ordered date range.
func bindPhase(r *http.Request, callID uuid.UUID) (*models.CallPhase, forms.Errors) {
	errs := forms.Errors{}
	phase := &models.CallPhase{
		CallID:    callID,
		Name:      strings.TrimSpace(r.FormValue("name")),
		PhaseType: models.PhaseType(r.FormValue("phase_type")),
	}
	if phase.Name == "" {
		errs["name"] = "El nombre es obligatorio."
	}
	switch phase.PhaseType {
	case models.PhaseTypeSolicitud, models.PhaseTypeEntrevista, models.PhaseTypeBaremacion,
		models.PhaseTypeAlegacion, models.PhaseTypeOtra:
	default:
		errs["phase_type"] = "Tipo de fase no válido."
	}

	phase.StartDate = parseFormDate(r.FormValue("start_date"), "start_date", errs)
	phase.EndDate = parseFormDate(r.FormValue("end_date"), "end_date", errs)
	if phase.StartDate != nil && phase.EndDate != nil && !phase.EndDate.After(*phase.StartDate) {
		errs["end_date"] = "La fecha de fin debe ser posterior a la de inicio."
	}
	return phase, errs
}

// bindResolution reads the resolution form.
func bindResolution(r *http.Request, callID uuid.UUID) (*models.Resolution, forms.Errors) {
	errs := forms.Errors{}
	res := &models.Resolution{
		CallID: callID,
		Title:  strings.TrimSpace(r.FormValue("title")),
		Type:   models.ResolutionType(r.FormValue("type")),
	}
	if res.Title == "" {
		errs["title"] = "El título es obligatorio."
	}
	switch res.Type {
	case models.ResolutionProvisional, models.ResolutionDefinitiva, models.ResolutionRectificativa:
	default:
		errs["type"] = "Tipo de resolución no válido."
	}

	if t := parseFormDate(r.FormValue("official_date"), "official_date", errs); t != nil {
		res.OfficialDate = *t
	} else if _, flagged := errs["official_date"]; !flagged {
		errs["official_date"] = "La fecha oficial es obligatoria."
	}

	if v := r.FormValue("call_phase_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			res.CallPhaseID = &id
		} else {
			errs["call_phase_id"] = "Fase no válida."
		}
	}
	if v := r.FormValue("file_media_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			res.FileMediaID = &id
		} else {
			errs["file_media_id"] = "Fichero no válido."
		}
	}
	return res, errs
}

// parseFormDate parses an optional date input, flagging bad values.
func parseFormDate(v, field string, errs forms.Errors) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	errs[field] = "Fecha no válida."
	return nil
}

func (a *Admin) renderPhaseForm(w http.ResponseWriter, r *http.Request, call *models.Call, phase *models.CallPhase, errs forms.Errors) {
	a.renderer.Page(w, r, "phase_form", &render.PageData{
		Title:   "Fase de " + call.Title,
		Section: "convocatorias",
		Data: map[string]any{
			"Call":       call,
			"Phase":      phase,
			"PhaseTypes": []string{"solicitud", "entrevista", "baremacion", "alegacion", "otra"},
			"Errors":     map[string]string(errs),
		},
	})
}

func (a *Admin) renderResolutionForm(w http.ResponseWriter, r *http.Request, call *models.Call, res *models.Resolution, errs forms.Errors) {
	phases, err := a.phaseStore.ListByCall(call.ID)
	if err != nil {
		slog.Error("list phases failed", "error", err, "call", call.ID)
	}
	files, err := a.mediaStore.List(100, 0)
	if err != nil {
		slog.Error("list media failed", "error", err)
	}

	a.renderer.Page(w, r, "resolution_form", &render.PageData{
		Title:   "Resolución de " + call.Title,
		Section: "convocatorias",
		Data: map[string]any{
			"Call":       call,
			"Resolution": res,
			"Phases":     phases,
			"Files":      files,
			"Errors":     map[string]string(errs),
		},
	})
}
