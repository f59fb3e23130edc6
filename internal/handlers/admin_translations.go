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
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/store"
)

// TranslationsList renders the translation index, optionally filtered
// by ?tipo=.
func (a *Admin) TranslationsList(w http.ResponseWriter, r *http.Request) {
	filter := store.TranslationFilter{}
	tipo := models.TranslatableType(r.URL.Query().Get("tipo"))
	if models.ValidTranslatableType(tipo) {
		filter.Type = tipo
	}

	translations, err := a.trStore.List(filter)
	if err != nil {
		slog.Error("list translations failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "translations_list", &render.PageData{
		Title:   "Traducciones",
		Section: "traducciones",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"Translations": translations,
			"Type":         string(filter.Type),
			"Types":        models.TranslatableTypes,
		},
	})
}

// TranslationNew renders the empty translation form.
func (a *Admin) TranslationNew(w http.ResponseWriter, r *http.Request) {
	a.renderTranslationForm(w, r, nil, nil)
}

// TranslationCreate validates and creates a translation. The
// (type, id, language, field) tuple must be unique.
func (a *Admin) TranslationCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindTranslation(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		a.renderBoundTranslationForm(w, r, nil, form, errs)
		return
	}

	tr := &models.Translation{}
	form.Apply(tr)

	if taken, err := a.trStore.Exists(tr.Key(), uuid.Nil); err != nil {
		slog.Error("translation uniqueness check failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if taken {
		a.renderBoundTranslationForm(w, r, nil, form, forms.Errors{
			"value": "Ya existe una traducción para esta entidad, idioma y campo.",
		})
		return
	}

	created, err := a.trStore.Create(tr)
	if err != nil {
		slog.Error("translation create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "translation", created.ID, map[string]string{
		"entity": string(created.TranslatableType),
		"field":  created.Field,
	})
	a.invalidate(r, "translation created")
	a.notify(w, r, "translation-created", "Traducción creada.")
	a.seeOther(w, r, "/admin/traducciones")
}

// TranslationEdit renders the edit form.
func (a *Admin) TranslationEdit(w http.ResponseWriter, r *http.Request) {
	tr, ok := a.findTranslation(w, r)
	if !ok {
		return
	}
	a.renderTranslationForm(w, r, tr, nil)
}

// TranslationUpdate validates and saves a translation.
func (a *Admin) TranslationUpdate(w http.ResponseWriter, r *http.Request) {
	tr, ok := a.findTranslation(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindTranslation(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		a.renderBoundTranslationForm(w, r, tr, form, errs)
		return
	}

	form.Apply(tr)

	if taken, err := a.trStore.Exists(tr.Key(), tr.ID); err != nil {
		slog.Error("translation uniqueness check failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if taken {
		a.renderBoundTranslationForm(w, r, tr, form, forms.Errors{
			"value": "Ya existe una traducción para esta entidad, idioma y campo.",
		})
		return
	}

	updated, err := a.trStore.Update(tr)
	if err != nil {
		slog.Error("translation update failed", "error", err, "translation", tr.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "translation", updated.ID, map[string]string{
		"entity": string(updated.TranslatableType),
		"field":  updated.Field,
	})
	a.invalidate(r, "translation updated")
	a.notify(w, r, "translation-updated", "Traducción actualizada.")
	a.seeOther(w, r, "/admin/traducciones")
}

// TranslationDelete removes a translation.
func (a *Admin) TranslationDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.trStore.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("translation delete failed", "error", err, "translation", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "translation", id, nil)
	a.invalidate(r, "translation deleted")
	a.notify(w, r, "translation-deleted", "Traducción eliminada.")
	a.seeOther(w, r, "/admin/traducciones")
}

func (a *Admin) findTranslation(w http.ResponseWriter, r *http.Request) (*models.Translation, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	tr, err := a.trStore.FindByID(id)
	if err != nil {
		slog.Error("translation lookup failed", "error", err, "translation", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if tr == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return tr, true
}

func (a *Admin) renderTranslationForm(w http.ResponseWriter, r *http.Request, tr *models.Translation, errs forms.Errors) {
	languages, err := a.langStore.List()
	if err != nil {
		slog.Error("list languages failed", "error", err)
	}

	title := "Nueva traducción"
	if tr != nil {
		title = "Editar traducción"
	}

	a.renderer.Page(w, r, "translation_form", &render.PageData{
		Title:   title,
		Section: "traducciones",
		Data: map[string]any{
			"Translation": tr,
			"Types":       models.TranslatableTypes,
			"Languages":   languages,
			"Errors":      map[string]string(errs),
		},
	})
}

func (a *Admin) renderBoundTranslationForm(w http.ResponseWriter, r *http.Request, tr *models.Translation, form *forms.TranslationForm, errs forms.Errors) {
	edited := models.Translation{}
	if tr != nil {
		edited = *tr
	}
	form.Apply(&edited)
	a.renderTranslationForm(w, r, &edited, errs)
}
