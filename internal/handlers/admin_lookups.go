// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/store"
)

// ProgramsPage renders the program list with the inline creation form.
func (a *Admin) ProgramsPage(w http.ResponseWriter, r *http.Request) {
	a.renderPrograms(w, r, nil, "")
}

// ProgramEdit renders the same page with one program loaded in the form.
func (a *Admin) ProgramEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	program, err := a.programStore.FindByID(id)
	if err != nil {
		slog.Error("program lookup failed", "error", err, "program", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if program == nil {
		http.NotFound(w, r)
		return
	}
	a.renderPrograms(w, r, program, "")
}

// ProgramCreate adds a program.
func (a *Admin) ProgramCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	program := &models.Program{}
	if msg := bindProgram(r, program); msg != "" {
		a.renderPrograms(w, r, nil, msg)
		return
	}

	created, err := a.programStore.Create(program)
	if err != nil {
		slog.Error("program create failed", "error", err)
		a.renderPrograms(w, r, nil, "No se ha podido crear el programa.")
		return
	}

	a.record(r, "created", "program", created.ID, map[string]string{"name": created.Name})
	a.notify(w, r, "program-created", "Programa creado.")
	a.seeOther(w, r, "/admin/programas")
}

// ProgramUpdate saves an existing program.
func (a *Admin) ProgramUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	program, err := a.programStore.FindByID(id)
	if err != nil {
		slog.Error("program lookup failed", "error", err, "program", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if program == nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if msg := bindProgram(r, program); msg != "" {
		a.renderPrograms(w, r, program, msg)
		return
	}

	updated, err := a.programStore.Update(program)
	if err != nil {
		slog.Error("program update failed", "error", err, "program", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "program", id, map[string]string{"name": updated.Name})
	a.invalidate(r, "program updated")
	a.notify(w, r, "program-updated", "Programa actualizado.")
	a.seeOther(w, r, "/admin/programas")
}

// ProgramDelete removes a program unless calls or events reference it.
func (a *Admin) ProgramDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.programStore.Delete(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.renderPrograms(w, r, nil, guard.Error())
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("program delete failed", "error", err, "program", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "program", id, nil)
	a.notify(w, r, "program-deleted", "Programa eliminado.")
	a.seeOther(w, r, "/admin/programas")
}

func bindProgram(r *http.Request, p *models.Program) string {
	name := strings.TrimSpace(r.FormValue("name"))
	code := strings.TrimSpace(r.FormValue("code"))
	if name == "" || code == "" {
		return "El nombre y el código son obligatorios."
	}
	p.Name = name
	p.Code = code
	p.Color = r.FormValue("color")
	if p.Color == "" {
		p.Color = "#1d4ed8"
	}
	p.Active = r.FormValue("active") == "1"
	return ""
}

func (a *Admin) renderPrograms(w http.ResponseWriter, r *http.Request, editing *models.Program, errMsg string) {
	programs, err := a.programStore.List()
	if err != nil {
		slog.Error("list programs failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "programs", &render.PageData{
		Title:   "Programas",
		Section: "programas",
		Data: map[string]any{
			"Programs": programs,
			"Editing":  editing,
			"Error":    errMsg,
		},
	})
}

// AcademicYearsPage renders the academic year list with the inline form.
func (a *Admin) AcademicYearsPage(w http.ResponseWriter, r *http.Request) {
	a.renderAcademicYears(w, r, "")
}

// AcademicYearCreate adds an academic year.
func (a *Admin) AcademicYearCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	start, errStart := time.Parse("2006-01-02", r.FormValue("start_date"))
	end, errEnd := time.Parse("2006-01-02", r.FormValue("end_date"))
	switch {
	case name == "":
		a.renderAcademicYears(w, r, "El nombre es obligatorio.")
		return
	case errStart != nil || errEnd != nil:
		a.renderAcademicYears(w, r, "Las fechas no son válidas.")
		return
	case !end.After(start):
		a.renderAcademicYears(w, r, "La fecha de fin debe ser posterior a la de inicio.")
		return
	}

	created, err := a.yearStore.Create(&models.AcademicYear{
		Name:      name,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		slog.Error("academic year create failed", "error", err)
		a.renderAcademicYears(w, r, "No se ha podido crear el curso académico.")
		return
	}

	a.record(r, "created", "academic_year", created.ID, map[string]string{"name": created.Name})
	a.notify(w, r, "year-created", "Curso académico creado.")
	a.seeOther(w, r, "/admin/cursos")
}

// AcademicYearSetCurrent marks one year as current, clearing the rest.
func (a *Admin) AcademicYearSetCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	updated, err := a.yearStore.SetCurrent(id)
	if err != nil {
		slog.Error("set current year failed", "error", err, "year", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "academic_year", id, map[string]string{"current": "true"})
	a.notify(w, r, "year-updated", "Curso académico marcado como actual.")
	a.seeOther(w, r, "/admin/cursos")
}

// AcademicYearDelete removes a year unless calls reference it.
func (a *Admin) AcademicYearDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.yearStore.Delete(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.renderAcademicYears(w, r, guard.Error())
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("academic year delete failed", "error", err, "year", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "academic_year", id, nil)
	a.notify(w, r, "year-deleted", "Curso académico eliminado.")
	a.seeOther(w, r, "/admin/cursos")
}

func (a *Admin) renderAcademicYears(w http.ResponseWriter, r *http.Request, errMsg string) {
	years, err := a.yearStore.List()
	if err != nil {
		slog.Error("list academic years failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "academic_years", &render.PageData{
		Title:   "Cursos académicos",
		Section: "cursos",
		Data: map[string]any{
			"Years": years,
			"Error": errMsg,
		},
	})
}

// LanguagesPage renders the language list with the inline form.
func (a *Admin) LanguagesPage(w http.ResponseWriter, r *http.Request) {
	a.renderLanguages(w, r, "")
}

// LanguageCreate adds a language.
func (a *Admin) LanguageCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	code := strings.ToLower(strings.TrimSpace(r.FormValue("code")))
	if name == "" || code == "" {
		a.renderLanguages(w, r, "El nombre y el código son obligatorios.")
		return
	}

	created, err := a.langStore.Create(&models.Language{
		Name:   name,
		Code:   code,
		Active: r.FormValue("active") == "1",
	})
	if err != nil {
		slog.Error("language create failed", "error", err)
		a.renderLanguages(w, r, "No se ha podido crear el idioma.")
		return
	}

	a.record(r, "created", "language", created.ID, map[string]string{"code": created.Code})
	a.invalidate(r, "language created")
	a.notify(w, r, "language-created", "Idioma creado.")
	a.seeOther(w, r, "/admin/idiomas")
}

// LanguageSetDefault marks one language as default, clearing the rest.
func (a *Admin) LanguageSetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	updated, err := a.langStore.SetDefault(id)
	if err != nil {
		slog.Error("set default language failed", "error", err, "language", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "language", id, map[string]string{"default": "true"})
	a.invalidate(r, "default language changed")
	a.notify(w, r, "language-updated", "Idioma marcado por defecto.")
	a.seeOther(w, r, "/admin/idiomas")
}

// LanguageDelete removes a language unless translations reference it.
func (a *Admin) LanguageDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.langStore.Delete(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.renderLanguages(w, r, guard.Error())
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("language delete failed", "error", err, "language", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "language", id, nil)
	a.invalidate(r, "language deleted")
	a.notify(w, r, "language-deleted", "Idioma eliminado.")
	a.seeOther(w, r, "/admin/idiomas")
}

func (a *Admin) renderLanguages(w http.ResponseWriter, r *http.Request, errMsg string) {
	languages, err := a.langStore.List()
	if err != nil {
		slog.Error("list languages failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "languages", &render.PageData{
		Title:   "Idiomas",
		Section: "idiomas",
		Data: map[string]any{
			"Languages": languages,
			"Error":     errMsg,
		},
	})
}
