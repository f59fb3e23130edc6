// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"movilia/internal/render"
	"movilia/internal/spreadsheet"
	"movilia/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importRowError is one rejected spreadsheet row shown back to the user.
type importRowError struct {
	Row     int
	Message string
}

// importView is what the import page renders after a submit.
type importView struct {
	DryRun bool
	Valid  int
	Total  int
	Errors []importRowError
}

// ImportPage renders the import and export page.
func (a *Admin) ImportPage(w http.ResponseWriter, r *http.Request) {
	a.renderImport(w, r, r.URL.Query().Get("convocatoria"), nil)
}

// ImportTemplate serves the spreadsheet the site expects back on import.
func (a *Admin) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	title := "solicitudes"
	if raw := r.URL.Query().Get("convocatoria"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			if call, err := a.callStore.FindByID(id); err == nil && call != nil {
				title = call.Title
			}
		}
	}

	buf, filename, err := spreadsheet.ApplicationTemplate(title)
	if err != nil {
		slog.Error("template build failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// ImportSubmit parses the uploaded workbook. With dry_run checked the
// rows are validated and reported only; otherwise the valid rows are
// inserted in one transaction.
func (a *Admin) ImportSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	callID, err := uuid.Parse(r.FormValue("call_id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	call, err := a.callStore.FindByID(callID)
	if err != nil {
		slog.Error("call lookup failed", "error", err, "call", callID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.NotFound(w, r)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	apps, outcomes, err := spreadsheet.ParseApplications(file)
	if err != nil {
		a.renderImport(w, r, callID.String(), &importView{
			DryRun: true,
			Errors: []importRowError{{Row: 0, Message: "El fichero no es un libro Excel válido."}},
		})
		return
	}

	dryRun := r.FormValue("dry_run") == "1"
	view := &importView{
		DryRun: dryRun,
		Valid:  len(apps),
		Total:  len(apps),
	}
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		view.Total++
		view.Errors = append(view.Errors, importRowError{
			Row:     o.RowNumber,
			Message: strings.Join(o.Errors, "; "),
		})
	}

	if !dryRun && len(apps) > 0 {
		inserted, err := a.appStore.BulkInsert(callID, apps)
		if err != nil {
			slog.Error("bulk insert failed", "error", err, "call", callID)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		view.Valid = inserted
		a.record(r, "imported", "call", callID, map[string]string{
			"rows": strconv.Itoa(inserted),
		})
		a.invalidateCallPages(r, "applications imported")
	}

	a.renderImport(w, r, callID.String(), view)
}

// CallsExport serves every call as a spreadsheet.
func (a *Admin) CallsExport(w http.ResponseWriter, r *http.Request) {
	calls, err := a.callStore.List(store.CallFilter{})
	if err != nil {
		slog.Error("list calls failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	buf, filename, err := spreadsheet.CallsExport(calls)
	if err != nil {
		slog.Error("export build failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "exported", "call", uuid.Nil, map[string]string{
		"rows": strconv.Itoa(len(calls)),
	})

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (a *Admin) renderImport(w http.ResponseWriter, r *http.Request, selectedCall string, result *importView) {
	calls, err := a.callStore.List(store.CallFilter{})
	if err != nil {
		slog.Error("list calls failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Calls":        calls,
		"SelectedCall": selectedCall,
	}
	if result != nil {
		data["Result"] = result
	}

	a.renderer.Page(w, r, "import", &render.PageData{
		Title:   "Importar / Exportar",
		Section: "importar",
		Data:    data,
	})
}
