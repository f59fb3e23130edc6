// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
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

// DocumentsList renders the downloadable documents index.
func (a *Admin) DocumentsList(w http.ResponseWriter, r *http.Request) {
	documents, err := a.docStore.ListDocuments()
	if err != nil {
		slog.Error("list documents failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "documents_list", &render.PageData{
		Title:   "Documentos",
		Section: "documentos",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"Documents": documents,
		},
	})
}

// DocumentNew renders the document form with the upload field.
func (a *Admin) DocumentNew(w http.ResponseWriter, r *http.Request) {
	a.renderDocumentForm(w, r, nil, nil)
}

// DocumentCreate uploads the file to the private bucket and creates the
// document row referencing it.
func (a *Admin) DocumentCreate(w http.ResponseWriter, r *http.Request) {
	media, ue := a.processUpload(r, uploadOptions{bucket: "private"})
	if ue != nil {
		a.renderDocumentForm(w, r, nil, forms.Errors{"file": ue.msg})
		return
	}

	errs := forms.Errors{}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		errs["title"] = "Este campo es obligatorio."
	}
	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		errs["category_id"] = "Selecciona una categoría."
	}
	if errs.Any() {
		a.renderDocumentForm(w, r, nil, errs)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	doc := &models.Document{
		Title:       title,
		Description: optionalString(r.FormValue("description")),
		CategoryID:  categoryID,
		FileMediaID: media.ID,
		CreatedBy:   sess.UserID,
		UpdatedBy:   sess.UserID,
	}
	if r.FormValue("published") == "1" {
		now := time.Now()
		doc.PublishedAt = &now
	}

	created, err := a.docStore.CreateDocument(doc)
	if err != nil {
		slog.Error("document create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "created", "document", created.ID, map[string]string{"title": created.Title})
	a.invalidateDocumentPages(r, "document created")
	a.notify(w, r, "document-created", "Documento creado.")
	a.seeOther(w, r, "/admin/documentos")
}

// DocumentEdit renders the edit form. The stored file is immutable;
// only the metadata changes.
func (a *Admin) DocumentEdit(w http.ResponseWriter, r *http.Request) {
	doc, ok := a.findDocument(w, r)
	if !ok {
		return
	}
	a.renderDocumentForm(w, r, doc, nil)
}

// DocumentUpdate saves the metadata of an existing document.
func (a *Admin) DocumentUpdate(w http.ResponseWriter, r *http.Request) {
	doc, ok := a.findDocument(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	errs := forms.Errors{}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		errs["title"] = "Este campo es obligatorio."
	}
	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		errs["category_id"] = "Selecciona una categoría."
	}
	if errs.Any() {
		a.renderDocumentForm(w, r, doc, errs)
		return
	}

	doc.Title = title
	doc.Description = optionalString(r.FormValue("description"))
	doc.CategoryID = categoryID
	switch {
	case r.FormValue("published") == "1" && doc.PublishedAt == nil:
		now := time.Now()
		doc.PublishedAt = &now
	case r.FormValue("published") != "1":
		doc.PublishedAt = nil
	}

	sess := middleware.SessionFromCtx(r.Context())
	updated, err := a.docStore.UpdateDocument(doc, sess.UserID)
	if err != nil {
		slog.Error("document update failed", "error", err, "document", doc.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.record(r, "updated", "document", updated.ID, map[string]string{"title": updated.Title})
	a.invalidateDocumentPages(r, "document updated")
	a.notify(w, r, "document-updated", "Documento actualizado.")
	a.seeOther(w, r, "/admin/documentos")
}

// DocumentDelete removes a document and its stored file.
func (a *Admin) DocumentDelete(w http.ResponseWriter, r *http.Request) {
	doc, ok := a.findDocument(w, r)
	if !ok {
		return
	}
	if err := a.docStore.DeleteDocument(doc.ID); err != nil {
		slog.Error("document delete failed", "error", err, "document", doc.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// The file row stays orphaned in the library until deleted there;
	// removing it here as well keeps the private bucket tidy.
	if deleted, err := a.mediaStore.Delete(doc.FileMediaID); err == nil && deleted != nil && a.storageClient != nil {
		if err := a.storageClient.Delete(r.Context(), deleted.Bucket, deleted.S3Key); err != nil {
			slog.Warn("s3 delete failed", "error", err, "key", deleted.S3Key)
		}
	}

	a.record(r, "deleted", "document", doc.ID, map[string]string{"title": doc.Title})
	a.invalidateDocumentPages(r, "document deleted")
	a.notify(w, r, "document-deleted", "Documento eliminado.")
	a.seeOther(w, r, "/admin/documentos")
}

// DocumentCategories renders the category list and creation form.
func (a *Admin) DocumentCategories(w http.ResponseWriter, r *http.Request) {
	a.renderDocumentCategories(w, r, "")
}

func (a *Admin) renderDocumentCategories(w http.ResponseWriter, r *http.Request, errMsg string) {
	categories, err := a.docStore.ListCategories()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "document_categories", &render.PageData{
		Title:   "Categorías de documentos",
		Section: "documentos",
		Data: map[string]any{
			"Categories": categories,
			"Error":      errMsg,
		},
	})
}

// DocumentCategoryCreate adds a category.
func (a *Admin) DocumentCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		a.renderDocumentCategories(w, r, "El nombre es obligatorio.")
		return
	}
	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))

	created, err := a.docStore.CreateCategory(&models.DocumentCategory{
		Name:      name,
		Slug:      slug.Generate(name),
		SortOrder: sortOrder,
	})
	if err != nil {
		slog.Error("category create failed", "error", err)
		a.renderDocumentCategories(w, r, "No se ha podido crear la categoría.")
		return
	}

	a.record(r, "created", "document_category", created.ID, map[string]string{"name": created.Name})
	a.notify(w, r, "category-created", "Categoría creada.")
	a.seeOther(w, r, "/admin/documentos/categorias")
}

// DocumentCategoryDelete removes a category unless documents still
// reference it.
func (a *Admin) DocumentCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := a.docStore.DeleteCategory(id)
	var guard *store.GuardError
	if errors.As(err, &guard) {
		a.renderDocumentCategories(w, r, guard.Error())
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("category delete failed", "error", err, "category", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "document_category", id, nil)
	a.notify(w, r, "category-deleted", "Categoría eliminada.")
	a.seeOther(w, r, "/admin/documentos/categorias")
}

func (a *Admin) findDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	doc, err := a.docStore.FindDocumentByID(id)
	if err != nil {
		slog.Error("document lookup failed", "error", err, "document", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if doc == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return doc, true
}

func (a *Admin) renderDocumentForm(w http.ResponseWriter, r *http.Request, doc *models.Document, errs forms.Errors) {
	categories, err := a.docStore.ListCategories()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	title := "Nuevo documento"
	if doc != nil {
		title = "Editar documento"
	}

	a.renderer.Page(w, r, "document_form", &render.PageData{
		Title:   title,
		Section: "documentos",
		Data: map[string]any{
			"Document":   doc,
			"Categories": categories,
			"Errors":     map[string]string(errs),
		},
	})
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
