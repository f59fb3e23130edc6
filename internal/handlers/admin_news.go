// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"movilia/internal/forms"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/slug"
)

// NewsList renders the news index or the trash when ?papelera=1.
func (a *Admin) NewsList(w http.ResponseWriter, r *http.Request) {
	showTrash := r.URL.Query().Get("papelera") == "1"
	articles, err := a.newsStore.List(showTrash)
	if err != nil {
		slog.Error("list news failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "news_list", &render.PageData{
		Title:   "Noticias",
		Section: "noticias",
		Flashes: popFlash(w, r),
		Data: map[string]any{
			"News":         articles,
			"ShowingTrash": showTrash,
		},
	})
}

// NewsNew renders the empty article form.
func (a *Admin) NewsNew(w http.ResponseWriter, r *http.Request) {
	a.renderNewsForm(w, r, nil, nil)
}

// NewsCreate validates and creates an article.
func (a *Admin) NewsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindNews(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		a.renderBoundNewsForm(w, r, nil, form, errs)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	article := &models.News{CreatedBy: sess.UserID, UpdatedBy: sess.UserID}
	form.Apply(article)
	article.Slug = a.uniqueNewsSlug(firstNonEmpty(form.Slug, form.Title), uuid.Nil)

	created, err := a.newsStore.Create(article)
	if err != nil {
		slog.Error("news create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if form.Publish {
		if created, err = a.newsStore.Publish(created.ID, sess.UserID); err != nil {
			slog.Error("news publish failed", "error", err, "news", created.ID)
		}
	}

	a.record(r, "created", "news", created.ID, map[string]string{"title": created.Title})
	a.invalidateNewsPages(r, "news created")
	a.notify(w, r, "news-created", "Noticia creada.")
	a.seeOther(w, r, "/admin/noticias/"+created.ID.String()+"/editar")
}

// NewsEdit renders the edit form.
func (a *Admin) NewsEdit(w http.ResponseWriter, r *http.Request) {
	article, ok := a.findNews(w, r)
	if !ok {
		return
	}
	a.renderNewsForm(w, r, article, nil)
}

// NewsUpdate validates and saves the editable fields of an article. The
// slug only changes when the title changed.
func (a *Admin) NewsUpdate(w http.ResponseWriter, r *http.Request) {
	article, ok := a.findNews(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.BindNews(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		a.renderBoundNewsForm(w, r, article, form, errs)
		return
	}

	titleChanged := form.Title != article.Title
	form.Apply(article)
	if titleChanged && form.Slug == "" {
		article.Slug = a.uniqueNewsSlug(form.Title, article.ID)
	} else if form.Slug != "" && form.Slug != article.Slug {
		article.Slug = a.uniqueNewsSlug(form.Slug, article.ID)
	}

	sess := middleware.SessionFromCtx(r.Context())
	updated, err := a.newsStore.Update(article, sess.UserID)
	if err != nil {
		slog.Error("news update failed", "error", err, "news", article.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case form.Publish && !updated.IsPublished():
		_, err = a.newsStore.Publish(updated.ID, sess.UserID)
	case !form.Publish && updated.IsPublished():
		_, err = a.newsStore.Unpublish(updated.ID, sess.UserID)
	}
	if err != nil {
		slog.Error("news publish toggle failed", "error", err, "news", updated.ID)
	}

	a.record(r, "updated", "news", updated.ID, map[string]string{"title": updated.Title})
	a.invalidateNewsPages(r, "news updated")
	a.notify(w, r, "news-updated", "Noticia actualizada.")
	a.seeOther(w, r, "/admin/noticias")
}

// NewsPublish makes an article visible on the public site.
func (a *Admin) NewsPublish(w http.ResponseWriter, r *http.Request) {
	a.setNewsPublished(w, r, true)
}

// NewsUnpublish hides an article from the public site.
func (a *Admin) NewsUnpublish(w http.ResponseWriter, r *http.Request) {
	a.setNewsPublished(w, r, false)
}

func (a *Admin) setNewsPublished(w http.ResponseWriter, r *http.Request, publish bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	var (
		updated *models.News
		err     error
	)
	if publish {
		updated, err = a.newsStore.Publish(id, sess.UserID)
	} else {
		updated, err = a.newsStore.Unpublish(id, sess.UserID)
	}
	if err != nil {
		slog.Error("news publish toggle failed", "error", err, "news", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	action, msg := "published", "Noticia publicada."
	if !publish {
		action, msg = "unpublished", "Noticia despublicada."
	}
	a.record(r, action, "news", id, nil)
	a.invalidateNewsPages(r, "news "+action)
	a.notify(w, r, "news-updated", msg)
	a.seeOther(w, r, "/admin/noticias")
}

// NewsDelete soft-deletes an article.
func (a *Admin) NewsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.newsStore.Delete(id, sess.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("news delete failed", "error", err, "news", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "deleted", "news", id, nil)
	a.invalidateNewsPages(r, "news deleted")
	a.notify(w, r, "news-deleted", "Noticia enviada a la papelera.")
	a.seeOther(w, r, "/admin/noticias")
}

// NewsRestore brings an article back from the trash.
func (a *Admin) NewsRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.newsStore.Restore(id, sess.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("news restore failed", "error", err, "news", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "restored", "news", id, nil)
	a.invalidateNewsPages(r, "news restored")
	a.notify(w, r, "news-restored", "Noticia restaurada.")
	a.seeOther(w, r, "/admin/noticias")
}

// NewsForceDelete permanently removes a trashed article.
func (a *Admin) NewsForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.newsStore.ForceDelete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		slog.Error("news force delete failed", "error", err, "news", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.record(r, "force-deleted", "news", id, nil)
	a.notify(w, r, "news-force-deleted", "Noticia eliminada definitivamente.")
	a.seeOther(w, r, "/admin/noticias?papelera=1")
}

func (a *Admin) findNews(w http.ResponseWriter, r *http.Request) (*models.News, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	article, err := a.newsStore.FindByID(id)
	if err != nil {
		slog.Error("news lookup failed", "error", err, "news", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if article == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return article, true
}

func (a *Admin) renderNewsForm(w http.ResponseWriter, r *http.Request, article *models.News, errs forms.Errors) {
	images, err := a.mediaStore.List(100, 0)
	if err != nil {
		slog.Error("list media failed", "error", err)
	}

	title := "Nueva noticia"
	if article != nil {
		title = "Editar noticia"
	}

	a.renderer.Page(w, r, "news_form", &render.PageData{
		Title:   title,
		Section: "noticias",
		Data: map[string]any{
			"Article": article,
			"Images":  images,
			"Errors":  map[string]string(errs),
		},
	})
}

func (a *Admin) renderBoundNewsForm(w http.ResponseWriter, r *http.Request, article *models.News, form *forms.NewsForm, errs forms.Errors) {
	edited := models.News{}
	if article != nil {
		edited = *article
	}
	form.Apply(&edited)
	if edited.PublishedAt == nil && form.Publish {
		now := time.Now()
		edited.PublishedAt = &now
	}
	a.renderNewsForm(w, r, &edited, errs)
}

// uniqueNewsSlug derives a slug from base and suffixes -2, -3 and so on
// until it is free among articles other than excludeID.
func (a *Admin) uniqueNewsSlug(base string, excludeID uuid.UUID) string {
	candidate := slug.Generate(base)
	for i := 2; ; i++ {
		taken, err := a.newsStore.SlugTaken(candidate, excludeID)
		if err != nil {
			slog.Error("slug check failed", "error", err)
			return fmt.Sprintf("%s-%d", slug.Generate(base), time.Now().UnixNano())
		}
		if !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", slug.Generate(base), i)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
