// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"movilia/internal/cache"
	"movilia/internal/calendar"
	"movilia/internal/markdown"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/storage"
	"movilia/internal/store"
)

const newsPageSize = 10

// Public groups the handlers for the public-facing site. Every GET page
// checks the Valkey page cache first and stores the rendered result on
// miss; mutations in the admin invalidate the affected keys.
type Public struct {
	renderer      *render.Renderer
	callStore     *store.CallStore
	phaseStore    *store.PhaseStore
	resStore      *store.ResolutionStore
	eventStore    *store.EventStore
	newsStore     *store.NewsStore
	docStore      *store.DocumentStore
	mediaStore    *store.MediaStore
	trStore       *store.TranslationStore
	langStore     *store.LanguageStore
	settingStore  *store.SettingStore
	storageClient *storage.Client
	pageCache     *cache.PageCache
}

// NewPublic creates a new Public handler group. storageClient may be nil
// when S3 is not configured; download links then 404.
func NewPublic(
	renderer *render.Renderer,
	callStore *store.CallStore,
	phaseStore *store.PhaseStore,
	resStore *store.ResolutionStore,
	eventStore *store.EventStore,
	newsStore *store.NewsStore,
	docStore *store.DocumentStore,
	mediaStore *store.MediaStore,
	trStore *store.TranslationStore,
	langStore *store.LanguageStore,
	settingStore *store.SettingStore,
	storageClient *storage.Client,
	pageCache *cache.PageCache,
) *Public {
	return &Public{
		renderer:      renderer,
		callStore:     callStore,
		phaseStore:    phaseStore,
		resStore:      resStore,
		eventStore:    eventStore,
		newsStore:     newsStore,
		docStore:      docStore,
		mediaStore:    mediaStore,
		trStore:       trStore,
		langStore:     langStore,
		settingStore:  settingStore,
		storageClient: storageClient,
		pageCache:     pageCache,
	}
}

// defaultStrings holds the interface strings in the site's base language.
// Rows of type "setting" in the translations table override them per
// language, keyed by field.
var defaultStrings = map[string]string{
	"site.name":             "Movilia",
	"site.footer":           "Servicio de Programas Europeos",
	"nav.calls":             "Convocatorias",
	"nav.events":            "Eventos",
	"nav.calendar":          "Calendario",
	"nav.news":              "Noticias",
	"nav.documents":         "Documentos",
	"home.title":            "Movilidad internacional",
	"home.subtitle":         "Convocatorias, eventos y recursos de los programas europeos.",
	"home.open_calls":       "Convocatorias abiertas",
	"home.upcoming_events":  "Próximos eventos",
	"home.latest_news":      "Últimas noticias",
	"calls.none_open":       "No hay convocatorias abiertas en este momento.",
	"calls.places":          "plazas",
	"calls.estimated_start": "Inicio estimado",
	"calls.phases":          "Fases",
	"calls.current_phase":   "Fase actual",
	"calls.requirements":    "Requisitos",
	"calls.documentation":   "Documentación",
	"calls.criteria":        "Criterios de selección",
	"calls.scoring":         "Baremo",
	"calls.scoring_concept": "Concepto",
	"calls.scoring_max":     "Puntuación máxima",
	"calls.resolutions":     "Resoluciones",
	"calls.download":        "Descargar",
	"events.none":           "No hay eventos previstos.",
	"calendar.month":        "Mes",
	"calendar.week":         "Semana",
	"calendar.day":          "Día",
	"calendar.subscribe":    "Suscribirse (ICS)",
	"news.none":             "No hay noticias publicadas.",
	"news.newer":            "Más recientes",
	"news.older":            "Más antiguas",
	"documents.none":        "No hay documentos en esta categoría.",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var spanishWeekdays = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

// translator resolves per-language field values for content entities,
// memoizing one store round trip per entity within a request.
type translator struct {
	store *store.TranslationStore
	lang  *models.Language
	cache map[string]map[string]string
}

func (p *Public) newTranslator(lang *models.Language) *translator {
	return &translator{store: p.trStore, lang: lang, cache: map[string]map[string]string{}}
}

// value returns the translated field for an entity, or fallback when the
// active language is the default one or no translation exists.
func (t *translator) value(tt models.TranslatableType, id uuid.UUID, field, fallback string) string {
	if t.lang.IsDefault {
		return fallback
	}
	key := string(tt) + ":" + id.String()
	vals, ok := t.cache[key]
	if !ok {
		var err error
		vals, err = t.store.ValuesFor(tt, id, t.lang.ID)
		if err != nil {
			slog.Warn("translation lookup failed", "error", err, "entity", key)
			vals = map[string]string{}
		}
		t.cache[key] = vals
	}
	if v, ok := vals[field]; ok && v != "" {
		return v
	}
	return fallback
}

// language resolves the active site language from ?lang=, falling back
// to the default language.
func (p *Public) language(r *http.Request) *models.Language {
	if code := r.URL.Query().Get("lang"); code != "" {
		if lang, err := p.langStore.FindByCode(code); err == nil && lang != nil && lang.Active {
			return lang
		}
	}
	lang, err := p.langStore.Default()
	if err != nil || lang == nil {
		return &models.Language{Code: "es", IsDefault: true}
	}
	return lang
}

// strings builds the interface string map for one language: defaults,
// then the site name from settings, then per-language overrides stored
// as translations of type "setting".
func (p *Public) strings(lang *models.Language) map[string]string {
	t := make(map[string]string, len(defaultStrings))
	for k, v := range defaultStrings {
		t[k] = v
	}

	if settings, err := p.settingStore.All(); err == nil {
		t["site.name"] = settings.Get("site_name", t["site.name"])
	}

	if lang.ID != uuid.Nil {
		overrides, err := p.trStore.ValuesFor(models.TranslatableSetting, uuid.Nil, lang.ID)
		if err != nil {
			slog.Warn("interface string lookup failed", "error", err, "lang", lang.Code)
		}
		for k, v := range overrides {
			if v != "" {
				t[k] = v
			}
		}
	}
	return t
}

// pageData builds the base PageData shared by every public page.
func (p *Public) pageData(lang *models.Language, title string, data map[string]any) *render.PageData {
	languages, err := p.langStore.ListActive()
	if err != nil {
		slog.Warn("list languages failed", "error", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Languages"] = languages

	return &render.PageData{
		Title: title,
		Lang:  lang.Code,
		T:     p.strings(lang),
		Data:  data,
	}
}

// servePage renders a public template, caching the result under key.
func (p *Public) servePage(w http.ResponseWriter, r *http.Request, key, name string, pd *render.PageData) {
	html, err := p.renderer.PublicHTML(name, pd)
	if err != nil {
		slog.Error("public render failed", "error", err, "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if key != "" {
		p.pageCache.Set(r.Context(), key, html)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// serveCached writes the cached page when present.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	cached, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(cached)
	return true
}

// Home renders the portal landing page: open calls, upcoming events and
// the latest news.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	key := cache.HomeKey(lang.Code)
	if p.serveCached(w, r, key) {
		return
	}

	calls, err := p.callStore.ListPublic()
	if err != nil {
		slog.Error("list public calls failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var open []models.Call
	for _, c := range calls {
		if c.Status == models.CallStatusAbierta {
			open = append(open, c)
		}
	}

	events, err := p.eventStore.ListPublicUpcoming(time.Now(), 5)
	if err != nil {
		slog.Error("list upcoming events failed", "error", err)
	}
	news, err := p.newsStore.ListPublished(3, 0)
	if err != nil {
		slog.Error("list published news failed", "error", err)
	}

	tr := p.newTranslator(lang)
	for i := range open {
		open[i].Title = tr.value(models.TranslatableCall, open[i].ID, "title", open[i].Title)
	}
	for i := range events {
		events[i].Title = tr.value(models.TranslatableEvent, events[i].ID, "title", events[i].Title)
	}
	for i := range news {
		news[i].Title = tr.value(models.TranslatableNews, news[i].ID, "title", news[i].Title)
	}

	pd := p.pageData(lang, "Inicio", map[string]any{
		"OpenCalls":      open,
		"UpcomingEvents": events,
		"LatestNews":     news,
	})
	pd.Title = pd.T["home.title"]
	p.servePage(w, r, key, "home", pd)
}

// CallsList renders every publicly visible call.
func (p *Public) CallsList(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	key := cache.CallsKey(lang.Code)
	if p.serveCached(w, r, key) {
		return
	}

	calls, err := p.callStore.ListPublic()
	if err != nil {
		slog.Error("list public calls failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tr := p.newTranslator(lang)
	for i := range calls {
		calls[i].Title = tr.value(models.TranslatableCall, calls[i].ID, "title", calls[i].Title)
	}

	pd := p.pageData(lang, "Convocatorias", map[string]any{"Calls": calls})
	pd.Title = pd.T["nav.calls"]
	p.servePage(w, r, key, "calls", pd)
}

// CallDetail renders one call with its phases, markdown sections and
// published resolutions. Drafts and archived calls are not reachable.
func (p *Public) CallDetail(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	slugParam := chi.URLParam(r, "slug")
	key := cache.CallKey(lang.Code, slugParam)
	if p.serveCached(w, r, key) {
		return
	}

	call, err := p.callStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("call lookup failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if call == nil || !call.IsPublic() {
		http.NotFound(w, r)
		return
	}

	phases, err := p.phaseStore.ListByCall(call.ID)
	if err != nil {
		slog.Error("list phases failed", "error", err, "call", call.ID)
	}
	resolutions, err := p.resStore.ListPublishedByCall(call.ID)
	if err != nil {
		slog.Error("list resolutions failed", "error", err, "call", call.ID)
	}

	tr := p.newTranslator(lang)
	title := tr.value(models.TranslatableCall, call.ID, "title", call.Title)

	data := map[string]any{
		"Call":        call,
		"Title":       title,
		"Phases":      phases,
		"Resolutions": resolutions,
	}
	data["RequirementsHTML"] = p.markdownSection(tr, call, "requirements", call.Requirements)
	data["DocumentationHTML"] = p.markdownSection(tr, call, "documentation", call.Documentation)
	data["CriteriaHTML"] = p.markdownSection(tr, call, "selection_criteria", call.SelectionCriteria)

	pd := p.pageData(lang, title, data)
	p.servePage(w, r, key, "call_detail", pd)
}

// markdownSection renders one optional markdown field of a call,
// preferring its translation in the active language.
func (p *Public) markdownSection(tr *translator, call *models.Call, field string, value *string) template.HTML {
	raw := ""
	if value != nil {
		raw = *value
	}
	raw = tr.value(models.TranslatableCall, call.ID, field, raw)
	if raw == "" {
		return ""
	}
	html, err := markdown.ToHTML(raw)
	if err != nil {
		slog.Warn("markdown render failed", "error", err, "call", call.ID, "field", field)
		return ""
	}
	return template.HTML(html)
}

// Events renders the upcoming public events.
func (p *Public) Events(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	key := cache.EventsKey(lang.Code)
	if p.serveCached(w, r, key) {
		return
	}

	events, err := p.eventStore.ListPublicUpcoming(time.Now(), 100)
	if err != nil {
		slog.Error("list public events failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tr := p.newTranslator(lang)
	for i := range events {
		events[i].Title = tr.value(models.TranslatableEvent, events[i].ID, "title", events[i].Title)
	}

	pd := p.pageData(lang, "Eventos", map[string]any{"Events": events})
	pd.Title = pd.T["nav.events"]
	p.servePage(w, r, key, "events", pd)
}

// EventDetail renders one public event with its attached images.
func (p *Public) EventDetail(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	key := cache.EventKey(lang.Code, idStr)
	if p.serveCached(w, r, key) {
		return
	}

	event, err := p.eventStore.FindByID(id)
	if err != nil {
		slog.Error("event lookup failed", "error", err, "event", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if event == nil || !event.IsPublic || event.DeletedAt != nil {
		http.NotFound(w, r)
		return
	}

	tr := p.newTranslator(lang)
	title := tr.value(models.TranslatableEvent, event.ID, "title", event.Title)

	var descriptionHTML template.HTML
	if event.Description != nil {
		raw := tr.value(models.TranslatableEvent, event.ID, "description", *event.Description)
		if html, err := markdown.ToHTML(raw); err == nil {
			descriptionHTML = template.HTML(html)
		}
	}

	type imageView struct {
		URL string
		Alt string
	}
	var images []imageView
	if p.storageClient != nil {
		attached, err := p.mediaStore.ListForAttachable(store.AttachableEvent, event.ID)
		if err != nil {
			slog.Warn("list event images failed", "error", err, "event", event.ID)
		}
		for _, m := range attached {
			if m.Bucket != p.storageClient.PublicBucket() {
				continue
			}
			iv := imageView{URL: p.storageClient.FileURL(m.S3Key)}
			if m.AltText != nil {
				iv.Alt = *m.AltText
			}
			images = append(images, iv)
		}
	}

	pd := p.pageData(lang, title, map[string]any{
		"Event":           event,
		"Title":           title,
		"DescriptionHTML": descriptionHTML,
		"Images":          images,
	})
	p.servePage(w, r, key, "event_detail", pd)
}

// Calendar renders the public agenda in month, week or day view.
func (p *Public) Calendar(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)

	vista := r.URL.Query().Get("vista")
	view, viewParam := calendarView(vista)

	cursor := time.Now()
	if raw := r.URL.Query().Get("fecha"); raw != "" {
		if t, err := time.ParseInLocation(calendar.DayKey, raw, time.Local); err == nil {
			cursor = t
		}
	}
	cursorStr := cursor.Format(calendar.DayKey)

	key := cache.CalendarKey(lang.Code, viewParam, cursorStr)
	if p.serveCached(w, r, key) {
		return
	}

	rng := calendar.VisibleRange(cursor, view)
	events, err := p.eventStore.ListPublicBetween(rng.From, rng.To)
	if err != nil {
		slog.Error("list calendar events failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tr := p.newTranslator(lang)
	for i := range events {
		events[i].Title = tr.value(models.TranslatableEvent, events[i].ID, "title", events[i].Title)
	}

	buckets := calendar.BucketByDay(events, rng)
	today := time.Now().Format(calendar.DayKey)

	data := map[string]any{
		"View":     viewParam,
		"Date":     cursorStr,
		"PrevDate": calendar.Previous(cursor, view).Format(calendar.DayKey),
		"NextDate": calendar.Next(cursor, view).Format(calendar.DayKey),
		"Label":    calendarLabel(cursor, rng, view),
		"Weekdays": spanishWeekdays,
	}

	if view == calendar.ViewMonth {
		type cell struct {
			Day     int
			InMonth bool
			Today   bool
			Events  []models.ErasmusEvent
		}
		grid := calendar.GridDays(rng)
		var weeks [][]cell
		for i := 0; i < len(grid); i += 7 {
			var week []cell
			for _, dayKey := range grid[i : i+7] {
				day, _ := time.ParseInLocation(calendar.DayKey, dayKey, time.Local)
				week = append(week, cell{
					Day:     day.Day(),
					InMonth: day.Month() == cursor.Month(),
					Today:   dayKey == today,
					Events:  buckets[dayKey],
				})
			}
			weeks = append(weeks, week)
		}
		data["Weeks"] = weeks
	} else {
		type dayView struct {
			Date   time.Time
			Today  bool
			Events []models.ErasmusEvent
		}
		var days []dayView
		for _, dayKey := range calendar.GridDays(rng) {
			day, _ := time.ParseInLocation(calendar.DayKey, dayKey, time.Local)
			days = append(days, dayView{
				Date:   day,
				Today:  dayKey == today,
				Events: buckets[dayKey],
			})
		}
		data["Days"] = days
	}

	pd := p.pageData(lang, "Calendario", data)
	pd.Title = pd.T["nav.calendar"]
	p.servePage(w, r, key, "calendar", pd)
}

// CalendarICS serves the public agenda as an iCalendar feed covering one
// year back and one year forward.
func (p *Public) CalendarICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if cached, ok := p.pageCache.Get(ctx, cache.ICSKey()); ok {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Write(cached)
		return
	}

	now := time.Now()
	events, err := p.eventStore.ListPublicBetween(now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))
	if err != nil {
		slog.Error("list events for feed failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	siteName := defaultStrings["site.name"]
	if settings, err := p.settingStore.All(); err == nil {
		siteName = settings.Get("site_name", siteName)
	}

	feed := []byte(calendar.Feed(events, siteName))
	p.pageCache.Set(ctx, cache.ICSKey(), feed)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write(feed)
}

// News renders the published news, paginated by ?pagina=.
func (p *Public) News(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)

	page := 1
	if raw := r.URL.Query().Get("pagina"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	// Only the first page goes through the cache.
	key := ""
	if page == 1 {
		key = cache.NewsKey(lang.Code)
		if p.serveCached(w, r, key) {
			return
		}
	}

	articles, err := p.newsStore.ListPublished(newsPageSize+1, (page-1)*newsPageSize)
	if err != nil {
		slog.Error("list published news failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	hasNext := len(articles) > newsPageSize
	if hasNext {
		articles = articles[:newsPageSize]
	}

	tr := p.newTranslator(lang)
	for i := range articles {
		articles[i].Title = tr.value(models.TranslatableNews, articles[i].ID, "title", articles[i].Title)
	}

	pd := p.pageData(lang, "Noticias", map[string]any{
		"Articles": articles,
		"HasPrev":  page > 1,
		"HasNext":  hasNext,
		"PrevPage": page - 1,
		"NextPage": page + 1,
	})
	pd.Title = pd.T["nav.news"]
	p.servePage(w, r, key, "news", pd)
}

// NewsArticle renders one published article.
func (p *Public) NewsArticle(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	slugParam := chi.URLParam(r, "slug")
	key := cache.NewsArticleKey(lang.Code, slugParam)
	if p.serveCached(w, r, key) {
		return
	}

	article, err := p.newsStore.FindPublishedBySlug(slugParam)
	if err != nil {
		slog.Error("article lookup failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	tr := p.newTranslator(lang)
	title := tr.value(models.TranslatableNews, article.ID, "title", article.Title)
	body := tr.value(models.TranslatableNews, article.ID, "body", article.Body)

	bodyHTML, err := markdown.ToHTML(body)
	if err != nil {
		slog.Error("markdown render failed", "error", err, "news", article.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var featuredURL string
	if article.FeaturedImageID != nil && p.storageClient != nil {
		if media, err := p.mediaStore.FindByID(*article.FeaturedImageID); err == nil && media != nil &&
			media.Bucket == p.storageClient.PublicBucket() {
			featuredURL = p.storageClient.FileURL(media.S3Key)
		}
	}

	pd := p.pageData(lang, title, map[string]any{
		"Article":          article,
		"Title":            title,
		"BodyHTML":         template.HTML(bodyHTML),
		"FeaturedImageURL": featuredURL,
	})
	p.servePage(w, r, key, "news_article", pd)
}

// Documents renders the published documents grouped by category.
func (p *Public) Documents(w http.ResponseWriter, r *http.Request) {
	lang := p.language(r)
	key := cache.DocumentsKey(lang.Code)
	if p.serveCached(w, r, key) {
		return
	}

	categories, err := p.docStore.ListCategories()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	documents, err := p.docStore.ListPublishedDocuments()
	if err != nil {
		slog.Error("list published documents failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type categoryView struct {
		Name      string
		Documents []models.Document
	}
	byCategory := map[uuid.UUID][]models.Document{}
	for _, d := range documents {
		byCategory[d.CategoryID] = append(byCategory[d.CategoryID], d)
	}
	var views []categoryView
	for _, c := range categories {
		views = append(views, categoryView{Name: c.Name, Documents: byCategory[c.ID]})
	}

	pd := p.pageData(lang, "Documentos", map[string]any{"Categories": views})
	pd.Title = pd.T["nav.documents"]
	p.servePage(w, r, key, "documents", pd)
}

// DocumentDownload redirects to a presigned URL for a published document
// and counts the download.
func (p *Public) DocumentDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	doc, err := p.docStore.FindDocumentByID(id)
	if err != nil {
		slog.Error("document lookup failed", "error", err, "document", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if doc == nil || !doc.IsPublished() {
		http.NotFound(w, r)
		return
	}

	url, ok := p.fileURL(r, doc.FileMediaID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := p.docStore.IncrementDownloads(doc.ID); err != nil {
		slog.Warn("download counter failed", "error", err, "document", doc.ID)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ResolutionDownload redirects to the file of a published resolution.
func (p *Public) ResolutionDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	resolution, err := p.resStore.FindByID(id)
	if err != nil {
		slog.Error("resolution lookup failed", "error", err, "resolution", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if resolution == nil || !resolution.IsPublished() || resolution.FileMediaID == nil {
		http.NotFound(w, r)
		return
	}

	url, ok := p.fileURL(r, *resolution.FileMediaID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// fileURL resolves a media row to a servable URL: the direct public URL,
// or a presigned one for the private bucket.
func (p *Public) fileURL(r *http.Request, mediaID uuid.UUID) (string, bool) {
	if p.storageClient == nil {
		return "", false
	}
	media, err := p.mediaStore.FindByID(mediaID)
	if err != nil || media == nil || media.IsDeleted() {
		return "", false
	}
	if media.Bucket == p.storageClient.PublicBucket() {
		return p.storageClient.FileURL(media.S3Key), true
	}
	url, err := p.storageClient.PresignedURL(r.Context(), media.Bucket, media.S3Key, presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", media.S3Key)
		return "", false
	}
	return url, true
}

// calendarView maps the Spanish ?vista= parameter onto a calendar view,
// normalizing unknown values to the month view.
func calendarView(vista string) (calendar.View, string) {
	switch vista {
	case "semana":
		return calendar.ViewWeek, "semana"
	case "dia":
		return calendar.ViewDay, "dia"
	default:
		return calendar.ViewMonth, "mes"
	}
}

// calendarLabel formats the heading for the current cursor position.
func calendarLabel(cursor time.Time, rng calendar.Range, view calendar.View) string {
	switch view {
	case calendar.ViewWeek:
		return fmt.Sprintf("%s – %s", rng.From.Format("02/01/2006"), rng.To.Format("02/01/2006"))
	case calendar.ViewDay:
		return cursor.Format("02/01/2006")
	default:
		return fmt.Sprintf("%s %d", spanishMonths[cursor.Month()-1], cursor.Year())
	}
}
