// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"movilia/internal/cache"
	"movilia/internal/database"
	"movilia/internal/middleware"
	"movilia/internal/models"
	"movilia/internal/render"
	"movilia/internal/session"
	"movilia/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "movilia")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "movilia")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		db.Close()
		t.Fatalf("seed: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB           *sql.DB
	Valkey       *redis.Client
	Renderer     *render.Renderer
	Sessions     *session.Store
	UserStore    *store.UserStore
	CallStore    *store.CallStore
	PhaseStore   *store.PhaseStore
	ResStore     *store.ResolutionStore
	AppStore     *store.ApplicationStore
	EventStore   *store.EventStore
	TrStore      *store.TranslationStore
	ProgramStore *store.ProgramStore
	YearStore    *store.AcademicYearStore
	LangStore    *store.LanguageStore
	SettingStore *store.SettingStore
	NewsStore    *store.NewsStore
	DocStore     *store.DocumentStore
	MediaStore   *store.MediaStore
	PageCache    *cache.PageCache
	Admin        *Admin
	Auth         *Auth
	Public       *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
// The storage client stays nil, so upload endpoints refuse with their
// no-storage message.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	callStore := store.NewCallStore(db)
	phaseStore := store.NewPhaseStore(db)
	resStore := store.NewResolutionStore(db)
	appStore := store.NewApplicationStore(db)
	eventStore := store.NewEventStore(db)
	trStore := store.NewTranslationStore(db)
	programStore := store.NewProgramStore(db)
	yearStore := store.NewAcademicYearStore(db)
	langStore := store.NewLanguageStore(db)
	settingStore := store.NewSettingStore(db)
	newsStore := store.NewNewsStore(db)
	docStore := store.NewDocumentStore(db)
	mediaStore := store.NewMediaStore(db)
	activityStore := store.NewActivityStore(db)
	cacheLogStore := store.NewCacheInvalidationStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)

	admin := NewAdmin(
		renderer, sessions, userStore,
		callStore, phaseStore, resStore, appStore,
		eventStore, trStore,
		programStore, yearStore, langStore, settingStore,
		newsStore, docStore, mediaStore,
		activityStore, nil, pageCache, cacheLogStore,
	)
	auth := NewAuth(renderer, sessions, userStore)
	public := NewPublic(
		renderer, callStore, phaseStore, resStore, eventStore,
		newsStore, docStore, mediaStore, trStore, langStore,
		settingStore, nil, pageCache,
	)

	return &testEnv{
		DB:           db,
		Valkey:       vk,
		Renderer:     renderer,
		Sessions:     sessions,
		UserStore:    userStore,
		CallStore:    callStore,
		PhaseStore:   phaseStore,
		ResStore:     resStore,
		AppStore:     appStore,
		EventStore:   eventStore,
		TrStore:      trStore,
		ProgramStore: programStore,
		YearStore:    yearStore,
		LangStore:    langStore,
		SettingStore: settingStore,
		NewsStore:    newsStore,
		DocStore:     docStore,
		MediaStore:   mediaStore,
		PageCache:    pageCache,
		Admin:        admin,
		Auth:         auth,
		Public:       public,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testAdminID returns the seeded admin user id.
func testAdminID(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id); err != nil {
		t.Fatalf("no users in database, run seed first: %v", err)
	}
	return id
}

// adminSession builds a fully verified admin session for the seeded user.
func adminSession(t *testing.T, db *sql.DB) *session.Data {
	t.Helper()
	return testSession(testAdminID(t, db), "admin@movilia.local", "admin", true)
}

// cleanCalls removes test calls by slug, including trashed ones.
func cleanCalls(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM calls WHERE slug = $1 OR slug LIKE $1 || '-%'", s)
	}
}

// cleanEvents removes test events by title.
func cleanEvents(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec("DELETE FROM erasmus_events WHERE title = $1", title)
	}
}

// cleanNews removes test articles by slug.
func cleanNews(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM news WHERE slug = $1 OR slug LIKE $1 || '-%'", s)
	}
}

// cleanTranslations removes test translations by field.
func cleanTranslations(t *testing.T, db *sql.DB, fields ...string) {
	t.Helper()
	for _, f := range fields {
		db.Exec("DELETE FROM translations WHERE field = $1", f)
	}
}

// cleanLanguages removes test languages by code.
func cleanLanguages(t *testing.T, db *sql.DB, codes ...string) {
	t.Helper()
	for _, c := range codes {
		db.Exec("DELETE FROM languages WHERE code = $1 AND is_default = FALSE", c)
	}
}

// cleanPrograms removes test programs by code.
func cleanPrograms(t *testing.T, db *sql.DB, codes ...string) {
	t.Helper()
	for _, c := range codes {
		db.Exec("DELETE FROM programs WHERE code = $1", c)
	}
}

// createTestCall inserts a draft call directly through the store and
// returns the created row. The caller is responsible for cleanup.
func createTestCall(t *testing.T, env *testEnv, actorID uuid.UUID, title, slug string) *models.Call {
	t.Helper()
	c := &models.Call{
		Title:          title,
		Slug:           slug,
		Type:           models.CallTypeAlumnado,
		Modality:       models.CallModalityCorta,
		NumberOfPlaces: 5,
		Destinations:   []string{"Lisboa (Portugal)"},
		ScoringTable: []models.ScoringRow{
			{Concept: "Expediente académico", MaxPoints: 6},
		},
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	created, err := env.CallStore.Create(c)
	if err != nil {
		t.Fatalf("createTestCall: %v", err)
	}
	return created
}

// createTestEvent inserts a public event through the store.
func createTestEvent(t *testing.T, env *testEnv, actorID uuid.UUID, title string, start time.Time) *models.ErasmusEvent {
	t.Helper()
	e := &models.ErasmusEvent{
		Title:     title,
		EventType: models.EventReunionInformativa,
		StartDate: start,
		IsPublic:  true,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	created, err := env.EventStore.Create(e)
	if err != nil {
		t.Fatalf("createTestEvent: %v", err)
	}
	return created
}

// createTestLanguage inserts an active non-default language.
func createTestLanguage(t *testing.T, env *testEnv, name, code string) *models.Language {
	t.Helper()
	l := &models.Language{Name: name, Code: code, Active: true}
	created, err := env.LangStore.Create(l)
	if err != nil {
		t.Fatalf("createTestLanguage: %v", err)
	}
	return created
}
