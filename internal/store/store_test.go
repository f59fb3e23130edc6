// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"movilia/internal/database"
	"movilia/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "movilia")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "movilia")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway admin user and registers its cleanup.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()

	email := "test-" + uuid.NewString() + "@movilia.test"
	u, err := NewUserStore(db).Create(email, "secret123", "Test User", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testCall creates a minimal draft call owned by the given user and
// registers its cleanup. Dependent rows must be removed by the test.
func testCall(t *testing.T, db *sql.DB, owner *models.User) *models.Call {
	t.Helper()

	c, err := NewCallStore(db).Create(&models.Call{
		Title:          "Convocatoria de prueba",
		Slug:           "prueba-" + uuid.NewString()[:8],
		Type:           models.CallTypeAlumnado,
		Modality:       models.CallModalityCorta,
		NumberOfPlaces: 5,
		Destinations:   []string{"Lisboa"},
		ScoringTable:   []models.ScoringRow{{Concept: "Expediente", MaxPoints: 10}},
		CreatedBy:      owner.ID,
	})
	if err != nil {
		t.Fatalf("create test call: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM calls WHERE id = $1", c.ID) })
	return c
}

// cleanCalls removes test calls by slug. Call in t.Cleanup().
func cleanCalls(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM calls WHERE slug = $1", slug)
	}
}
