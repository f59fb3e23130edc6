// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CacheInvalidation is one logged page-cache purge.
type CacheInvalidation struct {
	ID        string
	CacheKey  string
	Reason    string
	CreatedAt time.Time
}

// CacheInvalidationStore logs page-cache purges so operators can see
// why a public page was regenerated.
type CacheInvalidationStore struct {
	db *sql.DB
}

// NewCacheInvalidationStore creates a new CacheInvalidationStore.
func NewCacheInvalidationStore(db *sql.DB) *CacheInvalidationStore {
	return &CacheInvalidationStore{db: db}
}

// Record logs one purge. Failures are returned but callers treat the
// log as best-effort; a purge is never aborted over it.
func (s *CacheInvalidationStore) Record(cacheKey, reason string) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_invalidations (cache_key, reason) VALUES ($1, $2)
	`, cacheKey, reason)
	if err != nil {
		return fmt.Errorf("record cache invalidation: %w", err)
	}
	return nil
}

// ListRecent returns the latest purges for the admin cache page.
func (s *CacheInvalidationStore) ListRecent(limit int) ([]CacheInvalidation, error) {
	rows, err := s.db.Query(`
		SELECT id, cache_key, reason, created_at
		FROM cache_invalidations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cache invalidations: %w", err)
	}
	defer rows.Close()

	var entries []CacheInvalidation
	for rows.Next() {
		var e CacheInvalidation
		if err := rows.Scan(&e.ID, &e.CacheKey, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cache invalidation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
