// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// NewsStore handles news-article database operations.
type NewsStore struct {
	db *sql.DB
}

// NewNewsStore creates a new NewsStore with the given database connection.
func NewNewsStore(db *sql.DB) *NewsStore {
	return &NewsStore{db: db}
}

const newsColumns = `id, title, slug, body, excerpt, featured_image_id, published_at,
	created_by, updated_by, deleted_at, created_at, updated_at`

func scanNews(scanner interface{ Scan(...any) error }) (*models.News, error) {
	var n models.News
	err := scanner.Scan(
		&n.ID, &n.Title, &n.Slug, &n.Body, &n.Excerpt, &n.FeaturedImageID, &n.PublishedAt,
		&n.CreatedBy, &n.UpdatedBy, &n.DeletedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns articles for the admin index, newest first. Pass
// deleted=true to list the trash.
func (s *NewsStore) List(deleted bool) ([]models.News, error) {
	clause := `deleted_at IS NULL`
	if deleted {
		clause = `deleted_at IS NOT NULL`
	}
	rows, err := s.db.Query(`
		SELECT ` + newsColumns + ` FROM news WHERE ` + clause + ` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()
	return collectNews(rows)
}

// ListPublished returns published articles, newest publication first,
// for the public news page.
func (s *NewsStore) ListPublished(limit, offset int) ([]models.News, error) {
	rows, err := s.db.Query(`
		SELECT `+newsColumns+`
		FROM news
		WHERE deleted_at IS NULL AND published_at IS NOT NULL
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published news: %w", err)
	}
	defer rows.Close()
	return collectNews(rows)
}

func collectNews(rows *sql.Rows) ([]models.News, error) {
	var articles []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		articles = append(articles, *n)
	}
	return articles, rows.Err()
}

// FindByID retrieves an article by UUID, including soft-deleted rows.
// Returns nil if not found.
func (s *NewsStore) FindByID(id uuid.UUID) (*models.News, error) {
	row := s.db.QueryRow(`SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find news by id: %w", err)
	}
	return n, nil
}

// FindPublishedBySlug retrieves a published article by slug for the
// public site. Returns nil if not found, deleted, or unpublished.
func (s *NewsStore) FindPublishedBySlug(slug string) (*models.News, error) {
	row := s.db.QueryRow(`
		SELECT `+newsColumns+`
		FROM news
		WHERE slug = $1 AND deleted_at IS NULL AND published_at IS NOT NULL
	`, slug)
	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find news by slug: %w", err)
	}
	return n, nil
}

// SlugTaken reports whether a slug is already used by a live article
// other than the one being edited.
func (s *NewsStore) SlugTaken(slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM news WHERE slug = $1 AND id <> $2 AND deleted_at IS NULL
		)
	`, slug, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check news slug: %w", err)
	}
	return taken, nil
}

// Create inserts a new article and returns it.
func (s *NewsStore) Create(n *models.News) (*models.News, error) {
	row := s.db.QueryRow(`
		INSERT INTO news (title, slug, body, excerpt, featured_image_id, published_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+newsColumns,
		n.Title, n.Slug, n.Body, n.Excerpt, n.FeaturedImageID, n.PublishedAt, n.CreatedBy,
	)
	created, err := scanNews(row)
	if err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of an article.
func (s *NewsStore) Update(n *models.News, updatedBy uuid.UUID) (*models.News, error) {
	row := s.db.QueryRow(`
		UPDATE news SET
			title = $1, slug = $2, body = $3, excerpt = $4, featured_image_id = $5,
			published_at = $6, updated_by = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING `+newsColumns,
		n.Title, n.Slug, n.Body, n.Excerpt, n.FeaturedImageID, n.PublishedAt, updatedBy, n.ID,
	)
	updated, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update news: %w", err)
	}
	return updated, nil
}

// Publish stamps published_at if not already set. The first timestamp wins.
func (s *NewsStore) Publish(id uuid.UUID, updatedBy uuid.UUID) (*models.News, error) {
	row := s.db.QueryRow(`
		UPDATE news SET
			published_at = COALESCE(published_at, NOW()), updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING `+newsColumns, updatedBy, id)
	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("publish news: %w", err)
	}
	return n, nil
}

// Unpublish hides an article from the public site again.
func (s *NewsStore) Unpublish(id uuid.UUID, updatedBy uuid.UUID) (*models.News, error) {
	row := s.db.QueryRow(`
		UPDATE news SET published_at = NULL, updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING `+newsColumns, updatedBy, id)
	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unpublish news: %w", err)
	}
	return n, nil
}

// Delete soft-deletes an article.
func (s *NewsStore) Delete(id uuid.UUID, deletedBy uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE news SET deleted_at = NOW(), updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft delete news: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Restore clears the deletion mark on an article.
func (s *NewsStore) Restore(id uuid.UUID, restoredBy uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE news SET deleted_at = NULL, updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NOT NULL
	`, restoredBy, id)
	if err != nil {
		return fmt.Errorf("restore news: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ForceDelete permanently removes a soft-deleted article.
func (s *NewsStore) ForceDelete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM news WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("force delete news: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the number of live articles, for the admin dashboard.
func (s *NewsStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM news WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return count, nil
}
