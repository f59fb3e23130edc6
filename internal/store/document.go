// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// DocumentStore handles document and document-category database operations.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore with the given database connection.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const categoryColumns = `id, name, slug, sort_order, created_at, updated_at`

const documentColumns = `id, title, description, category_id, file_media_id, downloads,
	published_at, created_by, updated_by, created_at, updated_at`

func scanCategory(scanner interface{ Scan(...any) error }) (*models.DocumentCategory, error) {
	var c models.DocumentCategory
	err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanDocument(scanner interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Description, &d.CategoryID, &d.FileMediaID, &d.Downloads,
		&d.PublishedAt, &d.CreatedBy, &d.UpdatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListCategories returns all categories in sort order with their
// document counts loaded.
func (s *DocumentStore) ListCategories() ([]models.DocumentCategory, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.sort_order, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM documents WHERE category_id = c.id)
		FROM document_categories c
		ORDER BY c.sort_order ASC, c.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list document categories: %w", err)
	}
	defer rows.Close()

	var categories []models.DocumentCategory
	for rows.Next() {
		var c models.DocumentCategory
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
			&c.DocumentsCount,
		); err != nil {
			return nil, fmt.Errorf("scan document category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FindCategoryByID retrieves a category by UUID. Returns nil if not found.
func (s *DocumentStore) FindCategoryByID(id uuid.UUID) (*models.DocumentCategory, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM document_categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document category by id: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a new category and returns it.
func (s *DocumentStore) CreateCategory(c *models.DocumentCategory) (*models.DocumentCategory, error) {
	row := s.db.QueryRow(`
		INSERT INTO document_categories (name, slug, sort_order)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.SortOrder,
	)
	created, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create document category: %w", err)
	}
	return created, nil
}

// UpdateCategory saves the editable fields of a category.
func (s *DocumentStore) UpdateCategory(c *models.DocumentCategory) (*models.DocumentCategory, error) {
	row := s.db.QueryRow(`
		UPDATE document_categories SET name = $1, slug = $2, sort_order = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.SortOrder, c.ID,
	)
	updated, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update document category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes a category. Documents that reference it block
// deletion. Returns a *GuardError when dependents exist.
func (s *DocumentStore) DeleteCategory(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin category delete: %w", err)
	}
	defer tx.Rollback()

	var docs int
	err = tx.QueryRow(`SELECT COUNT(*) FROM documents WHERE category_id = $1`, id).Scan(&docs)
	if err != nil {
		return fmt.Errorf("count category dependents: %w", err)
	}
	if docs > 0 {
		return &GuardError{Counts: map[string]int{"documentos": docs}}
	}

	res, err := tx.Exec(`DELETE FROM document_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ListDocuments returns all documents with their category eager-loaded,
// grouped by category sort order for the admin index.
func (s *DocumentStore) ListDocuments() ([]models.Document, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.title, d.description, d.category_id, d.file_media_id, d.downloads,
			d.published_at, d.created_by, d.updated_by, d.created_at, d.updated_at,
			c.id, c.name, c.slug, c.sort_order, c.created_at, c.updated_at
		FROM documents d
		JOIN document_categories c ON c.id = d.category_id
		ORDER BY c.sort_order ASC, d.title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocumentsWithCategory(rows)
}

// ListPublishedDocuments returns published documents with categories,
// for the public downloads page.
func (s *DocumentStore) ListPublishedDocuments() ([]models.Document, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.title, d.description, d.category_id, d.file_media_id, d.downloads,
			d.published_at, d.created_by, d.updated_by, d.created_at, d.updated_at,
			c.id, c.name, c.slug, c.sort_order, c.created_at, c.updated_at
		FROM documents d
		JOIN document_categories c ON c.id = d.category_id
		WHERE d.published_at IS NOT NULL
		ORDER BY c.sort_order ASC, d.title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published documents: %w", err)
	}
	defer rows.Close()
	return collectDocumentsWithCategory(rows)
}

func collectDocumentsWithCategory(rows *sql.Rows) ([]models.Document, error) {
	var documents []models.Document
	for rows.Next() {
		var d models.Document
		var c models.DocumentCategory
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.CategoryID, &d.FileMediaID, &d.Downloads,
			&d.PublishedAt, &d.CreatedBy, &d.UpdatedBy, &d.CreatedAt, &d.UpdatedAt,
			&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Category = &c
		documents = append(documents, d)
	}
	return documents, rows.Err()
}

// FindDocumentByID retrieves a document by UUID. Returns nil if not found.
func (s *DocumentStore) FindDocumentByID(id uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return d, nil
}

// CreateDocument inserts a new document and returns it.
func (s *DocumentStore) CreateDocument(d *models.Document) (*models.Document, error) {
	row := s.db.QueryRow(`
		INSERT INTO documents (title, description, category_id, file_media_id, published_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+documentColumns,
		d.Title, d.Description, d.CategoryID, d.FileMediaID, d.PublishedAt, d.CreatedBy,
	)
	created, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return created, nil
}

// UpdateDocument saves the editable fields of a document.
func (s *DocumentStore) UpdateDocument(d *models.Document, updatedBy uuid.UUID) (*models.Document, error) {
	row := s.db.QueryRow(`
		UPDATE documents SET
			title = $1, description = $2, category_id = $3, file_media_id = $4,
			published_at = $5, updated_by = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+documentColumns,
		d.Title, d.Description, d.CategoryID, d.FileMediaID, d.PublishedAt, updatedBy, d.ID,
	)
	updated, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return updated, nil
}

// IncrementDownloads bumps the download counter for a document.
func (s *DocumentStore) IncrementDownloads(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE documents SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

// DeleteDocument removes a document. The file media row survives and
// is cleaned up separately.
func (s *DocumentStore) DeleteDocument(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
