// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// LanguageStore handles language database operations.
type LanguageStore struct {
	db *sql.DB
}

// NewLanguageStore creates a new LanguageStore with the given database connection.
func NewLanguageStore(db *sql.DB) *LanguageStore {
	return &LanguageStore{db: db}
}

const languageColumns = `id, name, code, active, is_default, created_at, updated_at`

func scanLanguage(scanner interface{ Scan(...any) error }) (*models.Language, error) {
	var l models.Language
	err := scanner.Scan(&l.ID, &l.Name, &l.Code, &l.Active, &l.IsDefault, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all languages ordered by code, with their translation
// counts loaded for the admin index.
func (s *LanguageStore) List() ([]models.Language, error) {
	rows, err := s.db.Query(`
		SELECT l.id, l.name, l.code, l.active, l.is_default, l.created_at, l.updated_at,
			(SELECT COUNT(*) FROM translations WHERE language_id = l.id)
		FROM languages l
		ORDER BY l.code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var languages []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Code, &l.Active, &l.IsDefault, &l.CreatedAt, &l.UpdatedAt,
			&l.TranslationsCount,
		); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}

// ListActive returns only active languages, for the public language switcher.
func (s *LanguageStore) ListActive() ([]models.Language, error) {
	rows, err := s.db.Query(`SELECT ` + languageColumns + ` FROM languages WHERE active ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active languages: %w", err)
	}
	defer rows.Close()

	var languages []models.Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		languages = append(languages, *l)
	}
	return languages, rows.Err()
}

// FindByID retrieves a language by UUID. Returns nil if not found.
func (s *LanguageStore) FindByID(id uuid.UUID) (*models.Language, error) {
	row := s.db.QueryRow(`SELECT `+languageColumns+` FROM languages WHERE id = $1`, id)
	l, err := scanLanguage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find language by id: %w", err)
	}
	return l, nil
}

// FindByCode retrieves a language by its ISO code ("es", "en").
// Returns nil if not found.
func (s *LanguageStore) FindByCode(code string) (*models.Language, error) {
	row := s.db.QueryRow(`SELECT `+languageColumns+` FROM languages WHERE code = $1`, code)
	l, err := scanLanguage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find language by code: %w", err)
	}
	return l, nil
}

// Default returns the site's default language, or nil when none is marked.
func (s *LanguageStore) Default() (*models.Language, error) {
	row := s.db.QueryRow(`SELECT ` + languageColumns + ` FROM languages WHERE is_default`)
	l, err := scanLanguage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find default language: %w", err)
	}
	return l, nil
}

// Create inserts a new language and returns it.
func (s *LanguageStore) Create(l *models.Language) (*models.Language, error) {
	row := s.db.QueryRow(`
		INSERT INTO languages (name, code, active)
		VALUES ($1, $2, $3)
		RETURNING `+languageColumns,
		l.Name, l.Code, l.Active,
	)
	created, err := scanLanguage(row)
	if err != nil {
		return nil, fmt.Errorf("create language: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a language.
func (s *LanguageStore) Update(l *models.Language) (*models.Language, error) {
	row := s.db.QueryRow(`
		UPDATE languages SET name = $1, code = $2, active = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+languageColumns,
		l.Name, l.Code, l.Active, l.ID,
	)
	updated, err := scanLanguage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update language: %w", err)
	}
	return updated, nil
}

// SetDefault marks one language as the site default, clearing the flag
// on every other language in the same transaction.
func (s *LanguageStore) SetDefault(id uuid.UUID) (*models.Language, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin set default language: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE languages SET is_default = FALSE, updated_at = NOW() WHERE is_default`)
	if err != nil {
		return nil, fmt.Errorf("clear default language: %w", err)
	}

	row := tx.QueryRow(`
		UPDATE languages SET is_default = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+languageColumns, id)
	l, err := scanLanguage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set default language: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set default language: %w", err)
	}
	return l, nil
}

// Delete removes a language. Translations that reference it block
// deletion. Returns a *GuardError when dependents exist.
func (s *LanguageStore) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin language delete: %w", err)
	}
	defer tx.Rollback()

	var translations int
	err = tx.QueryRow(`SELECT COUNT(*) FROM translations WHERE language_id = $1`, id).Scan(&translations)
	if err != nil {
		return fmt.Errorf("count language dependents: %w", err)
	}
	if translations > 0 {
		return &GuardError{Counts: map[string]int{"traducciones": translations}}
	}

	res, err := tx.Exec(`DELETE FROM languages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete language: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
