// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"movilia/internal/models"
)

// ErrTranslationExists is returned when a create or update would
// collide with an existing (type, id, language, field) tuple.
var ErrTranslationExists = errors.New("ya existe una traducción para este campo e idioma")

// TranslationStore handles translation database operations.
type TranslationStore struct {
	db *sql.DB
}

// NewTranslationStore creates a new TranslationStore with the given database connection.
func NewTranslationStore(db *sql.DB) *TranslationStore {
	return &TranslationStore{db: db}
}

const translationColumns = `id, translatable_type, translatable_id, language_id,
	field, value, created_at, updated_at`

func scanTranslation(scanner interface{ Scan(...any) error }) (*models.Translation, error) {
	var t models.Translation
	err := scanner.Scan(
		&t.ID, &t.TranslatableType, &t.TranslatableID, &t.LanguageID,
		&t.Field, &t.Value, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TranslationFilter narrows admin listings. Zero values mean "no filter".
type TranslationFilter struct {
	Type       models.TranslatableType
	LanguageID *uuid.UUID
}

// List returns translations matching the filter with their language
// eager-loaded, newest first.
func (s *TranslationStore) List(f TranslationFilter) ([]models.Translation, error) {
	query := `
		SELECT t.id, t.translatable_type, t.translatable_id, t.language_id,
			t.field, t.value, t.created_at, t.updated_at,
			l.id, l.name, l.code, l.active, l.is_default, l.created_at, l.updated_at
		FROM translations t
		JOIN languages l ON l.id = t.language_id
		WHERE TRUE`
	var args []any
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(` AND t.translatable_type = $%d`, len(args))
	}
	if f.LanguageID != nil {
		args = append(args, *f.LanguageID)
		query += fmt.Sprintf(` AND t.language_id = $%d`, len(args))
	}
	query += ` ORDER BY t.updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var translations []models.Translation
	for rows.Next() {
		var t models.Translation
		var l models.Language
		if err := rows.Scan(
			&t.ID, &t.TranslatableType, &t.TranslatableID, &t.LanguageID,
			&t.Field, &t.Value, &t.CreatedAt, &t.UpdatedAt,
			&l.ID, &l.Name, &l.Code, &l.Active, &l.IsDefault, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		t.Language = &l
		translations = append(translations, t)
	}
	return translations, rows.Err()
}

// FindByID retrieves a translation by UUID. Returns nil if not found.
func (s *TranslationStore) FindByID(id uuid.UUID) (*models.Translation, error) {
	row := s.db.QueryRow(`SELECT `+translationColumns+` FROM translations WHERE id = $1`, id)
	t, err := scanTranslation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find translation by id: %w", err)
	}
	return t, nil
}

// Exists reports whether a translation already occupies the uniqueness
// tuple, excluding the row being edited.
func (s *TranslationStore) Exists(key models.TranslationKey, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM translations
			WHERE translatable_type = $1 AND translatable_id = $2
				AND language_id = $3 AND field = $4 AND id <> $5
		)
	`, key.TranslatableType, key.TranslatableID, key.LanguageID, key.Field, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check translation exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new translation. A concurrent insert that wins the
// race surfaces as ErrTranslationExists via the unique constraint, the
// same error the pre-check raises.
func (s *TranslationStore) Create(t *models.Translation) (*models.Translation, error) {
	row := s.db.QueryRow(`
		INSERT INTO translations (translatable_type, translatable_id, language_id, field, value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+translationColumns,
		t.TranslatableType, t.TranslatableID, t.LanguageID, t.Field, t.Value,
	)
	created, err := scanTranslation(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTranslationExists
		}
		return nil, fmt.Errorf("create translation: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a translation.
func (s *TranslationStore) Update(t *models.Translation) (*models.Translation, error) {
	row := s.db.QueryRow(`
		UPDATE translations SET
			translatable_type = $1, translatable_id = $2, language_id = $3,
			field = $4, value = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+translationColumns,
		t.TranslatableType, t.TranslatableID, t.LanguageID, t.Field, t.Value, t.ID,
	)
	updated, err := scanTranslation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTranslationExists
		}
		return nil, fmt.Errorf("update translation: %w", err)
	}
	return updated, nil
}

// Delete removes a translation.
func (s *TranslationStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM translations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ValuesFor returns the field overrides for one record in one language,
// keyed by field name. Used by the public site's translation resolver.
func (s *TranslationStore) ValuesFor(tt models.TranslatableType, id, languageID uuid.UUID) (map[string]string, error) {
	rows, err := s.db.Query(`
		SELECT field, value FROM translations
		WHERE translatable_type = $1 AND translatable_id = $2 AND language_id = $3
	`, tt, id, languageID)
	if err != nil {
		return nil, fmt.Errorf("load translation values: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan translation value: %w", err)
		}
		values[field] = value
	}
	return values, rows.Err()
}

// isUniqueViolation reports whether the error is a PostgreSQL
// unique-constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
