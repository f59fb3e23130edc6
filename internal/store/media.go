// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, filename, original_name, content_type, size_bytes,
	bucket, s3_key, thumb_s3_key, alt_text, attachable_type, attachable_id,
	uploader_id, deleted_at, created_at`

// scanMedia scans a media row from the result set.
func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.ContentType, &m.SizeBytes,
		&m.Bucket, &m.S3Key, &m.ThumbS3Key, &m.AltText, &m.AttachableType, &m.AttachableID,
		&m.UploaderID, &m.DeletedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(m *models.Media) (*models.Media, error) {
	err := s.db.QueryRow(`
		INSERT INTO media (filename, original_name, content_type, size_bytes,
			bucket, s3_key, thumb_s3_key, alt_text, attachable_type, attachable_id, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+mediaColumns,
		m.Filename, m.OriginalName, m.ContentType, m.SizeBytes,
		m.Bucket, m.S3Key, m.ThumbS3Key, m.AltText, m.AttachableType, m.AttachableID, m.UploaderID,
	).Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.ContentType, &m.SizeBytes,
		&m.Bucket, &m.S3Key, &m.ThumbS3Key, &m.AltText, &m.AttachableType, &m.AttachableID,
		&m.UploaderID, &m.DeletedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return m, nil
}

// FindByID retrieves a single media record by its UUID. Soft-deleted
// rows are still returned so their S3 objects can be cleaned up.
func (s *MediaStore) FindByID(id uuid.UUID) (*models.Media, error) {
	row := s.db.QueryRow(`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// List returns live media items ordered by creation date, with pagination.
func (s *MediaStore) List(limit, offset int) ([]models.Media, error) {
	rows, err := s.db.Query(`
		SELECT `+mediaColumns+`
		FROM media
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// ListForAttachable returns live media attached to the given parent
// entity, oldest first so gallery order is stable.
func (s *MediaStore) ListForAttachable(attachableType string, attachableID uuid.UUID) ([]models.Media, error) {
	rows, err := s.db.Query(`
		SELECT `+mediaColumns+`
		FROM media
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, attachableType, attachableID)
	if err != nil {
		return nil, fmt.Errorf("list media for %s: %w", attachableType, err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// CountForAttachable returns the number of live media rows attached to
// the given parent entity.
func (s *MediaStore) CountForAttachable(attachableType string, attachableID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM media
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
	`, attachableType, attachableID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count media for %s: %w", attachableType, err)
	}
	return count, nil
}

// Attach links an existing media row to a parent entity.
func (s *MediaStore) Attach(id uuid.UUID, attachableType string, attachableID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE media SET attachable_type = $1, attachable_id = $2 WHERE id = $3
	`, attachableType, attachableID, id)
	if err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	return nil
}

// SoftDelete marks a media row as deleted without removing the S3
// objects. Restoring the parent entity restores its media.
func (s *MediaStore) SoftDelete(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE media SET deleted_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("soft delete media: %w", err)
	}
	return nil
}

// SoftDeleteForAttachable soft-deletes every media row attached to the
// given parent entity. Used when the parent itself is soft-deleted.
func (s *MediaStore) SoftDeleteForAttachable(attachableType string, attachableID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE media SET deleted_at = NOW()
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
	`, attachableType, attachableID)
	if err != nil {
		return fmt.Errorf("soft delete media for %s: %w", attachableType, err)
	}
	return nil
}

// RestoreForAttachable clears the deletion mark on media attached to
// the given parent entity.
func (s *MediaStore) RestoreForAttachable(attachableType string, attachableID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE media SET deleted_at = NULL
		WHERE attachable_type = $1 AND attachable_id = $2
	`, attachableType, attachableID)
	if err != nil {
		return fmt.Errorf("restore media for %s: %w", attachableType, err)
	}
	return nil
}

// Delete removes a media record permanently and returns it so the
// caller can clean up the corresponding S3 objects.
func (s *MediaStore) Delete(id uuid.UUID) (*models.Media, error) {
	row := s.db.QueryRow(`
		DELETE FROM media WHERE id = $1
		RETURNING `+mediaColumns, id)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}

// UpdateThumbKey updates the thumbnail S3 key for a media item.
// Used when regenerating variants to point to the new thumb.
func (s *MediaStore) UpdateThumbKey(id uuid.UUID, thumbKey *string) error {
	_, err := s.db.Exec(`UPDATE media SET thumb_s3_key = $1 WHERE id = $2`, thumbKey, id)
	if err != nil {
		return fmt.Errorf("update thumb key: %w", err)
	}
	return nil
}

// Count returns the total number of live media items.
func (s *MediaStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM media WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return count, nil
}

// CreateVariant inserts a responsive rendition row for a media item.
func (s *MediaStore) CreateVariant(v *models.MediaVariant) error {
	err := s.db.QueryRow(`
		INSERT INTO media_variants (media_id, name, s3_key, width, height, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (media_id, name) DO UPDATE SET
			s3_key = EXCLUDED.s3_key, width = EXCLUDED.width,
			height = EXCLUDED.height, size_bytes = EXCLUDED.size_bytes
		RETURNING id, created_at
	`, v.MediaID, v.Name, v.S3Key, v.Width, v.Height, v.SizeBytes).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create media variant: %w", err)
	}
	return nil
}

// VariantsFor returns all renditions generated for a media item.
func (s *MediaStore) VariantsFor(mediaID uuid.UUID) ([]models.MediaVariant, error) {
	rows, err := s.db.Query(`
		SELECT id, media_id, name, s3_key, width, height, size_bytes, created_at
		FROM media_variants WHERE media_id = $1 ORDER BY width ASC
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("list media variants: %w", err)
	}
	defer rows.Close()

	var variants []models.MediaVariant
	for rows.Next() {
		var v models.MediaVariant
		if err := rows.Scan(&v.ID, &v.MediaID, &v.Name, &v.S3Key, &v.Width, &v.Height, &v.SizeBytes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// DeleteVariantsFor removes all rendition rows for a media item and
// returns their S3 keys for object cleanup.
func (s *MediaStore) DeleteVariantsFor(mediaID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(`
		DELETE FROM media_variants WHERE media_id = $1 RETURNING s3_key
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("delete media variants: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan variant key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
