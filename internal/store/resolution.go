// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// ResolutionStore handles resolution database operations.
type ResolutionStore struct {
	db *sql.DB
}

// NewResolutionStore creates a new ResolutionStore with the given database connection.
func NewResolutionStore(db *sql.DB) *ResolutionStore {
	return &ResolutionStore{db: db}
}

const resolutionColumns = `id, call_id, call_phase_id, title, type, official_date,
	published_at, file_media_id, created_at, updated_at`

func scanResolution(scanner interface{ Scan(...any) error }) (*models.Resolution, error) {
	var r models.Resolution
	err := scanner.Scan(
		&r.ID, &r.CallID, &r.CallPhaseID, &r.Title, &r.Type, &r.OfficialDate,
		&r.PublishedAt, &r.FileMediaID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByCall returns all resolutions for a call, newest official date first.
func (s *ResolutionStore) ListByCall(callID uuid.UUID) ([]models.Resolution, error) {
	rows, err := s.db.Query(`
		SELECT `+resolutionColumns+`
		FROM resolutions
		WHERE call_id = $1
		ORDER BY official_date DESC, created_at DESC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []models.Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		resolutions = append(resolutions, *r)
	}
	return resolutions, rows.Err()
}

// ListPublishedByCall returns only the resolutions visible on the
// public site, newest official date first.
func (s *ResolutionStore) ListPublishedByCall(callID uuid.UUID) ([]models.Resolution, error) {
	rows, err := s.db.Query(`
		SELECT `+resolutionColumns+`
		FROM resolutions
		WHERE call_id = $1 AND published_at IS NOT NULL
		ORDER BY official_date DESC, created_at DESC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("list published resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []models.Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		resolutions = append(resolutions, *r)
	}
	return resolutions, rows.Err()
}

// FindByID retrieves a resolution by UUID. Returns nil if not found.
func (s *ResolutionStore) FindByID(id uuid.UUID) (*models.Resolution, error) {
	row := s.db.QueryRow(`SELECT `+resolutionColumns+` FROM resolutions WHERE id = $1`, id)
	r, err := scanResolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resolution by id: %w", err)
	}
	return r, nil
}

// Create inserts a new resolution and returns it. New resolutions are
// unpublished until Publish is called.
func (s *ResolutionStore) Create(r *models.Resolution) (*models.Resolution, error) {
	row := s.db.QueryRow(`
		INSERT INTO resolutions (call_id, call_phase_id, title, type, official_date, file_media_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+resolutionColumns,
		r.CallID, r.CallPhaseID, r.Title, r.Type, r.OfficialDate, r.FileMediaID,
	)
	created, err := scanResolution(row)
	if err != nil {
		return nil, fmt.Errorf("create resolution: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a resolution.
func (s *ResolutionStore) Update(r *models.Resolution) (*models.Resolution, error) {
	row := s.db.QueryRow(`
		UPDATE resolutions SET
			call_phase_id = $1, title = $2, type = $3, official_date = $4,
			file_media_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+resolutionColumns,
		r.CallPhaseID, r.Title, r.Type, r.OfficialDate, r.FileMediaID, r.ID,
	)
	updated, err := scanResolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update resolution: %w", err)
	}
	return updated, nil
}

// Publish stamps published_at if it is not already set. Publishing is
// idempotent; the first timestamp wins.
func (s *ResolutionStore) Publish(id uuid.UUID) (*models.Resolution, error) {
	row := s.db.QueryRow(`
		UPDATE resolutions SET
			published_at = COALESCE(published_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING `+resolutionColumns, id)
	r, err := scanResolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("publish resolution: %w", err)
	}
	return r, nil
}

// Unpublish hides a resolution from the public site again.
func (s *ResolutionStore) Unpublish(id uuid.UUID) (*models.Resolution, error) {
	row := s.db.QueryRow(`
		UPDATE resolutions SET published_at = NULL, updated_at = NOW()
		WHERE id = $1
		RETURNING `+resolutionColumns, id)
	r, err := scanResolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unpublish resolution: %w", err)
	}
	return r, nil
}

// Delete removes a resolution.
func (s *ResolutionStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM resolutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
