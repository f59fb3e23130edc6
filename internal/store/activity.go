// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// ActivityStore records and reads the admin audit trail.
type ActivityStore struct {
	db *sql.DB
}

// NewActivityStore creates a new ActivityStore with the given database connection.
func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Record appends one audit entry. Properties may be nil. Recording is
// best-effort from the handlers' point of view; a failed insert is
// returned but must not abort the action it describes.
func (s *ActivityStore) Record(actorID uuid.UUID, action, subjectType string, subjectID uuid.UUID, properties any) error {
	var props []byte
	if properties != nil {
		var err error
		props, err = json.Marshal(properties)
		if err != nil {
			return fmt.Errorf("encode activity properties: %w", err)
		}
	}
	_, err := s.db.Exec(`
		INSERT INTO activity_log (actor_id, action, subject_type, subject_id, properties)
		VALUES ($1, $2, $3, $4, $5)
	`, actorID, action, subjectType, subjectID, props)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListRecent returns the latest audit entries for the dashboard.
func (s *ActivityStore) ListRecent(limit int) ([]models.ActivityLog, error) {
	rows, err := s.db.Query(`
		SELECT id, actor_id, action, subject_type, subject_id, properties, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	defer rows.Close()
	return collectActivity(rows)
}

// ListForSubject returns the audit trail of one record, newest first.
func (s *ActivityStore) ListForSubject(subjectType string, subjectID uuid.UUID) ([]models.ActivityLog, error) {
	rows, err := s.db.Query(`
		SELECT id, actor_id, action, subject_type, subject_id, properties, created_at
		FROM activity_log
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY created_at DESC
	`, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list subject activity: %w", err)
	}
	defer rows.Close()
	return collectActivity(rows)
}

func collectActivity(rows *sql.Rows) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	for rows.Next() {
		var e models.ActivityLog
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.SubjectType, &e.SubjectID, &e.Properties, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
