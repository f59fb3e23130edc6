// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// AttachableEvent is the attachable_type value used for event images.
const AttachableEvent = "event"

// EventStore handles program-event database operations.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates a new EventStore with the given database connection.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, title, description, event_type, start_date, end_date,
	is_all_day, is_public, location, program_id, call_id,
	created_by, updated_by, deleted_at, created_at, updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*models.ErasmusEvent, error) {
	var e models.ErasmusEvent
	err := scanner.Scan(
		&e.ID, &e.Title, &e.Description, &e.EventType, &e.StartDate, &e.EndDate,
		&e.IsAllDay, &e.IsPublic, &e.Location, &e.ProgramID, &e.CallID,
		&e.CreatedBy, &e.UpdatedBy, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventFilter narrows admin listings. Zero values mean "no filter".
type EventFilter struct {
	Type      models.EventType
	ProgramID *uuid.UUID
	CallID    *uuid.UUID
	Deleted   bool
}

// List returns events matching the filter, upcoming first.
func (s *EventStore) List(f EventFilter) ([]models.ErasmusEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM erasmus_events WHERE `
	var args []any
	if f.Deleted {
		query += `deleted_at IS NOT NULL`
	} else {
		query += `deleted_at IS NULL`
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(` AND event_type = $%d`, len(args))
	}
	if f.ProgramID != nil {
		args = append(args, *f.ProgramID)
		query += fmt.Sprintf(` AND program_id = $%d`, len(args))
	}
	if f.CallID != nil {
		args = append(args, *f.CallID)
		query += fmt.Sprintf(` AND call_id = $%d`, len(args))
	}
	query += ` ORDER BY start_date DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListPublicUpcoming returns public events starting at or after the
// given instant, soonest first, for the public events page.
func (s *EventStore) ListPublicUpcoming(from time.Time, limit int) ([]models.ErasmusEvent, error) {
	rows, err := s.db.Query(`
		SELECT `+eventColumns+`
		FROM erasmus_events
		WHERE deleted_at IS NULL AND is_public AND start_date >= $1
		ORDER BY start_date ASC
		LIMIT $2
	`, from, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListPublicBetween returns public events whose occupied range overlaps
// the inclusive window [from, to], earliest first. Events with no end
// date occupy only their start instant. Program and call relations are
// eager-loaded for calendar rendering.
func (s *EventStore) ListPublicBetween(from, to time.Time) ([]models.ErasmusEvent, error) {
	rows, err := s.db.Query(`
		SELECT `+eventColumns+`
		FROM erasmus_events
		WHERE deleted_at IS NULL AND is_public
			AND start_date <= $2
			AND COALESCE(end_date, start_date) >= $1
		ORDER BY start_date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events between: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(events); err != nil {
		return nil, err
	}
	return events, nil
}

func collectEvents(rows *sql.Rows) ([]models.ErasmusEvent, error) {
	var events []models.ErasmusEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// loadRelations fills Program and Call on each event that references one.
func (s *EventStore) loadRelations(events []models.ErasmusEvent) error {
	programs := map[uuid.UUID]*models.Program{}
	calls := map[uuid.UUID]*models.Call{}
	for i := range events {
		e := &events[i]
		if e.ProgramID != nil {
			p, ok := programs[*e.ProgramID]
			if !ok {
				var err error
				p, err = s.findProgram(*e.ProgramID)
				if err != nil {
					return err
				}
				programs[*e.ProgramID] = p
			}
			e.Program = p
		}
		if e.CallID != nil {
			c, ok := calls[*e.CallID]
			if !ok {
				row := s.db.QueryRow(`SELECT `+callColumns+` FROM calls WHERE id = $1`, *e.CallID)
				var err error
				c, err = scanCall(row)
				if err == sql.ErrNoRows {
					c = nil
				} else if err != nil {
					return fmt.Errorf("load event call: %w", err)
				}
				calls[*e.CallID] = c
			}
			e.Call = c
		}
	}
	return nil
}

func (s *EventStore) findProgram(id uuid.UUID) (*models.Program, error) {
	var p models.Program
	err := s.db.QueryRow(`
		SELECT id, name, code, color, active, created_at, updated_at
		FROM programs WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Code, &p.Color, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load event program: %w", err)
	}
	return &p, nil
}

// FindByID retrieves an event by UUID, including soft-deleted rows,
// with its attached-image count loaded. Returns nil if not found.
func (s *EventStore) FindByID(id uuid.UUID) (*models.ErasmusEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM erasmus_events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM media
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
	`, AttachableEvent, id).Scan(&e.ImagesCount)
	if err != nil {
		return nil, fmt.Errorf("count event images: %w", err)
	}
	single := []models.ErasmusEvent{*e}
	if err := s.loadRelations(single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Create inserts a new event and returns it.
func (s *EventStore) Create(e *models.ErasmusEvent) (*models.ErasmusEvent, error) {
	row := s.db.QueryRow(`
		INSERT INTO erasmus_events (title, description, event_type, start_date, end_date,
			is_all_day, is_public, location, program_id, call_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING `+eventColumns,
		e.Title, e.Description, e.EventType, e.StartDate, e.EndDate,
		e.IsAllDay, e.IsPublic, e.Location, e.ProgramID, e.CallID, e.CreatedBy,
	)
	created, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of an event.
func (s *EventStore) Update(e *models.ErasmusEvent, updatedBy uuid.UUID) (*models.ErasmusEvent, error) {
	row := s.db.QueryRow(`
		UPDATE erasmus_events SET
			title = $1, description = $2, event_type = $3, start_date = $4, end_date = $5,
			is_all_day = $6, is_public = $7, location = $8, program_id = $9, call_id = $10,
			updated_by = $11, updated_at = NOW()
		WHERE id = $12 AND deleted_at IS NULL
		RETURNING `+eventColumns,
		e.Title, e.Description, e.EventType, e.StartDate, e.EndDate,
		e.IsAllDay, e.IsPublic, e.Location, e.ProgramID, e.CallID, updatedBy, e.ID,
	)
	updated, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// Delete soft-deletes an event. Attached images block deletion; the
// count is taken inside the deleting transaction. Returns a
// *GuardError when images exist.
func (s *EventStore) Delete(id uuid.UUID, deletedBy uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin event delete: %w", err)
	}
	defer tx.Rollback()

	var images int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM media
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
	`, AttachableEvent, id).Scan(&images)
	if err != nil {
		return fmt.Errorf("count event images: %w", err)
	}
	if images > 0 {
		return &GuardError{Counts: map[string]int{"imágenes": images}}
	}

	res, err := tx.Exec(`
		UPDATE erasmus_events SET deleted_at = NOW(), updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Restore clears the deletion mark on an event.
func (s *EventStore) Restore(id uuid.UUID, restoredBy uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE erasmus_events SET deleted_at = NULL, updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NOT NULL
	`, restoredBy, id)
	if err != nil {
		return fmt.Errorf("restore event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ForceDelete permanently removes a soft-deleted event. The image
// guard applies here too.
func (s *EventStore) ForceDelete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin event force delete: %w", err)
	}
	defer tx.Rollback()

	var images int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM media
		WHERE attachable_type = $1 AND attachable_id = $2 AND deleted_at IS NULL
	`, AttachableEvent, id).Scan(&images)
	if err != nil {
		return fmt.Errorf("count event images: %w", err)
	}
	if images > 0 {
		return &GuardError{Counts: map[string]int{"imágenes": images}}
	}

	res, err := tx.Exec(`DELETE FROM erasmus_events WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("force delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Count returns the number of live events, for the admin dashboard.
func (s *EventStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM erasmus_events WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
