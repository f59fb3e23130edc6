// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"movilia/internal/models"
)

// CallStore handles all call-related database operations, including the
// lifecycle transitions and the guarded soft-delete protocol.
type CallStore struct {
	db *sql.DB
}

// NewCallStore creates a new CallStore with the given database connection.
func NewCallStore(db *sql.DB) *CallStore {
	return &CallStore{db: db}
}

// callColumns lists the columns selected in call queries.
const callColumns = `id, title, slug, type, modality, number_of_places, destinations,
	estimated_start_date, estimated_end_date, requirements, documentation,
	selection_criteria, scoring_table, status, program_id, academic_year_id,
	published_at, closed_at, created_by, updated_by, deleted_at, created_at, updated_at`

// scanCall scans a call row from the result set. The scoring table is
// stored as JSONB and decoded here.
func scanCall(scanner interface{ Scan(...any) error }) (*models.Call, error) {
	var c models.Call
	var scoring []byte
	err := scanner.Scan(
		&c.ID, &c.Title, &c.Slug, &c.Type, &c.Modality, &c.NumberOfPlaces,
		pq.Array(&c.Destinations),
		&c.EstimatedStartDate, &c.EstimatedEndDate, &c.Requirements, &c.Documentation,
		&c.SelectionCriteria, &scoring, &c.Status, &c.ProgramID, &c.AcademicYearID,
		&c.PublishedAt, &c.ClosedAt, &c.CreatedBy, &c.UpdatedBy, &c.DeletedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scoring, &c.ScoringTable); err != nil {
		return nil, fmt.Errorf("decode scoring table: %w", err)
	}
	return &c, nil
}

// CallFilter narrows admin listings. Zero values mean "no filter".
type CallFilter struct {
	Status         models.CallStatus
	Type           models.CallType
	ProgramID      *uuid.UUID
	AcademicYearID *uuid.UUID
	Deleted        bool // list the trash instead of live rows
}

// List returns calls matching the filter, newest first.
func (s *CallStore) List(f CallFilter) ([]models.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE `
	var args []any
	if f.Deleted {
		query += `deleted_at IS NOT NULL`
	} else {
		query += `deleted_at IS NULL`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if f.ProgramID != nil {
		args = append(args, *f.ProgramID)
		query += fmt.Sprintf(` AND program_id = $%d`, len(args))
	}
	if f.AcademicYearID != nil {
		args = append(args, *f.AcademicYearID)
		query += fmt.Sprintf(` AND academic_year_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var calls []models.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// ListPublic returns calls visible on the public site: every live call
// except drafts and archived ones, open calls first, then by creation.
func (s *CallStore) ListPublic() ([]models.Call, error) {
	rows, err := s.db.Query(`
		SELECT `+callColumns+`
		FROM calls
		WHERE deleted_at IS NULL AND status NOT IN ('borrador', 'archivada')
		ORDER BY (status = 'abierta') DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list public calls: %w", err)
	}
	defer rows.Close()

	var calls []models.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// FindByID retrieves a call by UUID, including soft-deleted rows, with
// its dependent-row counts loaded. Returns nil if not found.
func (s *CallStore) FindByID(id uuid.UUID) (*models.Call, error) {
	row := s.db.QueryRow(`SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	c, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find call by id: %w", err)
	}
	if err := s.loadCounts(c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindBySlug retrieves a live, publicly visible call by slug.
// Returns nil if not found, deleted, draft, or archived.
func (s *CallStore) FindBySlug(slug string) (*models.Call, error) {
	row := s.db.QueryRow(`
		SELECT `+callColumns+`
		FROM calls
		WHERE slug = $1 AND deleted_at IS NULL AND status NOT IN ('borrador', 'archivada')
	`, slug)
	c, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find call by slug: %w", err)
	}
	return c, nil
}

// SlugTaken reports whether a slug is already used by a live call other
// than the one being edited. Soft-deleted rows do not block reuse.
func (s *CallStore) SlugTaken(slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM calls
			WHERE slug = $1 AND id <> $2 AND deleted_at IS NULL
		)
	`, slug, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check call slug: %w", err)
	}
	return taken, nil
}

func (s *CallStore) loadCounts(c *models.Call) error {
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM call_phases WHERE call_id = $1),
			(SELECT COUNT(*) FROM resolutions WHERE call_id = $1),
			(SELECT COUNT(*) FROM applications WHERE call_id = $1)
	`, c.ID).Scan(&c.PhasesCount, &c.ResolutionsCount, &c.ApplicationsCount)
	if err != nil {
		return fmt.Errorf("count call dependents: %w", err)
	}
	return nil
}

// Create inserts a new call in borrador status and returns it.
func (s *CallStore) Create(c *models.Call) (*models.Call, error) {
	scoring, err := json.Marshal(c.ScoringTable)
	if err != nil {
		return nil, fmt.Errorf("encode scoring table: %w", err)
	}
	row := s.db.QueryRow(`
		INSERT INTO calls (title, slug, type, modality, number_of_places, destinations,
			estimated_start_date, estimated_end_date, requirements, documentation,
			selection_criteria, scoring_table, program_id, academic_year_id,
			created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING `+callColumns,
		c.Title, c.Slug, c.Type, c.Modality, c.NumberOfPlaces, pq.Array(c.Destinations),
		c.EstimatedStartDate, c.EstimatedEndDate, c.Requirements, c.Documentation,
		c.SelectionCriteria, scoring, c.ProgramID, c.AcademicYearID, c.CreatedBy,
	)
	created, err := scanCall(row)
	if err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a call. Status is changed only
// through ChangeStatus.
func (s *CallStore) Update(c *models.Call, updatedBy uuid.UUID) (*models.Call, error) {
	scoring, err := json.Marshal(c.ScoringTable)
	if err != nil {
		return nil, fmt.Errorf("encode scoring table: %w", err)
	}
	row := s.db.QueryRow(`
		UPDATE calls SET
			title = $1, slug = $2, type = $3, modality = $4, number_of_places = $5,
			destinations = $6, estimated_start_date = $7, estimated_end_date = $8,
			requirements = $9, documentation = $10, selection_criteria = $11,
			scoring_table = $12, program_id = $13, academic_year_id = $14,
			updated_by = $15, updated_at = NOW()
		WHERE id = $16 AND deleted_at IS NULL
		RETURNING `+callColumns,
		c.Title, c.Slug, c.Type, c.Modality, c.NumberOfPlaces, pq.Array(c.Destinations),
		c.EstimatedStartDate, c.EstimatedEndDate, c.Requirements, c.Documentation,
		c.SelectionCriteria, scoring, c.ProgramID, c.AcademicYearID, updatedBy, c.ID,
	)
	updated, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update call: %w", err)
	}
	return updated, nil
}

// ChangeStatus moves a call to a new lifecycle status. The row is
// locked for the duration of the transaction so the transition check
// runs against the committed status. The first move into abierta
// stamps published_at; the first move into cerrada stamps closed_at.
// Re-opening or re-closing keeps the original timestamps.
func (s *CallStore) ChangeStatus(id uuid.UUID, to models.CallStatus, updatedBy uuid.UUID) (*models.Call, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin status change: %w", err)
	}
	defer tx.Rollback()

	var current models.CallStatus
	var publishedAt, closedAt *time.Time
	err = tx.QueryRow(`
		SELECT status, published_at, closed_at FROM calls
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, id).Scan(&current, &publishedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock call for status change: %w", err)
	}

	if !models.CanTransition(current, to) {
		return nil, &ErrInvalidTransition{From: string(current), To: string(to)}
	}

	if to == models.CallStatusAbierta && publishedAt == nil {
		now := time.Now()
		publishedAt = &now
	}
	if to == models.CallStatusCerrada && closedAt == nil {
		now := time.Now()
		closedAt = &now
	}

	row := tx.QueryRow(`
		UPDATE calls SET status = $1, published_at = $2, closed_at = $3,
			updated_by = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+callColumns,
		to, publishedAt, closedAt, updatedBy, id,
	)
	c, err := scanCall(row)
	if err != nil {
		return nil, fmt.Errorf("change call status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}
	return c, nil
}

// Delete soft-deletes a call after counting dependents in the same
// transaction. Returns a *GuardError when dependents exist. See the
// GuardError doc for the isolation caveat.
func (s *CallStore) Delete(id uuid.UUID, deletedBy uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin call delete: %w", err)
	}
	defer tx.Rollback()

	counts, err := callDependents(tx, id)
	if err != nil {
		return err
	}
	if counts["fases"] > 0 || counts["resoluciones"] > 0 || counts["solicitudes"] > 0 {
		return &GuardError{Counts: counts}
	}

	res, err := tx.Exec(`
		UPDATE calls SET deleted_at = NOW(), updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft delete call: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Restore clears the deletion mark on a call. The call keeps the
// status it had when deleted.
func (s *CallStore) Restore(id uuid.UUID, restoredBy uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE calls SET deleted_at = NULL, updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NOT NULL
	`, restoredBy, id)
	if err != nil {
		return fmt.Errorf("restore call: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ForceDelete permanently removes a soft-deleted call. The same guard
// as Delete applies, inside the deleting transaction.
func (s *CallStore) ForceDelete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin call force delete: %w", err)
	}
	defer tx.Rollback()

	counts, err := callDependents(tx, id)
	if err != nil {
		return err
	}
	if counts["fases"] > 0 || counts["resoluciones"] > 0 || counts["solicitudes"] > 0 {
		return &GuardError{Counts: counts}
	}

	res, err := tx.Exec(`DELETE FROM calls WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("force delete call: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func callDependents(tx *sql.Tx, id uuid.UUID) (map[string]int, error) {
	var phases, resolutions, applications int
	err := tx.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM call_phases WHERE call_id = $1),
			(SELECT COUNT(*) FROM resolutions WHERE call_id = $1),
			(SELECT COUNT(*) FROM applications WHERE call_id = $1)
	`, id).Scan(&phases, &resolutions, &applications)
	if err != nil {
		return nil, fmt.Errorf("count call dependents: %w", err)
	}
	return map[string]int{
		"fases":        phases,
		"resoluciones": resolutions,
		"solicitudes":  applications,
	}, nil
}

// Count returns the number of live calls, for the admin dashboard.
func (s *CallStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM calls WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return count, nil
}
