// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// PhaseStore handles call-phase database operations.
type PhaseStore struct {
	db *sql.DB
}

// NewPhaseStore creates a new PhaseStore with the given database connection.
func NewPhaseStore(db *sql.DB) *PhaseStore {
	return &PhaseStore{db: db}
}

const phaseColumns = `id, call_id, name, phase_type, start_date, end_date, is_current, created_at, updated_at`

func scanPhase(scanner interface{ Scan(...any) error }) (*models.CallPhase, error) {
	var p models.CallPhase
	err := scanner.Scan(
		&p.ID, &p.CallID, &p.Name, &p.PhaseType, &p.StartDate, &p.EndDate,
		&p.IsCurrent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCall returns a call's phases, earliest start first, undated last.
func (s *PhaseStore) ListByCall(callID uuid.UUID) ([]models.CallPhase, error) {
	rows, err := s.db.Query(`
		SELECT `+phaseColumns+`
		FROM call_phases
		WHERE call_id = $1
		ORDER BY start_date ASC NULLS LAST, created_at ASC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("list call phases: %w", err)
	}
	defer rows.Close()

	var phases []models.CallPhase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call phase: %w", err)
		}
		phases = append(phases, *p)
	}
	return phases, rows.Err()
}

// FindByID retrieves a phase by UUID. Returns nil if not found.
func (s *PhaseStore) FindByID(id uuid.UUID) (*models.CallPhase, error) {
	row := s.db.QueryRow(`SELECT `+phaseColumns+` FROM call_phases WHERE id = $1`, id)
	p, err := scanPhase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find call phase by id: %w", err)
	}
	return p, nil
}

// Create inserts a new phase and returns it.
func (s *PhaseStore) Create(p *models.CallPhase) (*models.CallPhase, error) {
	row := s.db.QueryRow(`
		INSERT INTO call_phases (call_id, name, phase_type, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+phaseColumns,
		p.CallID, p.Name, p.PhaseType, p.StartDate, p.EndDate,
	)
	created, err := scanPhase(row)
	if err != nil {
		return nil, fmt.Errorf("create call phase: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a phase.
func (s *PhaseStore) Update(p *models.CallPhase) (*models.CallPhase, error) {
	row := s.db.QueryRow(`
		UPDATE call_phases SET
			name = $1, phase_type = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+phaseColumns,
		p.Name, p.PhaseType, p.StartDate, p.EndDate, p.ID,
	)
	updated, err := scanPhase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update call phase: %w", err)
	}
	return updated, nil
}

// SetCurrent marks one phase as the call's current phase, clearing the
// flag on every sibling in the same transaction so at most one phase
// per call is ever current.
func (s *PhaseStore) SetCurrent(id uuid.UUID) (*models.CallPhase, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin set current phase: %w", err)
	}
	defer tx.Rollback()

	var callID uuid.UUID
	err = tx.QueryRow(`SELECT call_id FROM call_phases WHERE id = $1 FOR UPDATE`, id).Scan(&callID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock phase: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE call_phases SET is_current = FALSE, updated_at = NOW()
		WHERE call_id = $1 AND is_current
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("clear current phase: %w", err)
	}

	row := tx.QueryRow(`
		UPDATE call_phases SET is_current = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+phaseColumns, id)
	p, err := scanPhase(row)
	if err != nil {
		return nil, fmt.Errorf("set current phase: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set current phase: %w", err)
	}
	return p, nil
}

// Delete removes a phase. Resolutions that referenced it keep their
// call but lose the phase scope.
func (s *PhaseStore) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin phase delete: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE resolutions SET call_phase_id = NULL WHERE call_phase_id = $1`, id)
	if err != nil {
		return fmt.Errorf("detach resolutions from phase: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM call_phases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete call phase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
