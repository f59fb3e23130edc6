// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// ProgramStore handles program database operations.
type ProgramStore struct {
	db *sql.DB
}

// NewProgramStore creates a new ProgramStore with the given database connection.
func NewProgramStore(db *sql.DB) *ProgramStore {
	return &ProgramStore{db: db}
}

const programColumns = `id, name, code, color, active, created_at, updated_at`

func scanProgram(scanner interface{ Scan(...any) error }) (*models.Program, error) {
	var p models.Program
	err := scanner.Scan(&p.ID, &p.Name, &p.Code, &p.Color, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all programs ordered by code, with their dependent-row
// counts loaded for the admin index.
func (s *ProgramStore) List() ([]models.Program, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.code, p.color, p.active, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM calls WHERE program_id = p.id),
			(SELECT COUNT(*) FROM erasmus_events WHERE program_id = p.id)
		FROM programs p
		ORDER BY p.code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Code, &p.Color, &p.Active, &p.CreatedAt, &p.UpdatedAt,
			&p.CallsCount, &p.EventsCount,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// ListActive returns only active programs, for selects and public filters.
func (s *ProgramStore) ListActive() ([]models.Program, error) {
	rows, err := s.db.Query(`SELECT ` + programColumns + ` FROM programs WHERE active ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active programs: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

// FindByID retrieves a program by UUID. Returns nil if not found.
func (s *ProgramStore) FindByID(id uuid.UUID) (*models.Program, error) {
	row := s.db.QueryRow(`SELECT `+programColumns+` FROM programs WHERE id = $1`, id)
	p, err := scanProgram(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find program by id: %w", err)
	}
	return p, nil
}

// Create inserts a new program and returns it.
func (s *ProgramStore) Create(p *models.Program) (*models.Program, error) {
	row := s.db.QueryRow(`
		INSERT INTO programs (name, code, color, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+programColumns,
		p.Name, p.Code, p.Color, p.Active,
	)
	created, err := scanProgram(row)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of a program.
func (s *ProgramStore) Update(p *models.Program) (*models.Program, error) {
	row := s.db.QueryRow(`
		UPDATE programs SET name = $1, code = $2, color = $3, active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+programColumns,
		p.Name, p.Code, p.Color, p.Active, p.ID,
	)
	updated, err := scanProgram(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update program: %w", err)
	}
	return updated, nil
}

// Delete removes a program. Calls or events that reference it block
// deletion; the counts are taken inside the deleting transaction.
// Returns a *GuardError when dependents exist.
func (s *ProgramStore) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin program delete: %w", err)
	}
	defer tx.Rollback()

	var calls, events int
	err = tx.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM calls WHERE program_id = $1),
			(SELECT COUNT(*) FROM erasmus_events WHERE program_id = $1)
	`, id).Scan(&calls, &events)
	if err != nil {
		return fmt.Errorf("count program dependents: %w", err)
	}
	if calls > 0 || events > 0 {
		return &GuardError{Counts: map[string]int{"convocatorias": calls, "eventos": events}}
	}

	res, err := tx.Exec(`DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
