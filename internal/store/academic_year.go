// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// AcademicYearStore handles academic-year database operations.
type AcademicYearStore struct {
	db *sql.DB
}

// NewAcademicYearStore creates a new AcademicYearStore with the given database connection.
func NewAcademicYearStore(db *sql.DB) *AcademicYearStore {
	return &AcademicYearStore{db: db}
}

const academicYearColumns = `id, name, start_date, end_date, is_current, created_at, updated_at`

func scanAcademicYear(scanner interface{ Scan(...any) error }) (*models.AcademicYear, error) {
	var y models.AcademicYear
	err := scanner.Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsCurrent, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// List returns all academic years, newest first.
func (s *AcademicYearStore) List() ([]models.AcademicYear, error) {
	rows, err := s.db.Query(`SELECT ` + academicYearColumns + ` FROM academic_years ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	defer rows.Close()

	var years []models.AcademicYear
	for rows.Next() {
		y, err := scanAcademicYear(rows)
		if err != nil {
			return nil, fmt.Errorf("scan academic year: %w", err)
		}
		years = append(years, *y)
	}
	return years, rows.Err()
}

// Current returns the academic year marked current, or nil when none is.
func (s *AcademicYearStore) Current() (*models.AcademicYear, error) {
	row := s.db.QueryRow(`SELECT ` + academicYearColumns + ` FROM academic_years WHERE is_current`)
	y, err := scanAcademicYear(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find current academic year: %w", err)
	}
	return y, nil
}

// FindByID retrieves an academic year by UUID. Returns nil if not found.
func (s *AcademicYearStore) FindByID(id uuid.UUID) (*models.AcademicYear, error) {
	row := s.db.QueryRow(`SELECT `+academicYearColumns+` FROM academic_years WHERE id = $1`, id)
	y, err := scanAcademicYear(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find academic year by id: %w", err)
	}
	return y, nil
}

// Create inserts a new academic year and returns it.
func (s *AcademicYearStore) Create(y *models.AcademicYear) (*models.AcademicYear, error) {
	row := s.db.QueryRow(`
		INSERT INTO academic_years (name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING `+academicYearColumns,
		y.Name, y.StartDate, y.EndDate,
	)
	created, err := scanAcademicYear(row)
	if err != nil {
		return nil, fmt.Errorf("create academic year: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of an academic year.
func (s *AcademicYearStore) Update(y *models.AcademicYear) (*models.AcademicYear, error) {
	row := s.db.QueryRow(`
		UPDATE academic_years SET name = $1, start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+academicYearColumns,
		y.Name, y.StartDate, y.EndDate, y.ID,
	)
	updated, err := scanAcademicYear(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update academic year: %w", err)
	}
	return updated, nil
}

// SetCurrent marks one year as current, clearing the flag on every
// other year in the same transaction so at most one is ever current.
func (s *AcademicYearStore) SetCurrent(id uuid.UUID) (*models.AcademicYear, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin set current year: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE academic_years SET is_current = FALSE, updated_at = NOW() WHERE is_current`)
	if err != nil {
		return nil, fmt.Errorf("clear current year: %w", err)
	}

	row := tx.QueryRow(`
		UPDATE academic_years SET is_current = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+academicYearColumns, id)
	y, err := scanAcademicYear(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set current year: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit set current year: %w", err)
	}
	return y, nil
}

// Delete removes an academic year. Calls that reference it block
// deletion. Returns a *GuardError when dependents exist.
func (s *AcademicYearStore) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin year delete: %w", err)
	}
	defer tx.Rollback()

	var calls int
	err = tx.QueryRow(`SELECT COUNT(*) FROM calls WHERE academic_year_id = $1`, id).Scan(&calls)
	if err != nil {
		return fmt.Errorf("count year dependents: %w", err)
	}
	if calls > 0 {
		return &GuardError{Counts: map[string]int{"convocatorias": calls}}
	}

	res, err := tx.Exec(`DELETE FROM academic_years WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete academic year: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
