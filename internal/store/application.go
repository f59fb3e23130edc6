// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// ApplicationStore handles application database operations, including
// the bulk insert used by the spreadsheet importer.
type ApplicationStore struct {
	db *sql.DB
}

// NewApplicationStore creates a new ApplicationStore with the given database connection.
func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

const applicationColumns = `id, call_id, first_name, last_name, email, document_number,
	status, created_at, updated_at`

func scanApplication(scanner interface{ Scan(...any) error }) (*models.Application, error) {
	var a models.Application
	err := scanner.Scan(
		&a.ID, &a.CallID, &a.FirstName, &a.LastName, &a.Email, &a.DocumentNumber,
		&a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByCall returns a call's applications ordered by surname.
func (s *ApplicationStore) ListByCall(callID uuid.UUID) ([]models.Application, error) {
	rows, err := s.db.Query(`
		SELECT `+applicationColumns+`
		FROM applications
		WHERE call_id = $1
		ORDER BY last_name ASC, first_name ASC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// FindByID retrieves an application by UUID. Returns nil if not found.
func (s *ApplicationStore) FindByID(id uuid.UUID) (*models.Application, error) {
	row := s.db.QueryRow(`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return a, nil
}

// Create inserts a single application and returns it.
func (s *ApplicationStore) Create(a *models.Application) (*models.Application, error) {
	row := s.db.QueryRow(`
		INSERT INTO applications (call_id, first_name, last_name, email, document_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+applicationColumns,
		a.CallID, a.FirstName, a.LastName, a.Email, a.DocumentNumber, a.Status,
	)
	created, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return created, nil
}

// BulkInsert inserts a batch of applications in one transaction. Either
// every row lands or none does, so a failed import never leaves a
// partial batch behind.
func (s *ApplicationStore) BulkInsert(callID uuid.UUID, apps []models.Application) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO applications (call_id, first_name, last_name, email, document_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range apps {
		if _, err := stmt.Exec(callID, a.FirstName, a.LastName, a.Email, a.DocumentNumber, a.Status); err != nil {
			return 0, fmt.Errorf("insert application %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return len(apps), nil
}

// UpdateStatus changes an application's review state.
func (s *ApplicationStore) UpdateStatus(id uuid.UUID, status models.ApplicationStatus) (*models.Application, error) {
	row := s.db.QueryRow(`
		UPDATE applications SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+applicationColumns, status, id)
	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	return a, nil
}

// Delete removes an application.
func (s *ApplicationStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByCall returns the number of applications for a call.
func (s *ApplicationStore) CountByCall(callID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM applications WHERE call_id = $1`, callID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}
