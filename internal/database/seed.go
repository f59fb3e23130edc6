// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin, the site languages, and a couple of programs and academic
// years. It is a no-op once users exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Default admin. 2FA is not enabled — they must set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@movilia.local", string(hash), "Administración", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO languages (name, code, active, is_default) VALUES
		('Español', 'es', TRUE, TRUE),
		('English', 'en', TRUE, FALSE),
		('Français', 'fr', FALSE, FALSE)
	`)
	if err != nil {
		return fmt.Errorf("seed languages: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO programs (name, code, color, active) VALUES
		('Movilidad de corta duración de alumnado', 'KA121', 'green', TRUE),
		('Movilidad de educación superior', 'KA131', 'blue', TRUE)
	`)
	if err != nil {
		return fmt.Errorf("seed programs: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO academic_years (name, start_date, end_date, is_current) VALUES
		('2024-2025', '2024-09-01', '2025-06-30', FALSE),
		('2025-2026', '2025-09-01', '2026-06-30', TRUE)
	`)
	if err != nil {
		return fmt.Errorf("seed academic years: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO settings (key, value, grp) VALUES
		('site_name', 'Movilia', 'general'),
		('contact_email', 'programas@movilia.local', 'general'),
		('calendar_default_view', 'month', 'calendar')
	`)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@movilia.local",
		"password", "admin",
	)
	return nil
}
