// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Program is an Erasmus+ action line (KA121, KA131, ...). Calls and
// events may reference one; active programs appear in public filters.
type Program struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Color     string    `json:"color"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Dependent-row counts for the deletion guard.
	CallsCount  int `json:"calls_count"`
	EventsCount int `json:"events_count"`
}

// HasDependents reports whether calls or events still reference the program.
func (p *Program) HasDependents() bool {
	return p.CallsCount > 0 || p.EventsCount > 0
}

// AcademicYear is a school-year window ("2024-2025"). At most one year is
// current; the store clears siblings when one is marked current.
type AcademicYear struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Language is a site language available for translations.
type Language struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// TranslationsCount blocks deletion while translations reference it.
	TranslationsCount int `json:"translations_count"`
}

// Setting is a single site configuration key-value pair, grouped for the
// admin settings page.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Group     string    `json:"group"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is a convenience map for accessing settings by key.
type Settings map[string]string

// Get returns the value for a key, or the fallback if the key is absent
// or empty.
func (s Settings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}
