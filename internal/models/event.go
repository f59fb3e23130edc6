// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a program event. The set is closed; display
// configuration for each value lives in the display package.
type EventType string

const (
	EventApertura               EventType = "apertura"
	EventCierre                 EventType = "cierre"
	EventEntrevista             EventType = "entrevista"
	EventPublicacionProvisional EventType = "publicacion_provisional"
	EventPublicacionDefinitivo  EventType = "publicacion_definitivo"
	EventReunionInformativa     EventType = "reunion_informativa"
	EventOtro                   EventType = "otro"
)

// EventTypes lists every valid event type, in display order.
var EventTypes = []EventType{
	EventApertura,
	EventCierre,
	EventEntrevista,
	EventPublicacionProvisional,
	EventPublicacionDefinitivo,
	EventReunionInformativa,
	EventOtro,
}

// ValidEventType reports whether t is one of the closed set of types.
func ValidEventType(t EventType) bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// ErasmusEvent is a program event shown in the admin agenda and, when
// public, on the public events list and calendar. EndDate may be nil for
// point-in-time events. All-day events carry 00:00 in both timestamps.
type ErasmusEvent struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	EventType   EventType  `json:"event_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	IsAllDay    bool       `json:"is_all_day"`
	IsPublic    bool       `json:"is_public"`
	Location    *string    `json:"location,omitempty"`
	ProgramID   *uuid.UUID `json:"program_id,omitempty"`
	CallID      *uuid.UUID `json:"call_id,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	UpdatedBy   uuid.UUID  `json:"updated_by"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// ImagesCount blocks deletion while attached media rows exist.
	ImagesCount int `json:"images_count"`

	// Eager-loaded relations for calendar and detail rendering.
	Program *Program `json:"program,omitempty"`
	Call    *Call    `json:"call,omitempty"`
	Images  []Media  `json:"images,omitempty"`
}

// IsDeleted reports whether the event is soft-deleted.
func (e *ErasmusEvent) IsDeleted() bool {
	return e.DeletedAt != nil
}

// EffectiveEnd returns the end of the event's occupied range: EndDate when
// set, otherwise the start instant itself.
func (e *ErasmusEvent) EffectiveEnd() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate
}

// Overlaps reports whether the event's range intersects [from, to].
func (e *ErasmusEvent) Overlaps(from, to time.Time) bool {
	return !e.StartDate.After(to) && !e.EffectiveEnd().Before(from)
}
