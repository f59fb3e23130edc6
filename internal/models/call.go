// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CallType distinguishes the audience of a call for applications.
type CallType string

const (
	CallTypeAlumnado CallType = "alumnado"
	CallTypePersonal CallType = "personal"
)

// CallModality is the duration class of the mobility.
type CallModality string

const (
	CallModalityCorta CallModality = "corta"
	CallModalityLarga CallModality = "larga"
)

// CallStatus represents the lifecycle state of a call.
type CallStatus string

const (
	CallStatusBorrador     CallStatus = "borrador"
	CallStatusAbierta      CallStatus = "abierta"
	CallStatusCerrada      CallStatus = "cerrada"
	CallStatusEnBaremacion CallStatus = "en_baremacion"
	CallStatusResuelta     CallStatus = "resuelta"
	CallStatusArchivada    CallStatus = "archivada"
)

// callTransitions maps each status to the set of statuses it may move to.
// Archivada is terminal and has no entry.
var callTransitions = map[CallStatus][]CallStatus{
	CallStatusBorrador:     {CallStatusAbierta, CallStatusEnBaremacion},
	CallStatusAbierta:      {CallStatusCerrada, CallStatusEnBaremacion},
	CallStatusCerrada:      {CallStatusEnBaremacion, CallStatusArchivada},
	CallStatusEnBaremacion: {CallStatusResuelta, CallStatusAbierta},
	CallStatusResuelta:     {CallStatusArchivada},
}

// AllowedTransitions returns the statuses a call in the given state may
// move to. The returned slice is a copy; callers may modify it.
func AllowedTransitions(from CallStatus) []CallStatus {
	next, ok := callTransitions[from]
	if !ok {
		return nil
	}
	out := make([]CallStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether a call may move from one status to another.
func CanTransition(from, to CallStatus) bool {
	for _, s := range callTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ScoringRow is one entry of a call's baremo (scoring table).
type ScoringRow struct {
	Concept     string  `json:"concept" validate:"required,max=300"`
	MaxPoints   float64 `json:"max_points" validate:"gte=0,lte=100"`
	Description string  `json:"description" validate:"max=1000"`
}

// IsBlank reports whether the row carries no data and should be dropped
// before persistence.
func (r ScoringRow) IsBlank() bool {
	return r.Concept == "" && r.MaxPoints == 0 && r.Description == ""
}

// Call represents a mobility call for applications (convocatoria).
// Destinations and ScoringTable always hold at least one entry once
// persisted; blank editing rows are filtered before save.
type Call struct {
	ID                 uuid.UUID    `json:"id"`
	Title              string       `json:"title"`
	Slug               string       `json:"slug"`
	Type               CallType     `json:"type"`
	Modality           CallModality `json:"modality"`
	NumberOfPlaces     int          `json:"number_of_places"`
	Destinations       []string     `json:"destinations"`
	EstimatedStartDate *time.Time   `json:"estimated_start_date,omitempty"`
	EstimatedEndDate   *time.Time   `json:"estimated_end_date,omitempty"`
	Requirements       *string      `json:"requirements,omitempty"`
	Documentation      *string      `json:"documentation,omitempty"`
	SelectionCriteria  *string      `json:"selection_criteria,omitempty"`
	ScoringTable       []ScoringRow `json:"scoring_table"`
	Status             CallStatus   `json:"status"`
	ProgramID          *uuid.UUID   `json:"program_id,omitempty"`
	AcademicYearID     *uuid.UUID   `json:"academic_year_id,omitempty"`
	PublishedAt        *time.Time   `json:"published_at,omitempty"`
	ClosedAt           *time.Time   `json:"closed_at,omitempty"`
	CreatedBy          uuid.UUID    `json:"created_by"`
	UpdatedBy          uuid.UUID    `json:"updated_by"`
	DeletedAt          *time.Time   `json:"deleted_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Dependent-row counts, loaded alongside the call when the deletion
	// guard or the admin detail page needs them.
	PhasesCount       int `json:"phases_count"`
	ResolutionsCount  int `json:"resolutions_count"`
	ApplicationsCount int `json:"applications_count"`
}

// IsDeleted reports whether the call is soft-deleted.
func (c *Call) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsPublic reports whether the call is visible on the public site.
// Drafts, archived calls, and deleted rows never are.
func (c *Call) IsPublic() bool {
	if c.IsDeleted() {
		return false
	}
	return c.Status != CallStatusBorrador && c.Status != CallStatusArchivada
}

// HasDependents reports whether any dependent rows block deletion.
func (c *Call) HasDependents() bool {
	return c.PhasesCount > 0 || c.ResolutionsCount > 0 || c.ApplicationsCount > 0
}

// PhaseType classifies a call phase.
type PhaseType string

const (
	PhaseTypeSolicitud  PhaseType = "solicitud"
	PhaseTypeEntrevista PhaseType = "entrevista"
	PhaseTypeBaremacion PhaseType = "baremacion"
	PhaseTypeAlegacion  PhaseType = "alegacion"
	PhaseTypeOtra       PhaseType = "otra"
)

// CallPhase is a time-boxed stage within a call's lifecycle. At most one
// phase per call is current; the store clears siblings when one is set.
type CallPhase struct {
	ID        uuid.UUID  `json:"id"`
	CallID    uuid.UUID  `json:"call_id"`
	Name      string     `json:"name"`
	PhaseType PhaseType  `json:"phase_type"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsCurrent bool       `json:"is_current"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ResolutionType classifies an official resolution document.
type ResolutionType string

const (
	ResolutionProvisional   ResolutionType = "provisional"
	ResolutionDefinitiva    ResolutionType = "definitiva"
	ResolutionRectificativa ResolutionType = "rectificativa"
)

// Resolution is an official outcome document attached to a call,
// optionally scoped to one of its phases. A nil PublishedAt means the
// resolution is not yet visible on the public site.
type Resolution struct {
	ID           uuid.UUID      `json:"id"`
	CallID       uuid.UUID      `json:"call_id"`
	CallPhaseID  *uuid.UUID     `json:"call_phase_id,omitempty"`
	Title        string         `json:"title"`
	Type         ResolutionType `json:"type"`
	OfficialDate time.Time      `json:"official_date"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	FileMediaID  *uuid.UUID     `json:"file_media_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsPublished reports whether the resolution is visible on the public site.
func (r *Resolution) IsPublished() bool {
	return r.PublishedAt != nil
}

// ApplicationStatus is the review state of a submitted application.
type ApplicationStatus string

const (
	ApplicationPresentada ApplicationStatus = "presentada"
	ApplicationAdmitida   ApplicationStatus = "admitida"
	ApplicationExcluida   ApplicationStatus = "excluida"
)

// Application is one applicant's submission to a call. Rows are created
// individually in the admin or in bulk through the spreadsheet importer.
type Application struct {
	ID             uuid.UUID         `json:"id"`
	CallID         uuid.UUID         `json:"call_id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Email          string            `json:"email"`
	DocumentNumber string            `json:"document_number"`
	Status         ApplicationStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
