// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package forms

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// CallForm carries the bound and normalized fields of the call create and
// edit forms. Destinations and ScoringTable hold the filtered entries
// (blanks removed); the raw editing rows stay in the Raw* fields so a
// re-rendered form keeps what the user typed.
type CallForm struct {
	Title              string              `form:"title" validate:"required,max=300"`
	Slug               string              `form:"slug" validate:"max=300"`
	Type               string              `form:"type" validate:"required,oneof=alumnado personal"`
	Modality           string              `form:"modality" validate:"required,oneof=corta larga"`
	NumberOfPlaces     int                 `form:"number_of_places" validate:"gte=1,lte=999"`
	Destinations       []string            `form:"destinations" validate:"min=1,dive,required,max=200"`
	EstimatedStartDate *time.Time          `form:"estimated_start_date"`
	EstimatedEndDate   *time.Time          `form:"estimated_end_date"`
	Requirements       string              `form:"requirements" validate:"max=20000"`
	Documentation      string              `form:"documentation" validate:"max=20000"`
	SelectionCriteria  string              `form:"selection_criteria" validate:"max=20000"`
	ScoringTable       []models.ScoringRow `form:"scoring_table" validate:"min=1,dive"`
	ProgramID          string              `form:"program_id" validate:"omitempty,uuid"`
	AcademicYearID     string              `form:"academic_year_id" validate:"omitempty,uuid"`

	RawDestinations []string
	RawScoring      []models.ScoringRow

	// dateErrs holds composite date errors raised at bind time; merged
	// into the validation result.
	dateErrs Errors
}

// BindCall builds a CallForm from submitted values. changedField names
// the field whose change triggered an inline validation request; it
// drives the start/end auto-bump rule and is empty on full submission.
func BindCall(values url.Values, changedField string) *CallForm {
	f := &CallForm{
		Title:             strings.TrimSpace(values.Get("title")),
		Slug:              strings.TrimSpace(values.Get("slug")),
		Type:              values.Get("type"),
		Modality:          values.Get("modality"),
		Requirements:      values.Get("requirements"),
		Documentation:     values.Get("documentation"),
		SelectionCriteria: values.Get("selection_criteria"),
		ProgramID:         values.Get("program_id"),
		AcademicYearID:    values.Get("academic_year_id"),
		dateErrs:          Errors{},
	}
	f.NumberOfPlaces, _ = strconv.Atoi(values.Get("number_of_places"))

	f.RawDestinations = values["destinations[]"]
	if len(f.RawDestinations) == 0 {
		// The simple form submits one textarea with one destination per line.
		f.RawDestinations = strings.Split(values.Get("destinations"), "\n")
	}
	f.Destinations = FilterBlank(f.RawDestinations)

	if raw := strings.TrimSpace(values.Get("scoring_table")); raw != "" {
		var rows []models.ScoringRow
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			f.dateErrs["scoring_table"] = "El baremo no es un JSON válido."
		}
		f.RawScoring = rows
	} else {
		f.RawScoring = bindScoringRows(values)
	}
	for _, row := range f.RawScoring {
		if !row.IsBlank() {
			f.ScoringTable = append(f.ScoringTable, row)
		}
	}

	start, okStart := parseDate(values.Get("estimated_start_date"))
	if !okStart {
		f.dateErrs["estimated_start_date"] = "Fecha no válida."
	}
	end, okEnd := parseDate(values.Get("estimated_end_date"))
	if !okEnd {
		f.dateErrs["estimated_end_date"] = "Fecha no válida."
	}
	f.EstimatedStartDate = start
	f.EstimatedEndDate = end
	normalizeRange(&f.EstimatedStartDate, &f.EstimatedEndDate, changedField,
		"estimated_start_date", "estimated_end_date", f.dateErrs)

	return f
}

// bindScoringRows reads the parallel scoring arrays the form submits.
func bindScoringRows(values url.Values) []models.ScoringRow {
	concepts := values["scoring_concept[]"]
	points := values["scoring_max_points[]"]
	descriptions := values["scoring_description[]"]

	n := len(concepts)
	if len(points) > n {
		n = len(points)
	}
	if len(descriptions) > n {
		n = len(descriptions)
	}

	rows := make([]models.ScoringRow, 0, n)
	for i := 0; i < n; i++ {
		var row models.ScoringRow
		if i < len(concepts) {
			row.Concept = strings.TrimSpace(concepts[i])
		}
		if i < len(points) && strings.TrimSpace(points[i]) != "" {
			row.MaxPoints, _ = strconv.ParseFloat(points[i], 64)
		}
		if i < len(descriptions) {
			row.Description = strings.TrimSpace(descriptions[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// normalizeRange applies the shared end-after-start rule. When the start
// field moved past the end, the end is bumped forward one hour; when the
// end field itself violates the rule, it is flagged instead.
func normalizeRange(start, end **time.Time, changedField, startName, endName string, errs Errors) {
	if *start == nil || *end == nil {
		return
	}
	if (*end).After(**start) {
		return
	}
	if changedField == endName {
		errs[endName] = "La fecha de fin debe ser posterior a la de inicio."
		return
	}
	bumped := (*start).Add(time.Hour)
	*end = &bumped
}

// Validate runs the whole rule set plus the composite date rules and
// returns field-keyed errors.
func (f *CallForm) Validate() Errors {
	errs := collect(validate.Struct(f))
	for field, msg := range f.dateErrs {
		if _, seen := errs[field]; !seen {
			errs[field] = msg
		}
	}
	if len(f.Destinations) == 0 {
		errs["destinations"] = "Indica al menos un destino."
	}
	if len(f.ScoringTable) == 0 {
		errs["scoring_table"] = "Indica al menos un concepto de baremación."
	}
	return errs
}

// ValidateField checks a single field with the same rules used on
// submit, so inline errors match the final ones.
func (f *CallForm) ValidateField(field string) Errors {
	if msg, ok := f.dateErrs[field]; ok {
		return Errors{field: msg}
	}
	switch field {
	case "destinations":
		if len(f.Destinations) == 0 {
			return Errors{field: "Indica al menos un destino."}
		}
		return Errors{}
	case "scoring_table":
		if len(f.ScoringTable) == 0 {
			return Errors{field: "Indica al menos un concepto de baremación."}
		}
		return Errors{}
	case "estimated_start_date", "estimated_end_date":
		return Errors{}
	}
	return checkField(f, field)
}

// Apply copies the form values onto a call model. Caller stamps actor
// ids and persists.
func (f *CallForm) Apply(c *models.Call) {
	c.Title = f.Title
	c.Slug = f.Slug
	c.Type = models.CallType(f.Type)
	c.Modality = models.CallModality(f.Modality)
	c.NumberOfPlaces = f.NumberOfPlaces
	c.Destinations = f.Destinations
	c.EstimatedStartDate = f.EstimatedStartDate
	c.EstimatedEndDate = f.EstimatedEndDate
	c.Requirements = optional(f.Requirements)
	c.Documentation = optional(f.Documentation)
	c.SelectionCriteria = optional(f.SelectionCriteria)
	c.ScoringTable = f.ScoringTable
	c.ProgramID = optionalUUID(f.ProgramID)
	c.AcademicYearID = optionalUUID(f.AcademicYearID)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalUUID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
