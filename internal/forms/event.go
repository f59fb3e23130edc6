// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package forms

import (
	"net/url"
	"strings"
	"time"

	"movilia/internal/models"
)

// EventForm carries the bound fields of the event create and edit forms.
type EventForm struct {
	Title       string     `form:"title" validate:"required,max=300"`
	Description string     `form:"description" validate:"max=10000"`
	EventType   string     `form:"event_type" validate:"required,oneof=apertura cierre entrevista publicacion_provisional publicacion_definitivo reunion_informativa otro"`
	StartDate   *time.Time `form:"start_date"`
	EndDate     *time.Time `form:"end_date"`
	IsAllDay    bool       `form:"is_all_day"`
	IsPublic    bool       `form:"is_public"`
	Location    string     `form:"location" validate:"max=300"`
	ProgramID   string     `form:"program_id" validate:"omitempty,uuid"`
	CallID      string     `form:"call_id" validate:"omitempty,uuid"`

	dateErrs Errors
}

// BindEvent builds an EventForm from submitted values, applying the
// composite date rules: end strictly after start (auto-bumped one hour
// forward when the start field moved past it, flagged when the end field
// itself violates it) and all-day forcing both times to 00:00.
func BindEvent(values url.Values, changedField string) *EventForm {
	f := &EventForm{
		Title:       strings.TrimSpace(values.Get("title")),
		Description: values.Get("description"),
		EventType:   values.Get("event_type"),
		IsAllDay:    values.Get("is_all_day") == "1" || values.Get("is_all_day") == "on",
		IsPublic:    values.Get("is_public") == "1" || values.Get("is_public") == "on",
		Location:    strings.TrimSpace(values.Get("location")),
		ProgramID:   values.Get("program_id"),
		CallID:      values.Get("call_id"),
		dateErrs:    Errors{},
	}

	start, okStart := parseDate(values.Get("start_date"))
	if !okStart {
		f.dateErrs["start_date"] = "Fecha no válida."
	}
	end, okEnd := parseDate(values.Get("end_date"))
	if !okEnd {
		f.dateErrs["end_date"] = "Fecha no válida."
	}
	f.StartDate = start
	f.EndDate = end

	if f.IsAllDay {
		if f.StartDate != nil {
			t := midnight(*f.StartDate)
			f.StartDate = &t
		}
		if f.EndDate != nil {
			t := midnight(*f.EndDate)
			f.EndDate = &t
		}
	}

	// All-day ranges share 00:00 on both ends; the strict ordering rule
	// only applies to timed events.
	if !f.IsAllDay {
		normalizeRange(&f.StartDate, &f.EndDate, changedField, "start_date", "end_date", f.dateErrs)
	} else if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		if changedField == "end_date" {
			f.dateErrs["end_date"] = "La fecha de fin debe ser posterior a la de inicio."
		} else {
			bumped := f.StartDate.AddDate(0, 0, 1)
			f.EndDate = &bumped
		}
	}

	return f
}

// Validate runs the whole rule set plus the composite date rules.
func (f *EventForm) Validate() Errors {
	errs := collect(validate.Struct(f))
	if f.StartDate == nil {
		if _, seen := errs["start_date"]; !seen {
			errs["start_date"] = "Este campo es obligatorio."
		}
	}
	for field, msg := range f.dateErrs {
		if _, seen := errs[field]; !seen {
			errs[field] = msg
		}
	}
	return errs
}

// ValidateField checks a single field with the same rules used on submit.
func (f *EventForm) ValidateField(field string) Errors {
	if msg, ok := f.dateErrs[field]; ok {
		return Errors{field: msg}
	}
	switch field {
	case "start_date":
		if f.StartDate == nil {
			return Errors{field: "Este campo es obligatorio."}
		}
		return Errors{}
	case "end_date":
		return Errors{}
	}
	return checkField(f, field)
}

// Apply copies the form values onto an event model.
func (f *EventForm) Apply(e *models.ErasmusEvent) {
	e.Title = f.Title
	e.Description = optional(f.Description)
	e.EventType = models.EventType(f.EventType)
	if f.StartDate != nil {
		e.StartDate = *f.StartDate
	}
	e.EndDate = f.EndDate
	e.IsAllDay = f.IsAllDay
	e.IsPublic = f.IsPublic
	e.Location = optional(f.Location)
	e.ProgramID = optionalUUID(f.ProgramID)
	e.CallID = optionalUUID(f.CallID)
}
