// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package forms binds admin form submissions to typed structs and
// validates them with a declarative rule set. Each form supports both
// whole-form validation on submit and single-field validation for the
// inline (on change) checks the admin UI performs, using the same rules
// in both paths.
package forms

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to its first validation message.
type Errors map[string]string

// Any reports whether at least one field failed validation.
func (e Errors) Any() bool { return len(e) > 0 }

// validate is the shared validator. Field names in errors come from the
// `form` struct tag so messages reference form fields, never persistence
// column names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// messages translates a validator tag into a user-facing message.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "max":
		return "Supera la longitud máxima permitida (" + fe.Param() + ")."
	case "min":
		return "Debe contener al menos " + fe.Param() + " elementos."
	case "gte":
		return "Debe ser mayor o igual que " + fe.Param() + "."
	case "lte":
		return "Debe ser menor o igual que " + fe.Param() + "."
	case "oneof":
		return "Valor no admitido."
	case "email":
		return "Debe ser una dirección de correo válida."
	case "uuid":
		return "Identificador no válido."
	default:
		return "Valor no válido."
	}
}

// collect converts a validator error into an Errors map. Nested fields
// (list rows) keep their dotted path, e.g. "scoring_table[0].concept".
func collect(err error) Errors {
	errs := Errors{}
	if err == nil {
		return errs
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_form"] = "No se ha podido validar el formulario."
		return errs
	}
	for _, fe := range vErrs {
		// Namespace is "CallForm.scoring_table[0].concept"; drop the
		// root struct name so keys match form field paths.
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if _, seen := errs[name]; !seen {
			errs[name] = message(fe)
		}
	}
	return errs
}

// structFieldFor resolves a form field name to the Go struct field name,
// as StructPartial wants struct names. Returns "" when unknown.
func structFieldFor(form any, field string) string {
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("form"), ",", 2)[0]
		if tag == field {
			return t.Field(i).Name
		}
	}
	return ""
}

// checkField validates a single field of form using the shared rule set.
func checkField(form any, field string) Errors {
	structField := structFieldFor(form, field)
	if structField == "" {
		return Errors{field: "Campo desconocido."}
	}
	return collect(validate.StructPartial(form, structField))
}

// CheckRow validates an arbitrary tagged struct (spreadsheet import rows)
// and returns one "field: message" string per failed field, in tag order.
func CheckRow(row any) []string {
	err := validate.Struct(row)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"fila no válida"}
	}
	var out []string
	for _, fe := range vErrs {
		out = append(out, fe.Field()+": "+message(fe))
	}
	return out
}

// FilterBlank trims every entry and drops the empty ones, preserving the
// order of the survivors. List-valued fields keep a trailing blank entry
// while editing; this strips it (and any other blank) before persistence.
func FilterBlank(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// WithTrailingBlank appends one empty entry for rendering so the form
// always shows a blank row to type into.
func WithTrailingBlank(entries []string) []string {
	return append(append([]string{}, entries...), "")
}

// dateInputLayouts lists the formats the admin date inputs submit.
var dateInputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate parses an admin form date value. Returns nil for empty input.
func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// midnight truncates a timestamp to 00:00 of its day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
