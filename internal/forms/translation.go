// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package forms

import (
	"net/url"
	"strings"

	"movilia/internal/models"
)

// TranslationForm carries the bound fields of the translation create and
// edit forms.
type TranslationForm struct {
	TranslatableType string `form:"translatable_type" validate:"required,oneof=call event news program setting"`
	TranslatableID   string `form:"translatable_id" validate:"required,uuid"`
	LanguageID       string `form:"language_id" validate:"required,uuid"`
	Field            string `form:"field" validate:"required,max=100"`
	Value            string `form:"value" validate:"required,max=20000"`
}

// BindTranslation builds a TranslationForm from submitted values.
func BindTranslation(values url.Values) *TranslationForm {
	return &TranslationForm{
		TranslatableType: values.Get("translatable_type"),
		TranslatableID:   values.Get("translatable_id"),
		LanguageID:       values.Get("language_id"),
		Field:            strings.TrimSpace(values.Get("field")),
		Value:            values.Get("value"),
	}
}

// Validate runs the whole rule set.
func (f *TranslationForm) Validate() Errors {
	return collect(validate.Struct(f))
}

// ValidateField checks a single field with the same rules used on submit.
func (f *TranslationForm) ValidateField(field string) Errors {
	return checkField(f, field)
}

// Apply copies the form values onto a translation model. The UUID fields
// are already validated; parse failures leave zero values the store's
// foreign keys reject.
func (f *TranslationForm) Apply(t *models.Translation) {
	t.TranslatableType = models.TranslatableType(f.TranslatableType)
	if id := optionalUUID(f.TranslatableID); id != nil {
		t.TranslatableID = *id
	}
	if id := optionalUUID(f.LanguageID); id != nil {
		t.LanguageID = *id
	}
	t.Field = f.Field
	t.Value = f.Value
}
