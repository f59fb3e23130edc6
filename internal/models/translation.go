// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TranslatableType names an entity kind that accepts per-language field
// overrides. The set is closed; anything else is rejected at validation.
type TranslatableType string

const (
	TranslatableCall    TranslatableType = "call"
	TranslatableEvent   TranslatableType = "event"
	TranslatableNews    TranslatableType = "news"
	TranslatableProgram TranslatableType = "program"
	TranslatableSetting TranslatableType = "setting"
)

// TranslatableTypes lists every valid target kind, in display order.
var TranslatableTypes = []TranslatableType{
	TranslatableCall,
	TranslatableEvent,
	TranslatableNews,
	TranslatableProgram,
	TranslatableSetting,
}

// ValidTranslatableType reports whether t belongs to the closed set.
func ValidTranslatableType(t TranslatableType) bool {
	for _, tt := range TranslatableTypes {
		if tt == t {
			return true
		}
	}
	return false
}

// Translation is a per-language override value for one field of one
// target record. The (type, id, language, field) tuple is unique.
type Translation struct {
	ID               uuid.UUID        `json:"id"`
	TranslatableType TranslatableType `json:"translatable_type"`
	TranslatableID   uuid.UUID        `json:"translatable_id"`
	LanguageID       uuid.UUID        `json:"language_id"`
	Field            string           `json:"field"`
	Value            string           `json:"value"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Language is eager-loaded for the admin index.
	Language *Language `json:"language,omitempty"`
}

// Key identifies a translation independent of the row ID.
type TranslationKey struct {
	TranslatableType TranslatableType
	TranslatableID   uuid.UUID
	LanguageID       uuid.UUID
	Field            string
}

// Key returns the uniqueness tuple of the translation.
func (t *Translation) Key() TranslationKey {
	return TranslationKey{
		TranslatableType: t.TranslatableType,
		TranslatableID:   t.TranslatableID,
		LanguageID:       t.LanguageID,
		Field:            t.Field,
	}
}
