// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package display derives presentational configuration (icon, color,
// label) from a model's discriminator field. Everything here is a pure
// lookup over closed sets — no state, no side effects — so templates for
// cards, badges, and timelines stay free of branching.
package display

import "movilia/internal/models"

// Config is the display configuration for one discriminator value.
type Config struct {
	Icon  string
	Color string
	Label string
}

// Variant names a card layout rendered by the view fragments.
type Variant string

const (
	VariantDefault    Variant = "default"
	VariantCompact    Variant = "compact"
	VariantFeatured   Variant = "featured"
	VariantHorizontal Variant = "horizontal"
	VariantCalendar   Variant = "calendar"
	VariantTimeline   Variant = "timeline"
)

// ValidVariant reports whether v is a known layout variant.
func ValidVariant(v Variant) bool {
	switch v {
	case VariantDefault, VariantCompact, VariantFeatured,
		VariantHorizontal, VariantCalendar, VariantTimeline:
		return true
	}
	return false
}

var unknownConfig = Config{Icon: "circle", Color: "gray", Label: "Desconocido"}

// callStatusConfigs covers every CallStatus value exhaustively.
var callStatusConfigs = map[models.CallStatus]Config{
	models.CallStatusBorrador:     {Icon: "pencil", Color: "gray", Label: "Borrador"},
	models.CallStatusAbierta:      {Icon: "megaphone", Color: "green", Label: "Abierta"},
	models.CallStatusCerrada:      {Icon: "lock-closed", Color: "yellow", Label: "Cerrada"},
	models.CallStatusEnBaremacion: {Icon: "scale", Color: "blue", Label: "En baremación"},
	models.CallStatusResuelta:     {Icon: "check-badge", Color: "indigo", Label: "Resuelta"},
	models.CallStatusArchivada:    {Icon: "archive-box", Color: "gray", Label: "Archivada"},
}

// ForCallStatus returns the display configuration for a call status.
func ForCallStatus(s models.CallStatus) Config {
	if cfg, ok := callStatusConfigs[s]; ok {
		return cfg
	}
	return unknownConfig
}

// eventTypeConfigs covers every EventType value exhaustively.
var eventTypeConfigs = map[models.EventType]Config{
	models.EventApertura:               {Icon: "flag", Color: "green", Label: "Apertura"},
	models.EventCierre:                 {Icon: "flag", Color: "red", Label: "Cierre"},
	models.EventEntrevista:             {Icon: "chat-bubble-left-right", Color: "purple", Label: "Entrevista"},
	models.EventPublicacionProvisional: {Icon: "document-text", Color: "yellow", Label: "Publicación provisional"},
	models.EventPublicacionDefinitivo:  {Icon: "document-check", Color: "blue", Label: "Publicación definitiva"},
	models.EventReunionInformativa:     {Icon: "user-group", Color: "indigo", Label: "Reunión informativa"},
	models.EventOtro:                   {Icon: "calendar", Color: "gray", Label: "Otro"},
}

// ForEventType returns the display configuration for an event type.
func ForEventType(t models.EventType) Config {
	if cfg, ok := eventTypeConfigs[t]; ok {
		return cfg
	}
	return unknownConfig
}

// resolutionTypeConfigs covers every ResolutionType value exhaustively.
var resolutionTypeConfigs = map[models.ResolutionType]Config{
	models.ResolutionProvisional:   {Icon: "document", Color: "yellow", Label: "Provisional"},
	models.ResolutionDefinitiva:    {Icon: "document-check", Color: "green", Label: "Definitiva"},
	models.ResolutionRectificativa: {Icon: "document-arrow-up", Color: "orange", Label: "Rectificativa"},
}

// ForResolutionType returns the display configuration for a resolution type.
func ForResolutionType(t models.ResolutionType) Config {
	if cfg, ok := resolutionTypeConfigs[t]; ok {
		return cfg
	}
	return unknownConfig
}

// translatableTypeConfigs covers every TranslatableType value.
var translatableTypeConfigs = map[models.TranslatableType]Config{
	models.TranslatableCall:    {Icon: "megaphone", Color: "green", Label: "Convocatoria"},
	models.TranslatableEvent:   {Icon: "calendar", Color: "blue", Label: "Evento"},
	models.TranslatableNews:    {Icon: "newspaper", Color: "indigo", Label: "Noticia"},
	models.TranslatableProgram: {Icon: "academic-cap", Color: "purple", Label: "Programa"},
	models.TranslatableSetting: {Icon: "cog", Color: "gray", Label: "Ajuste"},
}

// ForTranslatableType returns the display configuration for a
// translation target kind.
func ForTranslatableType(t models.TranslatableType) Config {
	if cfg, ok := translatableTypeConfigs[t]; ok {
		return cfg
	}
	return unknownConfig
}

// applicationStatusConfigs covers every ApplicationStatus value.
var applicationStatusConfigs = map[models.ApplicationStatus]Config{
	models.ApplicationPresentada: {Icon: "inbox", Color: "gray", Label: "Presentada"},
	models.ApplicationAdmitida:   {Icon: "check", Color: "green", Label: "Admitida"},
	models.ApplicationExcluida:   {Icon: "x-mark", Color: "red", Label: "Excluida"},
}

// ForApplicationStatus returns the display configuration for an
// application status.
func ForApplicationStatus(s models.ApplicationStatus) Config {
	if cfg, ok := applicationStatusConfigs[s]; ok {
		return cfg
	}
	return unknownConfig
}
