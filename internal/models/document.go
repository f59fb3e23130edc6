// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentCategory groups downloadable documents. It refuses deletion
// while any document references it.
type DocumentCategory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// DocumentsCount blocks deletion while documents reference it.
	DocumentsCount int `json:"documents_count"`
}

// Document is a downloadable file (guides, annexes, official forms)
// stored in the private bucket and served through presigned URLs.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	CategoryID  uuid.UUID  `json:"category_id"`
	FileMediaID uuid.UUID  `json:"file_media_id"`
	Downloads   int        `json:"downloads"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	UpdatedBy   uuid.UUID  `json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Eager-loaded relations.
	Category *DocumentCategory `json:"category,omitempty"`
	File     *Media            `json:"file,omitempty"`
}

// IsPublished reports whether the document is listed on the public site.
func (d *Document) IsPublished() bool {
	return d.PublishedAt != nil
}
