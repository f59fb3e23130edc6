// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// News is an announcement article on the public site. The body is
// Markdown, rendered to HTML at display time.
type News struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	FeaturedImageID *uuid.UUID `json:"featured_image_id,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	UpdatedBy       uuid.UUID  `json:"updated_by"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPublished reports whether the article is visible on the public site.
func (n *News) IsPublished() bool {
	return n.PublishedAt != nil && n.DeletedAt == nil
}

// IsDeleted reports whether the article is soft-deleted.
func (n *News) IsDeleted() bool {
	return n.DeletedAt != nil
}
