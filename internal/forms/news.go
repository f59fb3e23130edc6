// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package forms

import (
	"net/url"
	"strings"

	"movilia/internal/models"
)

// NewsForm carries the bound fields of the news create and edit forms.
type NewsForm struct {
	Title           string `form:"title" validate:"required,max=300"`
	Slug            string `form:"slug" validate:"max=300"`
	Body            string `form:"body" validate:"required,max=100000"`
	Excerpt         string `form:"excerpt" validate:"max=1000"`
	FeaturedImageID string `form:"featured_image_id" validate:"omitempty,uuid"`
	Publish         bool   `form:"publish"`
}

// BindNews builds a NewsForm from submitted values.
func BindNews(values url.Values) *NewsForm {
	return &NewsForm{
		Title:           strings.TrimSpace(values.Get("title")),
		Slug:            strings.TrimSpace(values.Get("slug")),
		Body:            values.Get("body"),
		Excerpt:         strings.TrimSpace(values.Get("excerpt")),
		FeaturedImageID: values.Get("featured_image_id"),
		Publish:         values.Get("publish") == "1" || values.Get("publish") == "on",
	}
}

// Validate runs the whole rule set.
func (f *NewsForm) Validate() Errors {
	return collect(validate.Struct(f))
}

// ValidateField checks a single field with the same rules used on submit.
func (f *NewsForm) ValidateField(field string) Errors {
	return checkField(f, field)
}

// Apply copies the form values onto a news model. Publishing stamps
// PublishedAt on first publish only; the store leaves an existing stamp
// untouched.
func (f *NewsForm) Apply(n *models.News) {
	n.Title = f.Title
	n.Slug = f.Slug
	n.Body = f.Body
	n.Excerpt = optional(f.Excerpt)
	n.FeaturedImageID = optionalUUID(f.FeaturedImageID)
}
