// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media represents a file uploaded to S3-compatible object storage.
// Metadata lives in PostgreSQL; the file itself lives in the bucket.
// Rows attach to a parent entity (event image, resolution file, document
// file, news featured image) and are soft-deletable like their parents.
type Media struct {
	ID             uuid.UUID  `json:"id"`
	Filename       string     `json:"filename"`
	OriginalName   string     `json:"original_name"`
	ContentType    string     `json:"content_type"`
	SizeBytes      int64      `json:"size_bytes"`
	Bucket         string     `json:"bucket"`
	S3Key          string     `json:"s3_key"`
	ThumbS3Key     *string    `json:"thumb_s3_key,omitempty"`
	AltText        *string    `json:"alt_text,omitempty"`
	AttachableType *string    `json:"attachable_type,omitempty"`
	AttachableID   *uuid.UUID `json:"attachable_id,omitempty"`
	UploaderID     uuid.UUID  `json:"uploader_id"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// IsDeleted reports whether the media row is soft-deleted.
func (m *Media) IsDeleted() bool {
	return m.DeletedAt != nil
}

// HumanSize returns a human-readable file size string.
func (m *Media) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case m.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.SizeBytes)/float64(mb))
	case m.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(m.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
}

// MediaVariant is one responsive WebP rendition generated from an
// uploaded image.
type MediaVariant struct {
	ID        uuid.UUID `json:"id"`
	MediaID   uuid.UUID `json:"media_id"`
	Name      string    `json:"name"` // "thumb", "sm", "md", "lg"
	S3Key     string    `json:"s3_key"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
