// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityLog records one mutating admin action: who did what to which
// row, with a JSON properties snapshot for auditing.
type ActivityLog struct {
	ID          uuid.UUID       `json:"id"`
	ActorID     uuid.UUID       `json:"actor_id"`
	Action      string          `json:"action"` // "created", "updated", "deleted", "restored", "force-deleted", "status-changed", "imported"
	SubjectType string          `json:"subject_type"`
	SubjectID   uuid.UUID       `json:"subject_id"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
