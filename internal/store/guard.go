// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package store

import (
	"fmt"
	"sort"
	"strings"
)

// GuardError is returned when a delete is refused because dependent
// rows still reference the record. Counts maps a human label (Spanish,
// shown to the operator as-is) to the number of blocking rows. The
// counts are taken inside the same transaction that would have deleted
// the row; at read committed a dependent committed between count and
// delete can still slip through, the transaction only keeps the counts
// consistent with each other.
type GuardError struct {
	Counts map[string]int
}

func (e *GuardError) Error() string {
	parts := make([]string, 0, len(e.Counts))
	for label, n := range e.Counts {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	sort.Strings(parts)
	return "registro con dependencias: " + strings.Join(parts, ", ")
}

// ErrInvalidTransition is returned by ChangeStatus when the requested
// status is not reachable from the call's current status.
type ErrInvalidTransition struct {
	From, To string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("transición de estado no permitida: de %s a %s", e.From, e.To)
}
