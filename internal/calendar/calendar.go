// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package calendar computes the visible date window, cursor navigation,
// and day bucketing for the public event calendar. All functions are
// pure; the handler fetches events overlapping the window and hands them
// here for grid layout.
package calendar

import (
	"time"

	"movilia/internal/models"
)

// View is the calendar granularity.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// ParseView normalizes a query-string view value, defaulting to month.
func ParseView(s string) View {
	switch View(s) {
	case ViewWeek:
		return ViewWeek
	case ViewDay:
		return ViewDay
	default:
		return ViewMonth
	}
}

// DayKey is the bucket key format: an ISO date string like "2025-04-07".
const DayKey = "2006-01-02"

// Range is an inclusive date window [From, To]. From carries 00:00:00 and
// To carries 23:59:59 of its day so overlap queries catch events at the
// edges.
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// VisibleRange computes the window shown for a cursor date at the given
// granularity. Month covers the first through the last day of the
// cursor's month; week covers Monday through Sunday of the cursor's ISO
// week; day covers the cursor's day alone.
func VisibleRange(cursor time.Time, view View) Range {
	loc := cursor.Location()
	switch view {
	case ViewWeek:
		start := startOfISOWeek(cursor)
		return Range{
			From: start,
			To:   endOfDay(start.AddDate(0, 0, 6), loc),
		}
	case ViewDay:
		return Range{
			From: startOfDay(cursor, loc),
			To:   endOfDay(cursor, loc),
		}
	default:
		first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		return Range{From: first, To: endOfDay(last, loc)}
	}
}

// Next moves the cursor forward one unit of the current granularity.
// Month navigation anchors to the first of the month: plain AddDate from
// a cursor on the 29th-31st normalizes through a nonexistent date and
// skips or repeats a month.
func Next(cursor time.Time, view View) time.Time {
	switch view {
	case ViewWeek:
		return cursor.AddDate(0, 0, 7)
	case ViewDay:
		return cursor.AddDate(0, 0, 1)
	default:
		return time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, cursor.Location())
	}
}

// Previous moves the cursor back one unit of the current granularity.
func Previous(cursor time.Time, view View) time.Time {
	switch view {
	case ViewWeek:
		return cursor.AddDate(0, 0, -7)
	case ViewDay:
		return cursor.AddDate(0, 0, -1)
	default:
		return time.Date(cursor.Year(), cursor.Month()-1, 1, 0, 0, 0, 0, cursor.Location())
	}
}

// BucketByDay groups events into a day→events map keyed by the start
// date's ISO string. Events whose start falls outside the window are
// dropped; within a day, input order is preserved.
func BucketByDay(events []models.ErasmusEvent, r Range) map[string][]models.ErasmusEvent {
	buckets := make(map[string][]models.ErasmusEvent)
	for _, ev := range events {
		if !r.Contains(ev.StartDate) {
			continue
		}
		key := ev.StartDate.Format(DayKey)
		buckets[key] = append(buckets[key], ev)
	}
	return buckets
}

// GridDays returns every day of the window in order, formatted as bucket
// keys. Templates iterate this to lay out the grid.
func GridDays(r Range) []string {
	var days []string
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayKey))
	}
	return days
}

// startOfISOWeek returns 00:00 of the Monday of t's week.
func startOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := t.AddDate(0, 0, 1-weekday)
	return startOfDay(monday, t.Location())
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}
