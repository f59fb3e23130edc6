// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package calendar

import (
	"fmt"

	ics "github.com/arran4/golang-ical"

	"movilia/internal/models"
)

// Feed builds an RFC 5545 calendar from public events so users can
// subscribe from their own calendar clients. All-day events are emitted
// as date-only entries; timed events carry their full timestamps.
func Feed(events []models.ErasmusEvent, siteName string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + siteName + "//Agenda//ES")
	cal.SetName(siteName)

	for _, ev := range events {
		item := cal.AddEvent(fmt.Sprintf("%s@%s", ev.ID, siteName))
		item.SetSummary(ev.Title)
		item.SetDtStampTime(ev.UpdatedAt)

		if ev.IsAllDay {
			item.SetAllDayStartAt(ev.StartDate)
			// DTEND on all-day entries is exclusive per RFC 5545.
			item.SetAllDayEndAt(ev.EffectiveEnd().AddDate(0, 0, 1))
		} else {
			item.SetStartAt(ev.StartDate)
			item.SetEndAt(ev.EffectiveEnd())
		}

		if ev.Description != nil {
			item.SetDescription(*ev.Description)
		}
		if ev.Location != nil {
			item.SetLocation(*ev.Location)
		}
	}

	return cal.Serialize()
}
