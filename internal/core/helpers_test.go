package core

import (
	"time"

	"google.golang.org/api/calendar/v3"
)

// March 2026: the 2nd is a Monday, the 7th/8th are the weekend.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

func timedEvent(summary string, start, end time.Time) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

func allDayEvent(summary string, startDate, endDate string) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{Date: startDate},
		End:     &calendar.EventDateTime{Date: endDate},
	}
}

// meeting gives the event two attendees besides the organizer, so the
// relevance filter keeps it without it counting as a one-on-one.
func meeting(e *calendar.Event) *calendar.Event {
	e.Creator = &calendar.EventCreator{Email: "organizer@example.com"}
	e.Attendees = []*calendar.EventAttendee{
		{Email: "alice@example.com"},
		{Email: "bob@example.com"},
	}
	return e
}

func oneOnOne(e *calendar.Event) *calendar.Event {
	e.Creator = &calendar.EventCreator{Email: "me@example.com", Self: true}
	e.Attendees = []*calendar.EventAttendee{
		{Email: "me@example.com", Self: true, ResponseStatus: "accepted"},
		{Email: "alice@example.com", ResponseStatus: "accepted"},
	}
	return e
}

func personal(e *calendar.Event) *calendar.Event {
	e.Creator = &calendar.EventCreator{Email: "me@example.com", Self: true}
	e.Attendees = nil
	return e
}

func outOfOffice(e *calendar.Event) *calendar.Event {
	e.EventType = "outOfOffice"
	return e
}

func recurring(e *calendar.Event) *calendar.Event {
	e.RecurringEventId = "series-1"
	return e
}

func declinedByMe(e *calendar.Event) *calendar.Event {
	e.Attendees = append(e.Attendees, &calendar.EventAttendee{
		Email: "me@example.com", Self: true, ResponseStatus: "declined",
	})
	return e
}

func testConfig() Config {
	return Config{
		Email:                     "me@example.com",
		StartOfDay:                9,
		EndOfDay:                  17,
		FocusThresholdMinutes:     120,
		FocusContextSwitchMinutes: 15,
		From:                      at(2, 0, 0),
		To:                        at(7, 0, 0),
	}
}
