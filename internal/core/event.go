package core

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
)

// InviteResponse is the caller's own answer to an event invitation,
// as reported on the attendee entry marked Self.
type InviteResponse string

const (
	ResponseNeedsAction InviteResponse = "needsAction"
	ResponseDeclined    InviteResponse = "declined"
	ResponseTentative   InviteResponse = "tentative"
	ResponseAccepted    InviteResponse = "accepted"
	// ResponseNone means the caller is not on the attendee list at all
	// (self-created events, subscribed calendars).
	ResponseNone InviteResponse = ""
)

// MalformedEventError reports a raw event whose start or end cannot be
// resolved to an instant. It is fatal to the whole computation.
type MalformedEventError struct {
	Summary string
	Field   string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("event %q has no resolvable %s", e.Summary, e.Field)
}

// Event is a read-only view over a raw Google Calendar event with the
// start and end resolved to instants up front, so the engine never has
// to null-check the wire schema again.
type Event struct {
	// Original is the raw record as delivered by the event source.
	Original *calendar.Event

	Start  time.Time
	Finish time.Time
	AllDay bool
}

// NormalizeEvent wraps one raw event. Date-only boundaries resolve to
// midnight in loc; date-time boundaries keep their own zone offset.
// Events lacking both a date and a dateTime on either end fail with
// *MalformedEventError.
func NormalizeEvent(raw *calendar.Event, loc *time.Location) (*Event, error) {
	start, allDay, err := resolveBoundary(raw.Start, loc)
	if err != nil {
		return nil, &MalformedEventError{Summary: raw.Summary, Field: "start"}
	}
	finish, _, err := resolveBoundary(raw.End, loc)
	if err != nil {
		return nil, &MalformedEventError{Summary: raw.Summary, Field: "end"}
	}

	e := &Event{
		Original: raw,
		Start:    start,
		Finish:   finish,
		AllDay:   allDay,
	}

	// Some all-day events arrive mis-tagged with dateTime boundaries.
	// If both ends land exactly on midnight, treat it as all-day anyway.
	if isMidnight(e.Start) && isMidnight(e.Finish) {
		e.AllDay = true
	}

	return e, nil
}

func resolveBoundary(b *calendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	if b == nil {
		return time.Time{}, false, fmt.Errorf("missing boundary")
	}
	if b.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", b.Date, loc)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}
	if b.DateTime != "" {
		t, err := time.Parse(time.RFC3339, b.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("neither date nor dateTime set")
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

// Summary returns the event title.
func (e *Event) Summary() string {
	return e.Original.Summary
}

// IsRecurring reports whether the event is part of a recurring series,
// either as the series definition or as an expanded instance.
func (e *Event) IsRecurring() bool {
	return len(e.Original.Recurrence) > 0 || e.Original.RecurringEventId != ""
}

// IsOutOfOffice reports whether the event marks the holder as unavailable.
func (e *Event) IsOutOfOffice() bool {
	return e.Original.EventType == "outOfOffice"
}

// MyResponse returns the caller's own response status, or ResponseNone
// when the caller is not an attendee.
func (e *Event) MyResponse() InviteResponse {
	for _, a := range e.Original.Attendees {
		if a.Self {
			return InviteResponse(a.ResponseStatus)
		}
	}
	return ResponseNone
}

// IsPersonalWithoutOthers reports whether this is the caller's own event
// with nobody else on it: at most one attendee and the caller created it.
func (e *Event) IsPersonalWithoutOthers() bool {
	return len(e.Original.Attendees) <= 1 &&
		e.Original.Creator != nil && e.Original.Creator.Self
}

// IsOneOnOne reports whether the event is a meeting of exactly two
// people, one of whom created it.
func (e *Event) IsOneOnOne() bool {
	if e.Original.Creator == nil || len(e.Original.Attendees) != 2 {
		return false
	}
	for _, a := range e.Original.Attendees {
		if a.Email == e.Original.Creator.Email {
			return true
		}
	}
	return false
}

// DurationInDay returns how long the event runs inside the [sod, eod]
// work window. Events reaching past either boundary only count their
// in-window portion.
func (e *Event) DurationInDay(sod, eod time.Time) time.Duration {
	start := e.Start
	if start.Before(sod) {
		start = sod
	}
	finish := e.Finish
	if finish.After(eod) {
		finish = eod
	}
	return finish.Sub(start)
}

// String renders a compact one-line description for logs.
func (e *Event) String() string {
	var others []string
	for _, a := range e.Original.Attendees {
		if a.Self {
			continue
		}
		name := a.DisplayName
		if name == "" {
			name = strings.SplitN(a.Email, "@", 2)[0]
		}
		others = append(others, name)
	}
	end := e.Finish.Format("01/02 15:04")
	if e.Finish.Day() == e.Start.Day() {
		end = e.Finish.Format("15:04")
	}
	s := fmt.Sprintf("%s from %s to %s", e.Summary(), e.Start.Format("01/02 15:04"), end)
	if len(others) > 0 {
		s += " with " + strings.Join(others, ", ")
	}
	return s
}
