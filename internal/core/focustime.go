// Package core computes focus-time analytics from calendar events: it
// partitions each workday into meeting time, out-of-office time and
// uninterrupted focus gaps, and aggregates per-day and range totals.
// The package does no I/O; it is a pure function of (events, config).
package core

import (
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
)

// FocusSlot is one detected block of uninterrupted time that cleared the
// focus threshold. Minutes is net of the context-switch penalty, so it
// can be less than End minus Start.
type FocusSlot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

// DayResult is the accounting for one workday.
type DayResult struct {
	Date                    time.Time   `json:"date"`
	Events                  []*Event    `json:"-"`
	FocusSlots              []FocusSlot `json:"focusSlots"`
	FocusMinutes            int         `json:"focusMinutes"`
	MeetingMinutes          int         `json:"meetingMinutes"`
	RecurringMeetingMinutes int         `json:"recurringMeetingMinutes"`
	OneOnOneMinutes         int         `json:"oneOnOneMinutes"`
	OutOfOfficeMinutes      int         `json:"outOfOfficeMinutes"`
	WorkMinutes             int         `json:"workMinutes"`
}

// TotalResult folds every DayResult of the range into one report.
type TotalResult struct {
	FocusMinutes            int         `json:"focusMinutes"`
	MeetingMinutes          int         `json:"meetingMinutes"`
	RecurringMeetingMinutes int         `json:"recurringMeetingMinutes"`
	OneOnOneMinutes         int         `json:"oneOnOneMinutes"`
	OutOfOfficeMinutes      int         `json:"outOfOfficeMinutes"`
	WorkMinutes             int         `json:"workMinutes"`
	FocusSlots              []FocusSlot `json:"focusSlots"`
	PerDay                  []DayResult `json:"perDay"`
}

// Engine runs focus-time computations. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	log *zap.Logger
}

// New returns an Engine logging through log. A nil log disables logging.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// FocusTime computes the full analysis for one calendar's raw events.
// Events must be ordered by start time, with recurring events already
// expanded (the Google API's singleEvents/orderBy=startTime semantics).
// It fails with *MalformedEventError if any non-cancelled event lacks a
// resolvable start or end, and with ErrInvalidConfig on a bad config.
func (g *Engine) FocusTime(raw []*calendar.Event, cfg Config) (*TotalResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	events, err := RelevantEvents(raw, cfg)
	if err != nil {
		return nil, err
	}

	var perDay []DayResult
	for today := atHour(cfg.From, cfg.StartOfDay); today.Before(cfg.To); today = atHour(today.AddDate(0, 0, 1), cfg.StartOfDay) {
		if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		eod := atHour(today, cfg.EndOfDay)
		g.log.Debug("checking day",
			zap.Time("sod", today),
			zap.Time("eod", eod))

		// An event spanning several days belongs to every day it
		// touches, so each day re-selects from the full range instead
		// of consuming events left to right.
		te := eventsForDay(events, today, eod)
		if hasAllDayOutOfOffice(te) {
			// Full OoO days are skipped entirely, not billed as OoO minutes.
			continue
		}

		day := g.meetingStats(te, today, eod)
		day.Date = today
		day.Events = te
		day.FocusSlots, day.FocusMinutes = g.focusSlots(te, today, eod, cfg)
		perDay = append(perDay, day)
	}

	return total(perDay), nil
}

// atHour normalizes t to the given hour of its calendar day.
func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// eventsForDay keeps the events overlapping the [sod, eod] work window:
// started no later than eod and not finished by sod.
func eventsForDay(events []*Event, sod, eod time.Time) []*Event {
	var out []*Event
	for _, e := range events {
		if e.Start.After(eod) {
			continue
		}
		if !e.Finish.After(sod) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasAllDayOutOfOffice(events []*Event) bool {
	for _, e := range events {
		if e.AllDay && e.IsOutOfOffice() {
			return true
		}
	}
	return false
}

// meetingStats totals the day's meeting minutes, truncated to the work
// window. Recurring and one-on-one minutes double-count on top of
// MeetingMinutes; out-of-office minutes are accounted on their own and
// never as meeting time.
func (g *Engine) meetingStats(te []*Event, sod, eod time.Time) DayResult {
	var day DayResult
	for _, e := range te {
		minutes := int(e.DurationInDay(sod, eod).Minutes())
		if e.IsRecurring() {
			day.RecurringMeetingMinutes += minutes
		}
		if e.IsOneOnOne() {
			day.OneOnOneMinutes += minutes
		}
		if e.IsOutOfOffice() {
			day.OutOfOfficeMinutes += minutes
		} else {
			day.MeetingMinutes += minutes
		}
	}
	day.WorkMinutes = int(eod.Sub(sod).Minutes())
	g.log.Debug("meeting stats",
		zap.Int("inMeeting", day.MeetingMinutes),
		zap.Int("recurring", day.RecurringMeetingMinutes),
		zap.Int("oneOnOne", day.OneOnOneMinutes),
		zap.Int("outOfOffice", day.OutOfOfficeMinutes))
	return day
}

// focusSlots finds the gaps in the day that clear the focus threshold.
// Slot minutes are the raw gap minus the context-switch penalty; the
// config invariant (switch <= threshold) keeps them non-negative.
func (g *Engine) focusSlots(te []*Event, sod, eod time.Time, cfg Config) ([]FocusSlot, int) {
	// All-day events neither break nor bound focus time.
	timed := make([]*Event, 0, len(te))
	for _, e := range te {
		if !e.AllDay {
			timed = append(timed, e)
			continue
		}
		if e.IsOutOfOffice() {
			g.log.Debug("ignoring full out-of-office day", zap.String("event", e.Summary()))
		} else {
			g.log.Warn("ignoring full-day event", zap.String("event", e.Summary()))
		}
	}

	var slots []FocusSlot
	totalMinutes := 0
	emit := func(start, end time.Time) {
		gap := int(end.Sub(start).Minutes())
		if gap < cfg.FocusThresholdMinutes {
			return
		}
		net := gap - cfg.FocusContextSwitchMinutes
		slots = append(slots, FocusSlot{Start: start, End: end, Minutes: net})
		totalMinutes += net
	}

	// A day without timed events is one big gap.
	if len(timed) == 0 {
		emit(sod, eod)
		return slots, totalMinutes
	}

	// Window before the first event.
	leadEnd := timed[0].Start
	if leadEnd.After(eod) {
		leadEnd = eod
	}
	emit(sod, leadEnd)

	// latestEnd carries the running maximum finish over the events seen
	// so far. Overlapping meetings (two accepted invites in one slot, a
	// long meeting that outlasts a later one) must not open a gap before
	// the last of them actually ends.
	latestEnd := timed[0].Finish
	for i, current := range timed {
		if current.Start.After(eod) {
			g.log.Debug("after-hours event", zap.String("event", current.String()))
		}
		if current.Finish.After(latestEnd) {
			latestEnd = current.Finish
		}

		if next := i + 1; next < len(timed) {
			compareTo := timed[next].Start
			if compareTo.After(eod) {
				g.log.Debug("next event starts after hours, comparing to eod",
					zap.String("event", timed[next].Summary()))
				compareTo = eod
			}
			emit(latestEnd, compareTo)
			continue
		}

		// Last event of the day: a trailing window only exists if the
		// event ends inside work hours.
		if current.Finish.After(eod) {
			g.log.Debug("last event ends after hours, no trailing focus",
				zap.String("event", current.Summary()))
			continue
		}
		emit(current.Finish, eod)
	}

	return slots, totalMinutes
}

// total folds the per-day results into the range total. Aggregation is
// purely additive, in day order.
func total(perDay []DayResult) *TotalResult {
	t := &TotalResult{}
	for _, day := range perDay {
		t.FocusMinutes += day.FocusMinutes
		t.MeetingMinutes += day.MeetingMinutes
		t.RecurringMeetingMinutes += day.RecurringMeetingMinutes
		t.OneOnOneMinutes += day.OneOnOneMinutes
		t.OutOfOfficeMinutes += day.OutOfOfficeMinutes
		t.WorkMinutes += day.WorkMinutes
		t.FocusSlots = append(t.FocusSlots, day.FocusSlots...)
		t.PerDay = append(t.PerDay, day)
	}
	return t
}
