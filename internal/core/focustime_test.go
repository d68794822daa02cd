package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func compute(t *testing.T, cfg Config, raw ...*calendar.Event) *TotalResult {
	t.Helper()
	result, err := New(nil).FocusTime(raw, cfg)
	require.NoError(t, err)
	return result
}

func TestWindower(t *testing.T) {
	t.Run("weekends are skipped", func(t *testing.T) {
		cfg := testConfig()
		cfg.From = at(7, 0, 0)  // Saturday
		cfg.To = at(11, 0, 0)   // Wednesday

		result := compute(t, cfg)

		require.Len(t, result.PerDay, 2) // Monday the 9th, Tuesday the 10th
		assert.Equal(t, at(9, 9, 0), result.PerDay[0].Date)
		assert.Equal(t, at(10, 9, 0), result.PerDay[1].Date)
	})

	t.Run("a week yields five day results", func(t *testing.T) {
		result := compute(t, testConfig())
		assert.Len(t, result.PerDay, 5)
	})

	t.Run("an all-day out-of-office day is skipped entirely", func(t *testing.T) {
		result := compute(t, testConfig(),
			outOfOffice(allDayEvent("conference", "2026-03-03", "2026-03-04")))

		require.Len(t, result.PerDay, 4)
		for _, day := range result.PerDay {
			assert.NotEqual(t, 3, day.Date.Day())
		}
		// The skipped day is not billed as out-of-office minutes either.
		assert.Zero(t, result.OutOfOfficeMinutes)
	})

	t.Run("a multi-day event belongs to every day it touches", func(t *testing.T) {
		// Tuesday 15:00 through Wednesday 11:00, truncated to the work
		// window on both days.
		result := compute(t, testConfig(),
			meeting(timedEvent("offsite", at(3, 15, 0), at(4, 11, 0))))

		byDay := map[int]DayResult{}
		for _, day := range result.PerDay {
			byDay[day.Date.Day()] = day
		}
		assert.Equal(t, 120, byDay[3].MeetingMinutes) // 15:00-17:00
		assert.Equal(t, 120, byDay[4].MeetingMinutes) // 09:00-11:00
		assert.Zero(t, byDay[5].MeetingMinutes)
	})
}

func TestMeetingAccountant(t *testing.T) {
	dayOf := func(t *testing.T, result *TotalResult, day int) DayResult {
		t.Helper()
		for _, d := range result.PerDay {
			if d.Date.Day() == day {
				return d
			}
		}
		t.Fatalf("no result for day %d", day)
		return DayResult{}
	}

	t.Run("durations are truncated to the work window", func(t *testing.T) {
		result := compute(t, testConfig(),
			meeting(timedEvent("marathon", at(3, 8, 0), at(3, 20, 0))))

		day := dayOf(t, result, 3)
		assert.Equal(t, 480, day.MeetingMinutes) // eod - sod, not 12h
		assert.Equal(t, 480, day.WorkMinutes)
	})

	t.Run("recurring and one-on-one double-count on top of meeting time", func(t *testing.T) {
		result := compute(t, testConfig(),
			recurring(oneOnOne(timedEvent("weekly 1:1", at(3, 10, 0), at(3, 11, 0)))))

		day := dayOf(t, result, 3)
		assert.Equal(t, 60, day.MeetingMinutes)
		assert.Equal(t, 60, day.RecurringMeetingMinutes)
		assert.Equal(t, 60, day.OneOnOneMinutes)
	})

	t.Run("out of office never counts as meeting time", func(t *testing.T) {
		result := compute(t, testConfig(),
			outOfOffice(personal(timedEvent("dentist", at(3, 10, 0), at(3, 12, 0)))))

		day := dayOf(t, result, 3)
		assert.Equal(t, 120, day.OutOfOfficeMinutes)
		assert.Zero(t, day.MeetingMinutes)
	})
}

func TestFocusGapDetector(t *testing.T) {
	// One Tuesday, 09:00-17:00 window, 120m threshold, 15m switch.
	singleDay := func() Config {
		cfg := testConfig()
		cfg.From = at(3, 0, 0)
		cfg.To = at(4, 0, 0)
		return cfg
	}

	t.Run("gap of exactly threshold plus switch yields one slot of threshold minutes", func(t *testing.T) {
		result := compute(t, singleDay(),
			meeting(timedEvent("morning", at(3, 9, 0), at(3, 10, 0))),
			meeting(timedEvent("afternoon", at(3, 12, 15), at(3, 17, 0))))

		require.Len(t, result.FocusSlots, 1)
		slot := result.FocusSlots[0]
		assert.Equal(t, at(3, 10, 0), slot.Start)
		assert.Equal(t, at(3, 12, 15), slot.End)
		assert.Equal(t, 120, slot.Minutes)
		assert.Equal(t, 120, result.FocusMinutes)
	})

	t.Run("gap below threshold yields nothing", func(t *testing.T) {
		result := compute(t, singleDay(),
			meeting(timedEvent("morning", at(3, 9, 0), at(3, 10, 0))),
			meeting(timedEvent("late morning", at(3, 11, 0), at(3, 17, 0))))

		assert.Empty(t, result.FocusSlots)
		assert.Zero(t, result.FocusMinutes)
	})

	t.Run("overlapping events gap from the latest end seen so far", func(t *testing.T) {
		// B starts inside A but A, earlier in the list, ends later.
		// The gap before C must start at A's finish, not B's.
		result := compute(t, singleDay(),
			meeting(timedEvent("A", at(3, 10, 0), at(3, 12, 0))),
			meeting(timedEvent("B", at(3, 10, 30), at(3, 11, 0))),
			meeting(timedEvent("C", at(3, 15, 0), at(3, 16, 0))))

		require.Len(t, result.FocusSlots, 1)
		slot := result.FocusSlots[0]
		assert.Equal(t, at(3, 12, 0), slot.Start)
		assert.Equal(t, at(3, 15, 0), slot.End)
		assert.Equal(t, 165, slot.Minutes)
	})

	t.Run("no trailing slot when the last event runs past the end of day", func(t *testing.T) {
		result := compute(t, singleDay(),
			meeting(timedEvent("late call", at(3, 13, 0), at(3, 19, 0))))

		require.Len(t, result.FocusSlots, 1) // only the leading 09:00-13:00 gap
		assert.Equal(t, at(3, 9, 0), result.FocusSlots[0].Start)
		assert.Equal(t, at(3, 13, 0), result.FocusSlots[0].End)
	})

	t.Run("all-day events neither break nor bound focus time", func(t *testing.T) {
		result := compute(t, singleDay(),
			meeting(allDayEvent("team offsite week", "2026-03-03", "2026-03-04")),
			meeting(timedEvent("sync", at(3, 9, 0), at(3, 10, 0))))

		// One gap from the sync to the end of day.
		require.Len(t, result.FocusSlots, 1)
		assert.Equal(t, at(3, 10, 0), result.FocusSlots[0].Start)
		assert.Equal(t, at(3, 17, 0), result.FocusSlots[0].End)
		assert.Equal(t, 420-15, result.FocusSlots[0].Minutes)
	})
}

func TestAggregator(t *testing.T) {
	cfg := testConfig()
	result := compute(t, cfg,
		meeting(timedEvent("mon", at(2, 10, 0), at(2, 11, 0))),
		recurring(timedEvent("tue", at(3, 10, 0), at(3, 11, 0))),
		oneOnOne(timedEvent("wed 1:1", at(4, 10, 0), at(4, 11, 0))))

	var focus, meetings, slots int
	for _, day := range result.PerDay {
		focus += day.FocusMinutes
		meetings += day.MeetingMinutes
		slots += len(day.FocusSlots)
	}
	assert.Equal(t, focus, result.FocusMinutes)
	assert.Equal(t, meetings, result.MeetingMinutes)
	assert.Len(t, result.FocusSlots, slots)
	assert.Len(t, result.PerDay, 5)
	assert.Equal(t, 5*480, result.WorkMinutes)
}

func TestEndToEndScenarios(t *testing.T) {
	t.Run("a day with only your own solo event is one big focus block", func(t *testing.T) {
		cfg := testConfig()
		cfg.From = at(3, 0, 0)
		cfg.To = at(4, 0, 0)

		result := compute(t, cfg,
			personal(timedEvent("deep work reminder", at(3, 10, 0), at(3, 11, 0))))

		assert.Zero(t, result.MeetingMinutes)
		require.Len(t, result.FocusSlots, 1)
		slot := result.FocusSlots[0]
		assert.Equal(t, at(3, 9, 0), slot.Start)
		assert.Equal(t, at(3, 17, 0), slot.End)
		assert.Equal(t, 480-15, slot.Minutes)
	})

	t.Run("two short meetings split the day into three candidate gaps", func(t *testing.T) {
		cfg := testConfig()
		cfg.From = at(3, 0, 0)
		cfg.To = at(4, 0, 0)

		result := compute(t, cfg,
			meeting(timedEvent("standup", at(3, 10, 0), at(3, 10, 30))),
			meeting(timedEvent("review", at(3, 14, 0), at(3, 14, 30))))

		// 09:00-10:00 is 60m, below threshold; the other two gaps emit.
		require.Len(t, result.FocusSlots, 2)
		assert.Equal(t, at(3, 10, 30), result.FocusSlots[0].Start)
		assert.Equal(t, at(3, 14, 0), result.FocusSlots[0].End)
		assert.Equal(t, 195, result.FocusSlots[0].Minutes)
		assert.Equal(t, at(3, 14, 30), result.FocusSlots[1].Start)
		assert.Equal(t, at(3, 17, 0), result.FocusSlots[1].End)
		assert.Equal(t, 135, result.FocusSlots[1].Minutes)

		assert.Equal(t, 330, result.FocusMinutes)
		assert.Equal(t, 60, result.MeetingMinutes)
	})
}

func TestFocusTimeErrors(t *testing.T) {
	t.Run("invalid config is rejected before any work", func(t *testing.T) {
		cfg := testConfig()
		cfg.FocusContextSwitchMinutes = cfg.FocusThresholdMinutes + 1

		_, err := New(nil).FocusTime(nil, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("a malformed event fails the whole computation", func(t *testing.T) {
		_, err := New(nil).FocusTime([]*calendar.Event{
			meeting(timedEvent("fine", at(3, 10, 0), at(3, 11, 0))),
			{Summary: "broken"},
		}, testConfig())

		var malformed *MalformedEventError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "broken", malformed.Summary)
	})
}
