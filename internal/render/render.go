// Package render prints focus-time reports to the terminal: the range
// totals, a focus/meeting share bar, the per-day breakdown and, for
// groups, a per-member table.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexnederlof/gcal-focus-time-metrics/internal/core"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/report"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/util"
)

var (
	focusColor     = lipgloss.Color("#10B981") // Green
	oneOnOneColor  = lipgloss.Color("#60A5FA") // Blue
	meetingColor   = lipgloss.Color("#F59E0B") // Amber
	recurringColor = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle  = lipgloss.NewStyle().Foreground(meetingColor).Bold(true).Width(16)
	dayStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	focusStyle  = lipgloss.NewStyle().Foreground(focusColor)
	errStyle    = lipgloss.NewStyle().Foreground(recurringColor)
)

const barWidth = 60

// FocusReport prints the full report for one calendar.
func FocusReport(w io.Writer, cfg core.Config, res *core.TotalResult) {
	short := shortName(cfg.Email)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Focus time of %s", short)))
	fmt.Fprintf(w, "From %s to %s for %s\n\n",
		cfg.From.Format("Mon, Jan 2 2006"), cfg.To.Format("Mon, Jan 2 2006"), cfg.Email)

	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Focus time"), hours(res.FocusMinutes))
	fmt.Fprintf(w, "%s %s (of which %s recurring)\n",
		labelStyle.Render("In meetings"), hours(res.MeetingMinutes), hours(res.RecurringMeetingMinutes))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("In one-on-ones"), hours(res.OneOnOneMinutes))
	if res.OutOfOfficeMinutes > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Out of office"), hours(res.OutOfOfficeMinutes))
	}
	fmt.Fprintf(w, "%s %s\n\n", labelStyle.Render("Work window"), hours(res.WorkMinutes))

	fmt.Fprintln(w, shareBar(res))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Here's how it breaks down"))
	for _, day := range res.PerDay {
		printDay(w, day)
	}
}

func printDay(w io.Writer, day core.DayResult) {
	fmt.Fprintf(w, "\n%s %s\n",
		dayStyle.Render(day.Date.Format("Monday")),
		mutedStyle.Render(day.Date.Format("Jan 2, 2006 (MST)")))
	fmt.Fprintf(w, "  %s of focus in %d slots, %s in meetings (%s recurring), %s in one-on-ones\n",
		hours(day.FocusMinutes), len(day.FocusSlots),
		hours(day.MeetingMinutes), hours(day.RecurringMeetingMinutes), hours(day.OneOnOneMinutes))

	for _, line := range dayTimeline(day) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// dayTimeline interleaves the day's events and focus slots in start
// order, the way the original day view listed them.
func dayTimeline(day core.DayResult) []string {
	type item struct {
		start, end time.Time
		label      string
		focus      bool
	}
	items := make([]item, 0, len(day.Events)+len(day.FocusSlots))
	for _, e := range day.Events {
		label := util.TruncateText(e.Summary(), 48)
		if e.Original.HtmlLink != "" {
			label = util.MakeHyperlink(e.Original.HtmlLink, label)
		}
		items = append(items, item{start: e.Start, end: e.Finish, label: label})
	}
	for _, s := range day.FocusSlots {
		items = append(items, item{
			start: s.Start,
			end:   s.End,
			label: fmt.Sprintf("%s of focus", hours(s.Minutes)),
			focus: true,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].start.Before(items[j].start) })

	loc := day.Date.Location()
	lines := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("%s - %s  %s",
			it.start.In(loc).Format("15:04"), it.end.In(loc).Format("15:04"), it.label)
		if it.focus {
			line = focusStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

// GroupReport prints per-member rows plus group totals. Members whose
// fetch failed are listed, not dropped.
func GroupReport(w io.Writer, cfg core.Config, res *report.GroupResult) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Focus time for group %s", shortName(cfg.Email))))
	fmt.Fprintf(w, "From %s to %s, %d members\n\n",
		cfg.From.Format("Mon, Jan 2 2006"), cfg.To.Format("Mon, Jan 2 2006"), len(res.Members))

	var totalFocus, totalWork, totalMeeting int
	for _, m := range res.Members {
		if m.Result == nil {
			fmt.Fprintf(w, "%-32s %s\n", m.Email, errStyle.Render("fetch failed"))
			continue
		}
		r := m.Result
		totalFocus += r.FocusMinutes
		totalWork += r.WorkMinutes
		totalMeeting += r.MeetingMinutes
		fmt.Fprintf(w, "%-32s %10s focus (%s)  %10s meetings\n",
			m.Email, hours(r.FocusMinutes), percent(r.FocusMinutes, r.WorkMinutes), hours(r.MeetingMinutes))
	}

	fmt.Fprintf(w, "\nThis group had %s of total focus time. That's %s of their time on average.\n",
		hours(totalFocus), percent(totalFocus, totalWork))
}

// shareBar renders the focus / 1:1 / meeting / recurring share of the
// work window as a proportional colored bar.
func shareBar(res *core.TotalResult) string {
	if res.WorkMinutes == 0 {
		return ""
	}
	remainingMeeting := res.MeetingMinutes - res.RecurringMeetingMinutes - res.OneOnOneMinutes
	if remainingMeeting < 0 {
		remainingMeeting = 0
	}
	segment := func(minutes int, color lipgloss.Color) string {
		cells := minutes * barWidth / res.WorkMinutes
		return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells))
	}
	bar := segment(res.FocusMinutes, focusColor) +
		segment(res.OneOnOneMinutes, oneOnOneColor) +
		segment(remainingMeeting, meetingColor) +
		segment(res.RecurringMeetingMinutes, recurringColor)
	// Pad the unaccounted remainder of the window.
	if pad := barWidth - lipgloss.Width(bar); pad > 0 {
		bar += mutedStyle.Render(strings.Repeat("░", pad))
	}
	legend := mutedStyle.Render(fmt.Sprintf("focus %s · 1:1 %s · meetings %s · recurring %s",
		percent(res.FocusMinutes, res.WorkMinutes),
		percent(res.OneOnOneMinutes, res.WorkMinutes),
		percent(remainingMeeting, res.WorkMinutes),
		percent(res.RecurringMeetingMinutes, res.WorkMinutes)))
	return bar + "\n" + legend
}

func hours(minutes int) string {
	return fmt.Sprintf("%.1f hours", float64(minutes)/60)
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(100*float64(part)/float64(whole)+0.5))
}

func shortName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
