package core

import "google.golang.org/api/calendar/v3"

// RelevantEvents normalizes the raw range and keeps only events worth
// accounting for: meetings you are actually going to, plus out-of-office
// blocks. Cancelled events are dropped before normalization, so a
// malformed cancelled event never fails the run. Any other event that
// cannot be normalized fails the whole computation.
func RelevantEvents(raw []*calendar.Event, cfg Config) ([]*Event, error) {
	loc := cfg.From.Location()
	events := make([]*Event, 0, len(raw))
	for _, r := range raw {
		if r.Status == "cancelled" {
			continue
		}
		e, err := NormalizeEvent(r, loc)
		if err != nil {
			return nil, err
		}
		if e.MyResponse() == ResponseDeclined {
			continue
		}
		// Out-of-office blocks count even without attendees; everything
		// else needs somebody other than yourself on it.
		if !e.IsOutOfOffice() && e.IsPersonalWithoutOthers() {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
