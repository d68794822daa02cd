package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig marks configuration rejected before any computation
// starts. Callers surface it as a validation error, never a retry.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one focus-time analysis run. It is immutable for the
// duration of the computation.
type Config struct {
	// Email identifies the calendar being analyzed.
	Email string
	// StartOfDay and EndOfDay bound the work window, as hours of the day.
	StartOfDay int
	EndOfDay   int
	// FocusThresholdMinutes is the minimum raw gap that counts as focus.
	FocusThresholdMinutes int
	// FocusContextSwitchMinutes is subtracted from every detected gap.
	FocusContextSwitchMinutes int
	// From and To bound the analysis range. Days are iterated in From's
	// location.
	From time.Time
	To   time.Time
}

// DefaultConfig returns the stock work window and focus tuning. Email,
// From and To still have to be filled in.
func DefaultConfig() Config {
	return Config{
		StartOfDay:                10,
		EndOfDay:                  19,
		FocusThresholdMinutes:     120,
		FocusContextSwitchMinutes: 15,
	}
}

// Validate rejects configurations the engine cannot run with. All
// returned errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.From.After(c.To) {
		return fmt.Errorf("%w: analysis start %s is after end %s",
			ErrInvalidConfig, c.From.Format(time.DateOnly), c.To.Format(time.DateOnly))
	}
	if c.FocusContextSwitchMinutes > c.FocusThresholdMinutes {
		return fmt.Errorf("%w: context switch (%dm) exceeds focus threshold (%dm)",
			ErrInvalidConfig, c.FocusContextSwitchMinutes, c.FocusThresholdMinutes)
	}
	if c.StartOfDay < 0 || c.EndOfDay > 24 || c.StartOfDay >= c.EndOfDay {
		return fmt.Errorf("%w: work window %d:00-%d:00", ErrInvalidConfig, c.StartOfDay, c.EndOfDay)
	}
	return nil
}

// CacheKey returns a deterministic fingerprint of the run. Two requests
// with the same key may share one cached result.
func (c Config) CacheKey() string {
	return strings.Join([]string{
		c.Email,
		fmt.Sprint(c.StartOfDay),
		fmt.Sprint(c.EndOfDay),
		fmt.Sprint(c.FocusThresholdMinutes),
		fmt.Sprint(c.FocusContextSwitchMinutes),
		c.From.Format(time.DateOnly),
		c.To.Format(time.DateOnly),
	}, "##")
}
