// Package report orchestrates focus-time computations: it pairs the
// event source with the engine, memoizes results per (identity, config)
// fingerprint, and fans out over group members with bounded concurrency.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"

	"github.com/alexnederlof/gcal-focus-time-metrics/internal/cache"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/core"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/groups"
)

// DefaultConcurrency bounds how many member calendars are fetched at once.
const DefaultConcurrency = 5

// EventSource lists raw calendar events for one calendar identity,
// ordered by start time with recurring events expanded.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error)
}

// MemberResult is one group member's outcome. Result is nil when the
// member's fetch or computation failed; the failure stays isolated here.
type MemberResult struct {
	Email  string            `json:"email"`
	Result *core.TotalResult `json:"result,omitempty"`
	Err    error             `json:"-"`
	// Error mirrors Err for JSON consumers.
	Error string `json:"error,omitempty"`
}

// GroupResult collects every member's outcome, in membership order.
type GroupResult struct {
	Group   string         `json:"group"`
	Members []MemberResult `json:"members"`
}

// Service runs cached focus-time computations.
type Service struct {
	source      EventSource
	engine      *core.Engine
	results     *cache.Store[*core.TotalResult]
	concurrency int
	log         *zap.Logger
}

// NewService wires the event source and engine together. ttl bounds how
// long computed results are served from cache; concurrency <= 0 falls
// back to DefaultConcurrency.
func NewService(source EventSource, engine *core.Engine, ttl time.Duration, concurrency int, log *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		source:      source,
		engine:      engine,
		results:     cache.New[*core.TotalResult]("focus_results", ttl),
		concurrency: concurrency,
		log:         log,
	}
}

// ForCalendar computes (or replays) the focus-time report for one
// calendar. Concurrent requests for the same fingerprint share one
// fetch+computation; failures are never cached.
func (s *Service) ForCalendar(ctx context.Context, cfg core.Config) (*core.TotalResult, error) {
	return s.results.GetOrCompute(cfg.CacheKey(), func() (*core.TotalResult, error) {
		raw, err := s.source.ListEvents(ctx, cfg.Email, cfg.From, cfg.To)
		if err != nil {
			return nil, err
		}
		return s.engine.FocusTime(raw, cfg)
	})
}

// ForGroup fans the computation out over the members, at most
// s.concurrency fetches in flight. One member failing yields a nil
// result for that member only; the group report always completes.
func (s *Service) ForGroup(ctx context.Context, group string, members []groups.Member, cfg core.Config) *GroupResult {
	result := &GroupResult{
		Group:   group,
		Members: make([]MemberResult, len(members)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			memberCfg := cfg
			memberCfg.Email = m.Email
			res, err := s.ForCalendar(ctx, memberCfg)
			if err != nil {
				s.log.Warn("member computation failed",
					zap.String("member", m.Email),
					zap.Error(err))
				result.Members[i] = MemberResult{Email: m.Email, Err: err, Error: err.Error()}
				return nil
			}
			result.Members[i] = MemberResult{Email: m.Email, Result: res}
			return nil
		})
	}
	// Tasks swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()

	return result
}

// CacheStats exposes the result cache's hit and miss counters.
func (s *Service) CacheStats() (hits, misses int64) {
	return s.results.Stats()
}
