package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alexnederlof/gcal-focus-time-metrics/internal/core"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/gcal"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/groups"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve focus-time reports over HTTP",
	Long: `Run an HTTP server answering focus-time queries as JSON.

  GET /focus-time?email=you@example.com&analyse-start=2026-08-03&analyse-finish=2026-08-17
  GET /healthz

Optional query parameters mirror the CLI flags: day-start, day-end,
focus-threshold, focus-switch. A group email returns one result per
member. Results are cached per (email, parameters) fingerprint.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", ":3000", "Listen address")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}

type server struct {
	cal      *gcal.Client
	svc      *report.Service
	resolver groups.Resolver
	tz       *time.Location
	log      *zap.Logger
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	httpClient, err := authedClient(ctx)
	if err != nil {
		return err
	}
	cal, err := gcal.NewClient(ctx, httpClient, logger)
	if err != nil {
		return err
	}
	tz, err := cal.Timezone(ctx)
	if err != nil {
		return err
	}
	resolver, err := groups.NewCloudIdentityResolver(ctx, httpClient, logger)
	if err != nil {
		return err
	}

	s := &server{
		cal:      cal,
		svc:      report.NewService(cal, core.New(logger), viper.GetDuration("cache_ttl"), viper.GetInt("concurrency"), logger),
		resolver: resolver,
		tz:       tz,
		log:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Get("/focus-time", s.handleFocusTime)

	srv := &http.Server{
		Addr:    viper.GetString("listen"),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleFocusTime answers one analysis request. The query parameter
// names match the original web UI. A group email fans out to every
// member; anything else is treated as a single calendar.
func (s *server) handleFocusTime(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, err := s.resolver.Resolve(r.Context(), cfg.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if identity.IsGroup() {
		result := s.svc.ForGroup(r.Context(), cfg.Email, identity.Members, cfg)
		s.writeJSON(w, result)
		return
	}

	result, err := s.svc.ForCalendar(r.Context(), cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result)
}

func (s *server) configFromQuery(r *http.Request) (core.Config, error) {
	q := r.URL.Query()

	cfg := core.DefaultConfig()
	cfg.Email = q.Get("email")
	if cfg.Email == "" {
		cfg.Email = "primary"
	}

	now := time.Now().In(s.tz)
	cfg.From = startOfWeek(now).AddDate(0, 0, -7)
	cfg.To = cfg.From.AddDate(0, 0, 14)

	var err error
	if v := q.Get("analyse-start"); v != "" {
		if cfg.From, err = parseDate(v, s.tz); err != nil {
			return cfg, err
		}
		cfg.To = cfg.From.AddDate(0, 0, 14)
	}
	if v := q.Get("analyse-finish"); v != "" {
		if cfg.To, err = parseDate(v, s.tz); err != nil {
			return cfg, err
		}
	}

	intParam := func(name string, into *int) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parameter %s: %q is not a number", name, v)
		}
		*into = n
		return nil
	}
	for name, into := range map[string]*int{
		"day-start":       &cfg.StartOfDay,
		"day-end":         &cfg.EndOfDay,
		"focus-threshold": &cfg.FocusThresholdMinutes,
		"focus-switch":    &cfg.FocusContextSwitchMinutes,
	} {
		if err := intParam(name, into); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

// writeError maps engine errors to responses: invalid config is the
// caller's fault, a malformed event is reported with its cause, and
// everything else is an opaque 500.
func (s *server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrInvalidConfig) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var malformed *core.MalformedEventError
	if errors.As(err, &malformed) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "malformed calendar event",
			"cause": malformed.Error(),
		})
		return
	}

	s.log.Error("request failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		hits, misses := s.svc.CacheStats()
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.Int64("cache_hits", hits),
			zap.Int64("cache_misses", misses))
	})
}
