package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alexnederlof/gcal-focus-time-metrics/internal/core"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/gcal"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/groups"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/render"
	"github.com/alexnederlof/gcal-focus-time-metrics/internal/report"
)

var (
	cfgFile string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "focustime",
	Short: "Compute focus time statistics from your Google Calendar",
	Long: `focustime splits your workdays into meeting time, out-of-office time
and uninterrupted focus gaps, and reports per-day and per-range totals.

Point it at your own calendar, somebody else's, or a whole group:

  focustime
  focustime --email colleague@example.com --from 2026-08-03 --to 2026-08-17
  focustime --email team@example.com --group`,
	PersistentPreRunE: initLogger,
	RunE:              runAnalyze,
	SilenceUsage:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/focustime/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.PersistentFlags().String("credentials", "", "OAuth credentials file")
	rootCmd.PersistentFlags().String("token", "", "OAuth token file (created by 'focustime auth')")

	rootCmd.PersistentFlags().StringP("email", "e", "", "Calendar to analyze (default: your primary calendar)")
	rootCmd.PersistentFlags().BoolP("group", "g", false, "Treat --email as a group and report every member")
	rootCmd.PersistentFlags().String("from", "", "Analysis start date (YYYY-MM-DD, default: start of previous week)")
	rootCmd.PersistentFlags().String("to", "", "Analysis end date (YYYY-MM-DD, default: two weeks after start)")
	rootCmd.PersistentFlags().Int("day-start", core.DefaultConfig().StartOfDay, "Hour your work day starts")
	rootCmd.PersistentFlags().Int("day-end", core.DefaultConfig().EndOfDay, "Hour your work day ends")
	rootCmd.PersistentFlags().Int("focus-threshold", core.DefaultConfig().FocusThresholdMinutes, "Minimum gap in minutes that counts as focus time")
	rootCmd.PersistentFlags().Int("focus-switch", core.DefaultConfig().FocusContextSwitchMinutes, "Context switch penalty in minutes per gap")
	rootCmd.PersistentFlags().Int("concurrency", report.DefaultConcurrency, "How many member calendars to fetch at once")
	rootCmd.PersistentFlags().Duration("cache-ttl", 15*time.Minute, "How long computed results are cached")

	for _, key := range []string{
		"debug", "credentials", "token", "email", "group", "from", "to",
		"day-start", "day-end", "focus-threshold", "focus-switch",
		"concurrency", "cache-ttl",
	} {
		viper.BindPFlag(strings.ReplaceAll(key, "-", "_"), rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "focustime"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FOCUSTIME")
	viper.AutomaticEnv()

	viper.SetDefault("credentials", "credentials.json")
	viper.SetDefault("token", "token.json")
	viper.SetDefault("listen", ":3000")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func initLogger(cmd *cobra.Command, args []string) error {
	var err error
	if viper.GetBool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	cfg, err := configFromFlags(tz)
	if err != nil {
		return err
	}

	svc := report.NewService(cal, core.New(logger), viper.GetDuration("cache_ttl"), viper.GetInt("concurrency"), logger)

	if viper.GetBool("group") {
		resolver, err := groups.NewCloudIdentityResolver(ctx, httpClient, logger)
		if err != nil {
			return err
		}
		identity, err := resolver.Resolve(ctx, cfg.Email)
		if err != nil {
			return err
		}
		if identity.IsGroup() {
			result := svc.ForGroup(ctx, cfg.Email, identity.Members, cfg)
			render.GroupReport(os.Stdout, cfg, result)
			return nil
		}
		// Not a (visible) group after all; fall through to the
		// individual report.
		logger.Info("not a group, analyzing as individual", zap.String("email", cfg.Email))
	}

	result, err := svc.ForCalendar(ctx, cfg)
	if err != nil {
		return err
	}
	render.FocusReport(os.Stdout, cfg, result)
	return nil
}

// authedClient builds the OAuth HTTP client from the configured
// credentials and token files.
func authedClient(ctx context.Context) (*http.Client, error) {
	creds := expandPath(viper.GetString("credentials"))
	token := expandPath(viper.GetString("token"))

	if _, err := os.Stat(creds); os.IsNotExist(err) {
		return nil, fmt.Errorf("credentials file not found: %s", creds)
	}
	if _, err := os.Stat(token); os.IsNotExist(err) {
		return nil, fmt.Errorf("token file not found: %s\n\nRun 'focustime auth' to authenticate", token)
	}
	return gcal.HTTPClient(ctx, creds, token)
}

// configFromFlags assembles and validates the engine config. Dates are
// interpreted in the calendar's timezone. Without an explicit range the
// analysis covers the previous week plus the current one.
func configFromFlags(tz *time.Location) (core.Config, error) {
	cfg := core.DefaultConfig()
	cfg.Email = viper.GetString("email")
	if cfg.Email == "" {
		cfg.Email = "primary"
	}
	cfg.StartOfDay = viper.GetInt("day_start")
	cfg.EndOfDay = viper.GetInt("day_end")
	cfg.FocusThresholdMinutes = viper.GetInt("focus_threshold")
	cfg.FocusContextSwitchMinutes = viper.GetInt("focus_switch")

	now := time.Now().In(tz)
	cfg.From = startOfWeek(now).AddDate(0, 0, -7)
	cfg.To = cfg.From.AddDate(0, 0, 14)

	var err error
	if from := viper.GetString("from"); from != "" {
		if cfg.From, err = parseDate(from, tz); err != nil {
			return cfg, err
		}
		cfg.To = cfg.From.AddDate(0, 0, 14)
	}
	if to := viper.GetString("to"); to != "" {
		if cfg.To, err = parseDate(to, tz); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

// startOfWeek returns midnight of t's Monday.
func startOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

func parseDate(s string, tz *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
