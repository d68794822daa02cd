// Package gcal is the event source: a thin client over the Google
// Calendar v3 API that hands the engine raw events, ordered by start
// time with recurring events already expanded.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	cloudidentity "google.golang.org/api/cloudidentity/v1"
	"google.golang.org/api/option"
)

// Scopes the OAuth credentials must carry: read the calendar, and read
// group memberships for group reports.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	cloudidentity.CloudIdentityGroupsReadonlyScope,
}

const pageSize = 50

// Client wraps the Calendar service for one authenticated user.
type Client struct {
	svc *calendar.Service
	log *zap.Logger
}

// CalendarInfo describes one entry of the user's calendar list.
type CalendarInfo struct {
	ID      string
	Name    string
	Primary bool
	Hidden  bool
}

// OAuthConfig parses the downloaded credentials file into an OAuth
// config carrying our scopes.
func OAuthConfig(credsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// TokenFromFile reads a previously saved OAuth token.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// HTTPClient builds the authenticated HTTP client shared by the
// calendar client and the group resolver (run the auth command first to
// create the token).
func HTTPClient(ctx context.Context, credsFile, tokenFile string) (*http.Client, error) {
	cfg, err := OAuthConfig(credsFile)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file (run auth first): %w", err)
	}
	return cfg.Client(ctx, tok), nil
}

// NewClient builds a Calendar client on the authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{svc: svc, log: log}, nil
}

// ListEvents collects every event on calendarID between from and to,
// paging through the API. Recurring events come back expanded as single
// instances, ordered by start time, which is the contract the engine
// relies on.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error) {
	var collected []*calendar.Event
	pageToken := ""

	for {
		req := c.svc.Events.List(calendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			MaxResults(pageSize).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
		}
		collected = append(collected, resp.Items...)
		c.log.Debug("fetched events page",
			zap.String("calendar", calendarID),
			zap.Int("page", len(resp.Items)),
			zap.Int("collected", len(collected)))

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return collected, nil
		}
	}
}

// Timezone resolves the user's calendar timezone setting.
func (c *Client) Timezone(ctx context.Context) (*time.Location, error) {
	setting, err := c.svc.Settings.Get("timezone").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get timezone setting: %w", err)
	}
	loc, err := time.LoadLocation(setting.Value)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", setting.Value, err)
	}
	return loc, nil
}

// Calendars lists every calendar the user has access to.
func (c *Client) Calendars(ctx context.Context) ([]CalendarInfo, error) {
	var results []CalendarInfo
	pageToken := ""

	for {
		req := c.svc.CalendarList.List().MaxResults(100).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list calendars: %w", err)
		}
		for _, item := range resp.Items {
			results = append(results, CalendarInfo{
				ID:      item.Id,
				Name:    item.Summary,
				Primary: item.Primary,
				Hidden:  item.Hidden,
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return results, nil
		}
	}
}
