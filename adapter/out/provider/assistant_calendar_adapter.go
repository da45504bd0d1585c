package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"assistant_server/core/domain"
	"assistant_server/pkg/httputil"
)

// CalendarAdapter implements out.EventDispatcherPort against the Google
// Calendar API.
type CalendarAdapter struct {
	config *oauth2.Config
	cb     *gobreaker.CircuitBreaker
}

// NewCalendarAdapter creates a new Calendar adapter.
func NewCalendarAdapter(cfg *GoogleConfig) *CalendarAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			calendar.CalendarEventsScope,
		},
		Endpoint: google.Endpoint,
	}

	return &CalendarAdapter{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(newBreakerSettings("calendar-api")),
	}
}

// Create inserts an event into the user's primary calendar.
func (a *CalendarAdapter) Create(ctx context.Context, token *oauth2.Token, params *domain.EventParams) (*domain.DispatchResult, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:  params.Summary,
		Location: params.Location,
		Start: &calendar.EventDateTime{
			DateTime: params.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: params.End.Format(time.RFC3339),
		},
	}

	var created *calendar.Event
	cbErr := executeWithCircuitBreaker(a.cb, func() error {
		var apiErr error
		created, apiErr = svc.Events.Insert("primary", event).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, fmt.Errorf("failed to create event: %w", cbErr)
	}

	return &domain.DispatchResult{
		ExternalID: created.Id,
		SentAt:     time.Now(),
	}, nil
}

// ListUpcoming returns the next events on the primary calendar.
func (a *CalendarAdapter) ListUpcoming(ctx context.Context, token *oauth2.Token, max int) ([]domain.EventSummary, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	if max <= 0 {
		max = 10
	}

	var listed *calendar.Events
	cbErr := executeWithCircuitBreaker(a.cb, func() error {
		var apiErr error
		listed, apiErr = svc.Events.List("primary").
			TimeMin(time.Now().Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(int64(max)).
			Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, fmt.Errorf("failed to list events: %w", cbErr)
	}

	summaries := make([]domain.EventSummary, 0, len(listed.Items))
	for _, item := range listed.Items {
		summaries = append(summaries, domain.EventSummary{
			Title:    item.Summary,
			Start:    parseEventTime(item.Start),
			End:      parseEventTime(item.End),
			Location: item.Location,
		})
	}

	return summaries, nil
}

func (a *CalendarAdapter) getService(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GoogleClient())

	return calendar.NewService(ctx, option.WithTokenSource(
		a.config.TokenSource(ctx, token),
	))
}

// parseEventTime handles both timed and all-day events.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
