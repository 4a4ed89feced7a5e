package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCreator writes events through the Calendar v3 API.
type GoogleCreator struct {
	service *gcal.Service
}

var _ EventCreator = (*GoogleCreator)(nil)

// NewGoogleCreatorFromFile loads service-account or authorized-user
// credentials from a JSON file.
func NewGoogleCreatorFromFile(ctx context.Context, credentialsPath string) (*GoogleCreator, error) {
	data, err := os.ReadFile(credentialsPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return NewGoogleCreatorFromJSON(ctx, data)
}

// NewGoogleCreatorFromJSON builds a creator from raw credential JSON.
func NewGoogleCreatorFromJSON(ctx context.Context, credentialsJSON []byte) (*GoogleCreator, error) {
	if cfg, err := google.JWTConfigFromJSON(credentialsJSON, gcal.CalendarEventsScope); err == nil {
		return NewGoogleCreator(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
	}

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unsupported credentials format: %w", err)
	}
	return NewGoogleCreator(ctx, option.WithTokenSource(creds.TokenSource))
}

// NewGoogleCreator builds a creator from arbitrary client options.
func NewGoogleCreator(ctx context.Context, opts ...option.ClientOption) (*GoogleCreator, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCreator{service: svc}, nil
}

// CreateEvent implements EventCreator.
func (g *GoogleCreator) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
	}

	created, err := g.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	return created.Id, nil
}
