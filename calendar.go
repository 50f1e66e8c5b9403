package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarAPI is what the reconciler needs from a calendar backend.
// DeleteEvent treats an already-deleted event as success.
type CalendarAPI interface {
	InsertEvent(ctx context.Context, calendarID string, event Event) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event Event) error
	GetEvent(ctx context.Context, calendarID, eventID string) (Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
}

type GoogleCalendar struct {
	service    *calendar.Service
	dispatcher *Dispatcher
}

func NewGoogleCalendar(ctx context.Context, client *http.Client, dispatcher *Dispatcher) (*GoogleCalendar, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendar{service: service, dispatcher: dispatcher}, nil
}

func toGoogleEvent(event Event) *calendar.Event {
	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		Start: &calendar.EventDateTime{
			DateTime: event.Start,
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End,
			TimeZone: event.TimeZone,
		},
	}
}

func fromGoogleEvent(item *calendar.Event) Event {
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
	}
	if item.Start != nil {
		event.Start = item.Start.DateTime
		event.TimeZone = item.Start.TimeZone
	}
	if item.End != nil {
		event.End = item.End.DateTime
	}
	return event
}

func (g *GoogleCalendar) InsertEvent(ctx context.Context, calendarID string, event Event) (string, error) {
	var created *calendar.Event
	err := g.dispatcher.Do(ctx, ResourceCalendar, func() error {
		var err error
		created, err = g.service.Events.Insert(calendarID, toGoogleEvent(event)).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, event Event) error {
	err := g.dispatcher.Do(ctx, ResourceCalendar, func() error {
		_, err := g.service.Events.Update(calendarID, eventID, toGoogleEvent(event)).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	return nil
}

func (g *GoogleCalendar) GetEvent(ctx context.Context, calendarID, eventID string) (Event, error) {
	var item *calendar.Event
	err := g.dispatcher.Do(ctx, ResourceCalendar, func() error {
		var err error
		item, err = g.service.Events.Get(calendarID, eventID).Do()
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return Event{}, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return Event{}, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return fromGoogleEvent(item), nil
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.dispatcher.Do(ctx, ResourceCalendar, func() error {
		return g.service.Events.Delete(calendarID, eventID).Do()
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	var result []Event
	pageToken := ""
	for {
		var page *calendar.Events
		err := g.dispatcher.Do(ctx, ResourceCalendar, func() error {
			var err error
			page, err = g.service.Events.List(calendarID).
				TimeMin(timeMin.Format(time.RFC3339)).
				TimeMax(timeMax.Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				PageToken(pageToken).
				Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		for _, item := range page.Items {
			result = append(result, fromGoogleEvent(item))
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return result, nil
}
