package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"mannabook/internal/metrics"
	"mannabook/internal/models"
)

// orderIDProperty is the private extended property carrying the idempotency
// key on calendar events.
const orderIDProperty = "order_id"

// listPageSize matches the Google Calendar API maximum. The client follows
// page tokens past it; silent truncation would let overlapping commitments
// slip past the enforcer.
const listPageSize = 250

// GoogleClient implements CalendarOfRecord against Google Calendar with a
// service-account credential.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
	loc        *time.Location
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewGoogleClient builds an authenticated client. credentialsJSON is the
// service-account key; requests are paced by the given rate and burst.
func NewGoogleClient(ctx context.Context, credentialsJSON []byte, calendarID, timezone string, rps float64, burst int, logger zerolog.Logger) (*GoogleClient, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone %q: %w", timezone, err)
	}

	return &GoogleClient{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		loc:        loc,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger.With().Str("component", "calendar").Logger(),
	}, nil
}

// ListCommitments fetches all non-cancelled events intersecting [from, to),
// following page tokens until the range is exhausted.
func (g *GoogleClient) ListCommitments(ctx context.Context, from, to time.Time) ([]models.Commitment, error) {
	var out []models.Commitment
	pageToken := ""

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := g.svc.Events.List(g.calendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		rsp, err := call.Do()
		if err != nil {
			metrics.IncCalendarError("list")
			return nil, fmt.Errorf("list events: %w", err)
		}

		for _, ev := range rsp.Items {
			c, ok := g.toCommitment(ev)
			if !ok {
				continue
			}
			out = append(out, c)
		}

		if rsp.NextPageToken == "" {
			return out, nil
		}
		pageToken = rsp.NextPageToken
	}
}

// InsertCommitment creates the calendar event stamped with the order id.
func (g *GoogleClient) InsertCommitment(ctx context.Context, c models.Commitment) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ev, err := g.svc.Events.Insert(g.calendarID, g.toEvent(c)).Context(ctx).Do()
	if err != nil {
		metrics.IncCalendarError("insert")
		return "", fmt.Errorf("insert event: %w", err)
	}

	g.logger.Info().Str("event_id", ev.Id).Str("order_id", c.OrderID).Msg("commitment created")
	return ev.Id, nil
}

// UpdateCommitment patches window and metadata of an existing event.
func (g *GoogleClient) UpdateCommitment(ctx context.Context, id string, c models.Commitment) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := g.svc.Events.Patch(g.calendarID, id, g.toEvent(c)).Context(ctx).Do(); err != nil {
		metrics.IncCalendarError("patch")
		return fmt.Errorf("patch event %s: %w", id, err)
	}

	g.logger.Info().Str("event_id", id).Str("order_id", c.OrderID).Msg("commitment updated")
	return nil
}

func (g *GoogleClient) toEvent(c models.Commitment) *gcal.Event {
	return &gcal.Event{
		Summary:     c.Summary,
		Description: c.Description,
		Start:       &gcal.EventDateTime{DateTime: c.Start.Format(time.RFC3339), TimeZone: g.timezone},
		End:         &gcal.EventDateTime{DateTime: c.End.Format(time.RFC3339), TimeZone: g.timezone},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{orderIDProperty: c.OrderID},
		},
	}
}

func (g *GoogleClient) toCommitment(ev *gcal.Event) (models.Commitment, bool) {
	if ev.Status == "cancelled" {
		return models.Commitment{}, false
	}

	start, okStart := parseEventTime(ev.Start, g.loc)
	end, okEnd := parseEventTime(ev.End, g.loc)
	if !okStart || !okEnd {
		g.logger.Warn().Str("event_id", ev.Id).Msg("event with unparseable times skipped")
		return models.Commitment{}, false
	}

	orderID := ""
	if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private != nil {
		orderID = ev.ExtendedProperties.Private[orderIDProperty]
	}

	return models.Commitment{
		ID:          ev.Id,
		Start:       start,
		End:         end,
		OrderID:     orderID,
		Summary:     ev.Summary,
		Description: ev.Description,
	}, true
}

func parseEventTime(edt *gcal.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		return t, err == nil
	}
	if edt.Date != "" {
		// All-day events block the whole civil day in the resource zone;
		// parsing at UTC midnight would shift the block by the zone offset.
		t, err := time.ParseInLocation("2006-01-02", edt.Date, loc)
		return t, err == nil
	}
	return time.Time{}, false
}
