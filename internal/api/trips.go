package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
)

// IdempotencyHeader lets the backend collapse retried trip creations.
const IdempotencyHeader = "Idempotency-Key"

// CreateTrip creates the trip record only (step 1 of trip creation) and
// returns the server-issued trip id.
func (c *Client) CreateTrip(ctx context.Context, t domain.Trip, idempotencyKey string) (string, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("api.Client.CreateTrip: %w", err)
	}
	in := tripToDTO(t)
	in.ID = ""

	var h http.Header
	if idempotencyKey != "" {
		h = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}
	var out struct {
		ID domain.WireID `json:"trip_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users/"+url.PathEscape(uid)+"/trip", in, &out, h); err != nil {
		return "", fmt.Errorf("api.Client.CreateTrip: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("api.Client.CreateTrip: response carries no trip_id")
	}
	return string(out.ID), nil
}

// AddTripMarkers links existing markers to a trip (step 2).
func (c *Client) AddTripMarkers(ctx context.Context, tripID string, markerIDs []string) error {
	in := struct {
		MarkerIDs []string `json:"markerIds"`
	}{MarkerIDs: markerIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/trips/"+url.PathEscape(tripID)+"/markers", in, nil, nil); err != nil {
		return fmt.Errorf("api.Client.AddTripMarkers: %w", err)
	}
	return nil
}

// Trips lists the logged-in user's trips in server order.
func (c *Client) Trips(ctx context.Context) ([]domain.Trip, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("api.Client.Trips: %w", err)
	}
	var out []tripDTO
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(uid)+"/trip", nil, &out, nil); err != nil {
		return nil, fmt.Errorf("api.Client.Trips: %w", err)
	}
	trips := make([]domain.Trip, 0, len(out))
	for _, d := range out {
		t, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("api.Client.Trips: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

// Trip fetches one trip. The backend wraps it as {"trip": {...}}.
func (c *Client) Trip(ctx context.Context, id string) (domain.Trip, error) {
	var out struct {
		Trip *tripDTO `json:"trip"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/trip/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return domain.Trip{}, fmt.Errorf("api.Client.Trip: %w", err)
	}
	if out.Trip == nil {
		return domain.Trip{}, fmt.Errorf("api.Client.Trip: %w", domain.ErrNotFound)
	}
	t, err := out.Trip.toDomain()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("api.Client.Trip: %w", err)
	}
	if t.ID == "" {
		t.ID = id
	}
	return t, nil
}

// TripImages returns absolute URLs of the trip's photos. The backend answers
// with paths relative to its root.
func (c *Client) TripImages(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Images []string `json:"images"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/trip/"+url.PathEscape(id)+"/images", nil, &out, nil); err != nil {
		return nil, fmt.Errorf("api.Client.TripImages: %w", err)
	}
	urls := make([]string, 0, len(out.Images))
	for _, p := range out.Images {
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			urls = append(urls, p)
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		urls = append(urls, c.baseURL+p)
	}
	return urls, nil
}

// TripMarkers lists the markers attached to a trip.
func (c *Client) TripMarkers(ctx context.Context, tripID string) ([]domain.Marker, error) {
	var out []markerDTO
	if err := c.doJSON(ctx, http.MethodGet, "/markers/"+url.PathEscape(tripID), nil, &out, nil); err != nil {
		return nil, fmt.Errorf("api.Client.TripMarkers: %w", err)
	}
	ms, err := markersToDomain(out)
	if err != nil {
		return nil, fmt.Errorf("api.Client.TripMarkers: %w", err)
	}
	return ms, nil
}

// DeleteTrip removes a trip of the logged-in user. It is also the
// compensating action when trip creation fails half-way.
func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	uid, err := c.UserID(ctx)
	if err != nil {
		return fmt.Errorf("api.Client.DeleteTrip: %w", err)
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(uid)+"/trip/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("api.Client.DeleteTrip: %w", err)
	}
	return nil
}
