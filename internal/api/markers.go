package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkordes/travel-diary/internal/domain"
)

// UserMarkers lists every marker of the logged-in user.
func (c *Client) UserMarkers(ctx context.Context) ([]domain.Marker, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("api.Client.UserMarkers: %w", err)
	}
	var out []markerDTO
	if err := c.doJSON(ctx, http.MethodGet, "/markers/getUserMarkers/"+url.PathEscape(uid), nil, &out, nil); err != nil {
		return nil, fmt.Errorf("api.Client.UserMarkers: %w", err)
	}
	ms, err := markersToDomain(out)
	if err != nil {
		return nil, fmt.Errorf("api.Client.UserMarkers: %w", err)
	}
	return ms, nil
}

// Marker fetches one marker by id.
func (c *Client) Marker(ctx context.Context, id string) (domain.Marker, error) {
	var out markerDTO
	if err := c.doJSON(ctx, http.MethodGet, "/markers/getMarkerByMarkerID/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return domain.Marker{}, fmt.Errorf("api.Client.Marker: %w", err)
	}
	m, err := out.toDomain()
	if err != nil {
		return domain.Marker{}, fmt.Errorf("api.Client.Marker: %w", err)
	}
	if m.ID == "" {
		m.ID = id
	}
	return m, nil
}

// CreateMarker stores m on the backend and returns it with the server id.
func (c *Client) CreateMarker(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("api.Client.CreateMarker: %w", err)
	}
	in := markerToDTO(m)
	in.ID = ""
	in.UserID = uid

	var out markerDTO
	if err := c.doJSON(ctx, http.MethodPost, "/markers", in, &out, nil); err != nil {
		return domain.Marker{}, fmt.Errorf("api.Client.CreateMarker: %w", err)
	}
	if out.ID == "" {
		return domain.Marker{}, fmt.Errorf("api.Client.CreateMarker: response carries no marker_id")
	}
	m.ID = string(out.ID)
	return m, nil
}

// DeleteMarker removes a marker on the backend.
func (c *Client) DeleteMarker(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/markers/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("api.Client.DeleteMarker: %w", err)
	}
	return nil
}
