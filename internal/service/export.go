package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/travel-diary/internal/domain"
)

// Export returns one ExportRow per trip marker across all trips, oldest
// trip first. Trips with no resolvable markers contribute one row with
// empty marker fields. Both reads go through the usual remote-then-local
// fallback, so an offline export covers the offline store.
func (c *Coordinator) Export(ctx context.Context) ([]domain.ExportRow, error) {
	list, err := c.LoadTrips(ctx, SortAsc)
	if err != nil {
		return nil, fmt.Errorf("service.Coordinator.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(list.Trips))
	for _, t := range list.Trips {
		markers, err := c.TripMarkers(ctx, t.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("service.Coordinator.Export: trip %s: %w", t.ID, err)
		}

		base := domain.ExportRow{
			TripID:        t.ID,
			TripTitle:     t.Title,
			TripRating:    t.Rating,
			TripStartDate: domain.FormatDate(t.StartDate),
			TripEndDate:   domain.FormatDate(t.EndDate),
		}
		if len(markers) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, m := range markers {
			row := base
			loc := m.Location
			row.MarkerID = m.ID
			row.MarkerTitle = m.Title
			row.Location = &loc
			row.MarkerDate = domain.FormatDate(m.TripDate)
			row.MarkerNotes = m.Description
			rows = append(rows, row)
		}
	}
	return rows, nil
}
