package api

import (
	"github.com/pkordes/travel-diary/internal/domain"
)

// markerDTO is the backend's marker shape. x_pos is latitude, y_pos longitude.
type markerDTO struct {
	ID          domain.WireID `json:"marker_id,omitempty"`
	UserID      string        `json:"user_id,omitempty"`
	Title       string        `json:"marker_title"`
	Description string        `json:"marker_description"`
	XPos        float64       `json:"x_pos"`
	YPos        float64       `json:"y_pos"`
	TripDate    string        `json:"trip_date"`
}

func markerToDTO(m domain.Marker) markerDTO {
	return markerDTO{
		ID:          domain.WireID(m.ID),
		Title:       m.Title,
		Description: m.Description,
		XPos:        m.Location.Latitude,
		YPos:        m.Location.Longitude,
		TripDate:    domain.FormatDate(m.TripDate),
	}
}

func (d markerDTO) toDomain() (domain.Marker, error) {
	m := domain.Marker{
		ID:          string(d.ID),
		Title:       d.Title,
		Description: d.Description,
		Location:    domain.GeoPoint{Latitude: d.XPos, Longitude: d.YPos},
	}
	if d.TripDate != "" {
		t, err := domain.ParseDate(d.TripDate)
		if err != nil {
			return domain.Marker{}, err
		}
		m.TripDate = t
	}
	return m, nil
}

func markersToDomain(ds []markerDTO) ([]domain.Marker, error) {
	out := make([]domain.Marker, 0, len(ds))
	for _, d := range ds {
		m, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

type tripDTO struct {
	ID          domain.WireID  `json:"trip_id,omitempty"`
	Title       string         `json:"trip_title"`
	Description string         `json:"trip_description"`
	Rating      domain.WireInt `json:"rating"`
	Visibility  string         `json:"visibility"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date,omitempty"`
}

func tripToDTO(t domain.Trip) tripDTO {
	return tripDTO{
		ID:          domain.WireID(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Rating:      domain.WireInt(t.Rating),
		Visibility:  string(t.Visibility),
		StartDate:   domain.FormatDate(t.StartDate),
		EndDate:     domain.FormatDate(t.EndDate),
	}
}

func (d tripDTO) toDomain() (domain.Trip, error) {
	t := domain.Trip{
		ID:          string(d.ID),
		Title:       d.Title,
		Description: d.Description,
		Rating:      int(d.Rating),
		Visibility:  domain.Visibility(d.Visibility),
	}
	var err error
	if d.StartDate != "" {
		if t.StartDate, err = domain.ParseDate(d.StartDate); err != nil {
			return domain.Trip{}, err
		}
	}
	t.EndDate = t.StartDate
	if d.EndDate != "" {
		if t.EndDate, err = domain.ParseDate(d.EndDate); err != nil {
			return domain.Trip{}, err
		}
	}
	return t, nil
}
