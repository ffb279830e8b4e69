package repo

import (
	"fmt"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
)

// The record types below mirror the JSON stored under each key. Ids and
// ratings use the Wire types because older app versions wrote them as
// numbers.

type markerRecord struct {
	ID          domain.WireID `json:"marker_id"`
	Title       string        `json:"marker_title"`
	Description string        `json:"marker_description"`
	XPos        float64       `json:"x_pos"` // latitude
	YPos        float64       `json:"y_pos"` // longitude
	TripDate    string        `json:"trip_date"`
}

func markerToRecord(m domain.Marker) markerRecord {
	return markerRecord{
		ID:          domain.WireID(m.ID),
		Title:       m.Title,
		Description: m.Description,
		XPos:        m.Location.Latitude,
		YPos:        m.Location.Longitude,
		TripDate:    domain.FormatDate(m.TripDate),
	}
}

func (r markerRecord) toDomain() (domain.Marker, error) {
	if strings.TrimSpace(string(r.ID)) == "" {
		return domain.Marker{}, fmt.Errorf("%w: marker without id", domain.ErrValidation)
	}
	loc := domain.GeoPoint{Latitude: r.XPos, Longitude: r.YPos}
	if !loc.Valid() {
		return domain.Marker{}, fmt.Errorf("%w: marker %s has invalid location", domain.ErrValidation, r.ID)
	}
	date, err := domain.ParseDate(r.TripDate)
	if err != nil {
		return domain.Marker{}, err
	}
	return domain.Marker{
		ID:          string(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Location:    loc,
		TripDate:    date,
	}, nil
}

type tripData struct {
	Title       string         `json:"trip_title"`
	Description string         `json:"trip_description"`
	Rating      domain.WireInt `json:"rating"`
	Visibility  string         `json:"visibility"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date,omitempty"`
}

type tripInfoRecord struct {
	ID   domain.WireID `json:"trip_id"`
	Data tripData      `json:"tripData"`
}

func tripToRecord(t domain.Trip) tripInfoRecord {
	return tripInfoRecord{
		ID: domain.WireID(t.ID),
		Data: tripData{
			Title:       t.Title,
			Description: t.Description,
			Rating:      domain.WireInt(t.Rating),
			Visibility:  string(t.Visibility),
			StartDate:   domain.FormatDate(t.StartDate),
			EndDate:     domain.FormatDate(t.EndDate),
		},
	}
}

func (r tripInfoRecord) toDomain() (domain.Trip, error) {
	if strings.TrimSpace(string(r.ID)) == "" {
		return domain.Trip{}, fmt.Errorf("%w: trip without id", domain.ErrValidation)
	}
	t := domain.Trip{
		ID:          string(r.ID),
		Title:       r.Data.Title,
		Description: r.Data.Description,
		Rating:      int(r.Data.Rating),
		Visibility:  domain.Visibility(r.Data.Visibility),
	}
	var err error
	if r.Data.StartDate != "" {
		if t.StartDate, err = domain.ParseDate(r.Data.StartDate); err != nil {
			return domain.Trip{}, err
		}
	}
	// Records written before end dates were tracked only have a start date.
	t.EndDate = t.StartDate
	if r.Data.EndDate != "" {
		if t.EndDate, err = domain.ParseDate(r.Data.EndDate); err != nil {
			return domain.Trip{}, err
		}
	}
	return t, nil
}

type photoRecord struct {
	URI string `json:"uri"`
}

type tripImagesRecord struct {
	TripID domain.WireID `json:"trip_id"`
	Photos []photoRecord `json:"photos"`
}

type tripMarkersRecord struct {
	TripID    domain.WireID   `json:"trip_id"`
	MarkerIDs []domain.WireID `json:"markerIds"`
}
