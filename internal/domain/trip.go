// Package domain contains the core data types for the travel diary map core.
// This package has zero external dependencies and is imported by every other
// internal package (geo, repo, api, service, viewport, handler).
package domain

import (
	"fmt"
	"time"
)

// Visibility controls who can see a trip on the backend.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFriends:
		return true
	}
	return false
}

// Trip groups markers into a dated journey.
// StartDate and EndDate are never entered by the user: they are the earliest
// and latest TripDate of the markers attached to the trip.
type Trip struct {
	ID          string     `json:"trip_id"`
	Title       string     `json:"trip_title"`
	Description string     `json:"trip_description"`
	Rating      int        `json:"rating"` // 1..5
	Visibility  Visibility `json:"visibility"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
}

// TripMarkerLink associates a trip with the markers it contains.
// It is stored apart from both entities so one marker can belong to several
// trips without being duplicated.
type TripMarkerLink struct {
	TripID    string   `json:"trip_id"`
	MarkerIDs []string `json:"markerIds"`
}

// TripImageSet is the local-only list of photo URIs attached to a trip.
type TripImageSet struct {
	TripID string   `json:"trip_id"`
	Images []string `json:"images"`
}

// TripDateRange returns the earliest and latest TripDate across markers.
// A single marker yields start == end. An empty slice is a validation error
// because a trip must reference at least one marker.
func TripDateRange(markers []Marker) (start, end time.Time, err error) {
	if len(markers) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: a trip needs at least one marker", ErrValidation)
	}
	start, end = markers[0].TripDate, markers[0].TripDate
	for _, m := range markers[1:] {
		if m.TripDate.Before(start) {
			start = m.TripDate
		}
		if m.TripDate.After(end) {
			end = m.TripDate
		}
	}
	return start, end, nil
}
