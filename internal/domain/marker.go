package domain

import "time"

// Marker is a geolocated diary entry placed by the user on the map.
// ID is either a server-issued numeric string or, for markers created while
// offline, a client-generated millisecond timestamp (a provisional id).
// Markers are never edited in place; they are created and deleted.
type Marker struct {
	ID          string    `json:"marker_id"`
	Title       string    `json:"marker_title"`
	Description string    `json:"marker_description"`
	Location    GeoPoint  `json:"location"`
	TripDate    time.Time `json:"trip_date"`
}
