package domain

// ExportRow is a single row in the diary export.
// It is a flat, denormalized view: one row per marker, with trip fields
// repeated for every marker on that trip. Trips whose markers cannot be
// resolved yield one row with zero values for all marker fields.
type ExportRow struct {
	// Trip fields, repeated for every marker on the trip.
	TripID        string
	TripTitle     string
	TripRating    int
	TripStartDate string // "2006-01-02"
	TripEndDate   string // "2006-01-02"

	// Marker fields, zero values when the trip has no markers.
	MarkerID    string
	MarkerTitle string
	Location    *GeoPoint
	MarkerDate  string // "2006-01-02", empty without a marker
	MarkerNotes string
}
