package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pkordes/travel-diary/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "trip_rating", "trip_start_date", "trip_end_date",
	"marker_id", "marker_title", "latitude", "longitude", "marker_date", "marker_notes",
}

// ExportRow is the JSON shape of one export row.
// Marker fields are omitted for trips without markers.
type ExportRow struct {
	TripID        string           `json:"trip_id"`
	TripTitle     string           `json:"trip_title"`
	TripRating    int              `json:"trip_rating"`
	TripStartDate string           `json:"trip_start_date"`
	TripEndDate   string           `json:"trip_end_date"`
	MarkerID      string           `json:"marker_id,omitempty"`
	MarkerTitle   string           `json:"marker_title,omitempty"`
	Location      *domain.GeoPoint `json:"location,omitempty"`
	MarkerDate    string           `json:"marker_date,omitempty"`
	MarkerNotes   string           `json:"marker_notes,omitempty"`
}

// GetExport handles GET /export.
// It returns every trip with its markers as a flat table.
// Use ?format=csv or ?format=geojson; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "csv", "geojson":
	default:
		s.writeError(w, r, fmt.Errorf("%w: format must be json, csv or geojson", domain.ErrValidation))
		return
	}

	rows, err := s.coord.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case "csv":
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="travel-diary.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	case "geojson":
		body, err := buildGeoJSON(rows).MarshalJSON()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		out := make([]ExportRow, len(rows))
		for i, row := range rows {
			out[i] = ExportRow(row)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// buildCSV encodes domain rows as CSV, one line per trip marker.
func buildCSV(rows []domain.ExportRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // writes to a bytes.Buffer cannot fail
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return buf.Bytes()
}

func rowToCSVRecord(r domain.ExportRow) []string {
	var lat, lon string
	if r.Location != nil {
		lat = strconv.FormatFloat(r.Location.Latitude, 'f', -1, 64)
		lon = strconv.FormatFloat(r.Location.Longitude, 'f', -1, 64)
	}
	return []string{
		r.TripID,
		r.TripTitle,
		strconv.Itoa(r.TripRating),
		r.TripStartDate,
		r.TripEndDate,
		r.MarkerID,
		r.MarkerTitle,
		lat,
		lon,
		r.MarkerDate,
		r.MarkerNotes,
	}
}

// buildGeoJSON returns one point feature per located row. Rows without a
// marker have no geometry and are left out.
func buildGeoJSON(rows []domain.ExportRow) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		if r.Location == nil {
			continue
		}
		f := geojson.NewFeature(orb.Point{r.Location.Longitude, r.Location.Latitude})
		f.ID = r.MarkerID
		f.Properties["trip_id"] = r.TripID
		f.Properties["trip_title"] = r.TripTitle
		f.Properties["marker_title"] = r.MarkerTitle
		f.Properties["marker_date"] = r.MarkerDate
		fc.Append(f)
	}
	return fc
}
