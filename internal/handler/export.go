package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "status", "day", "date", "theme",
	"activity", "type", "location", "start_time", "end_time",
	"cost_amount", "cost_currency",
	"leg_mode", "leg_distance_m", "leg_duration_min",
}

// ExportRow is the JSON form of one itinerary export row.
type ExportRow struct {
	TripID            string  `json:"trip_id"`
	TripName          string  `json:"trip_name"`
	Status            string  `json:"status"`
	Day               int     `json:"day"`
	Date              string  `json:"date"`
	Theme             string  `json:"theme,omitempty"`
	Activity          string  `json:"activity,omitempty"`
	Type              string  `json:"type,omitempty"`
	Location          string  `json:"location,omitempty"`
	StartTime         string  `json:"start_time,omitempty"`
	EndTime           string  `json:"end_time,omitempty"`
	Cost              *Money  `json:"cost,omitempty"`
	LegMode           string  `json:"leg_mode,omitempty"`
	LegDistanceMeters float64 `json:"leg_distance_m,omitempty"`
	LegDurationMins   int     `json:"leg_duration_min,omitempty"`
}

// ExportTrip handles GET /trips/{tripID}/export: the itinerary as a flat
// table, one row per activity.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		s.writeError(w, r, fmt.Errorf("%w: format must be csv or json", domain.ErrValidation))
		return
	}
	rows, err := s.trips.ExportTrip(r.Context(), optionalActor(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "csv" {
		writeCSV(w, id.String(), rows)
		return
	}
	out := make([]ExportRow, len(rows))
	for i, row := range rows {
		out[i] = ExportRow{
			TripID:            row.TripID,
			TripName:          row.TripName,
			Status:            string(row.Status),
			Day:               row.DayNumber,
			Date:              row.Date,
			Theme:             row.Theme,
			Activity:          row.ActivityName,
			Type:              string(row.ActivityType),
			Location:          row.Location,
			StartTime:         row.StartTime,
			EndTime:           row.EndTime,
			Cost:              moneyToResponse(row.Cost),
			LegMode:           string(row.LegMode),
			LegDistanceMeters: row.LegDistanceMeters,
			LegDurationMins:   row.LegDurationMins,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV streams rows as an attachment. Once the header is written a write
// failure can only be logged by the request logger, so errors are dropped.
func writeCSV(w http.ResponseWriter, name string, rows []domain.ExportRow) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.csv"`, name))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(rowToCSVRecord(row))
	}
	cw.Flush()
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Empty days and missing legs are encoded as empty strings.
func rowToCSVRecord(r domain.ExportRow) []string {
	var amount, currency, distance, duration string
	if !r.Cost.IsUnset() {
		amount, currency = r.Cost.Amount().String(), r.Cost.Currency()
	}
	if r.LegMode != "" {
		distance = strconv.FormatFloat(r.LegDistanceMeters, 'f', 0, 64)
		duration = strconv.Itoa(r.LegDurationMins)
	}
	return []string{
		r.TripID,
		r.TripName,
		string(r.Status),
		strconv.Itoa(r.DayNumber),
		r.Date,
		r.Theme,
		r.ActivityName,
		string(r.ActivityType),
		r.Location,
		r.StartTime,
		r.EndTime,
		amount,
		currency,
		string(r.LegMode),
		distance,
		duration,
	}
}
