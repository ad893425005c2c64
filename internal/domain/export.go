package domain

import "time"

// ExportRow is a single row in a trip's itinerary export.
// It is a flat, denormalized view: one row per activity, with trip and day
// fields repeated on every row. Days without activities yield one row with
// zero values for the activity and leg fields.
//
// The Leg fields describe the stored transit from this activity to the next
// one of the same day, when there is one.
type ExportRow struct {
	// Trip fields, repeated on every row.
	TripID   string
	TripName string
	Status   TripStatus

	// Day fields.
	DayNumber int
	Date      string // "2006-01-02"
	Theme     string

	// Activity fields, zero when the day is empty.
	ActivityName string
	ActivityType ActivityType
	Location     string
	StartTime    string // "15:04"
	EndTime      string
	Cost         Money

	// Leg to the next activity.
	LegMode           TransportMode
	LegDistanceMeters float64
	LegDurationMins   int
}

// ExportRows flattens the itinerary in day and start-time order.
func (t *Trip) ExportRows() []ExportRow {
	var rows []ExportRow
	for _, d := range t.days {
		base := ExportRow{
			TripID:    t.id.String(),
			TripName:  string(t.name),
			Status:    t.status,
			DayNumber: d.number,
			Date:      d.date.Format(time.DateOnly),
			Theme:     d.theme,
		}
		if len(d.activities) == 0 {
			rows = append(rows, base)
			continue
		}
		for i, a := range d.activities {
			row := base
			row.ActivityName = a.Name
			row.ActivityType = a.Type
			row.Location = a.Location.Name
			row.StartTime = a.StartTime.String()
			row.EndTime = a.EndTime.String()
			row.Cost = a.Cost
			if i+1 < len(d.activities) {
				if leg, ok := d.TransitBetween(a.ID, d.activities[i+1].ID); ok {
					row.LegMode = leg.Mode
					row.LegDistanceMeters = leg.Route.DistanceMeters
					row.LegDurationMins = leg.Route.DurationMinutes()
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
