package domain

import "time"

// TripStatistics is a read-only summary computed by Trip.GenerateStatistics.
type TripStatistics struct {
	TotalDistanceMeters     float64
	TotalPlayTimeMinutes    int
	TotalTransitTimeMinutes int
	ActivityCost            Money
	TransitCost             Money
	TotalCost               Money
	ActivityCount           int
	// VisitedLocations has one entry per activity, duplicates included.
	VisitedLocations []Location
}

// GenerateStatistics walks every day once and totals time, distance and cost.
// Costs in different currencies return ErrCurrencyMismatch.
func (t *Trip) GenerateStatistics() (TripStatistics, error) {
	var s TripStatistics
	for _, d := range t.days {
		s.TotalPlayTimeMinutes += d.TotalPlayTime()
		s.TotalDistanceMeters += d.TotalTransitDistance()
		s.TotalTransitTimeMinutes += d.TotalTransitTime()
		s.ActivityCount += len(d.activities)
		for _, a := range d.activities {
			s.VisitedLocations = append(s.VisitedLocations, a.Location.clone())
		}

		ac, err := d.ActivityCost()
		if err != nil {
			return TripStatistics{}, err
		}
		if s.ActivityCost, err = s.ActivityCost.Add(ac); err != nil {
			return TripStatistics{}, err
		}
		tc, err := d.TransitCost()
		if err != nil {
			return TripStatistics{}, err
		}
		if s.TransitCost, err = s.TransitCost.Add(tc); err != nil {
			return TripStatistics{}, err
		}
	}
	total, err := s.ActivityCost.Add(s.TransitCost)
	if err != nil {
		return TripStatistics{}, err
	}
	s.TotalCost = total
	return s, nil
}

// UniqueLocations dedupes VisitedLocations by name and coordinates, keeping
// first-visit order.
func (s TripStatistics) UniqueLocations() []Location {
	var out []Location
	for _, l := range s.VisitedLocations {
		dup := false
		for _, u := range out {
			if u.SamePlace(l) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l.clone())
		}
	}
	return out
}

func (s TripStatistics) TotalDistanceKm() float64 { return s.TotalDistanceMeters / 1000 }

func (s TripStatistics) TotalPlayTimeHours() float64 {
	return float64(s.TotalPlayTimeMinutes) / 60
}

func (s TripStatistics) TotalTransitTimeHours() float64 {
	return float64(s.TotalTransitTimeMinutes) / 60
}

// TotalTime is play time plus transit time.
func (s TripStatistics) TotalTime() time.Duration {
	return time.Duration(s.TotalPlayTimeMinutes+s.TotalTransitTimeMinutes) * time.Minute
}

func (s TripStatistics) LocationCount() int { return len(s.UniqueLocations()) }
