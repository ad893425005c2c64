package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/service"
)

// ---- money & location -------------------------------------------------------

// Money is an amount with its ISO currency. Amount is encoded as a string
// to keep decimal precision; requests may send a number or a string.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

func moneyToResponse(m domain.Money) *Money {
	if m.IsUnset() {
		return nil
	}
	return &Money{Amount: m.Amount(), Currency: m.Currency()}
}

func (s *Server) moneyFromRequest(m *Money) (domain.Money, error) {
	if m == nil {
		return domain.Money{}, nil
	}
	currency := m.Currency
	if currency == "" {
		currency = s.currency
	}
	return domain.NewMoney(m.Amount, currency)
}

type Location struct {
	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

func locationToResponse(l domain.Location) Location {
	out := Location{Name: l.Name, Address: l.Address}
	if l.Coordinates != nil {
		lat, lng := l.Coordinates.Lat, l.Coordinates.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}

func (l Location) toDomain() (domain.Location, error) {
	if (l.Lat == nil) != (l.Lng == nil) {
		return domain.Location{}, fmt.Errorf("%w: lat and lng must be given together", domain.ErrValidation)
	}
	return domain.NewLocation(l.Name, l.Lat, l.Lng, l.Address)
}

// ---- trips ------------------------------------------------------------------

type Member struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Nickname string    `json:"nickname,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

type Activity struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Location        Location  `json:"location"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Cost            *Money    `json:"cost,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

type Transit struct {
	ID              uuid.UUID `json:"id"`
	FromActivityID  uuid.UUID `json:"from_activity_id"`
	ToActivityID    uuid.UUID `json:"to_activity_id"`
	Mode            string    `json:"mode"`
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds"`
	Polyline        string    `json:"polyline,omitempty"`
	DepartureTime   string    `json:"departure_time"`
	ArrivalTime     string    `json:"arrival_time"`
	Cost            *Money    `json:"cost,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

type Day struct {
	Index      int        `json:"index"`
	Number     int        `json:"number"`
	Date       string     `json:"date"`
	Theme      string     `json:"theme,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Activities []Activity `json:"activities"`
	Transits   []Transit  `json:"transits"`
}

// Trip is the full aggregate as returned by single-trip endpoints.
type Trip struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	TotalDays   int       `json:"total_days"`
	Budget      *Money    `json:"budget,omitempty"`
	Visibility  string    `json:"visibility"`
	Status      string    `json:"status"`
	Members     []Member  `json:"members"`
	Days        []Day     `json:"days"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TripSummary is the list representation of a trip.
type TripSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CreatorID   string    `json:"creator_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	TotalDays   int       `json:"total_days"`
	Visibility  string    `json:"visibility"`
	Status      string    `json:"status"`
	MemberCount int       `json:"member_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type TripList struct {
	Data       []TripSummary `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// ItineraryResponse is returned by every itinerary mutation.
type ItineraryResponse struct {
	Trip     Trip                      `json:"trip"`
	Transits []Transit                 `json:"transits"`
	Warnings []domain.ItineraryWarning `json:"warnings"`
}

type Statistics struct {
	TotalDistanceKm         float64    `json:"total_distance_km"`
	TotalPlayTimeMinutes    int        `json:"total_play_time_minutes"`
	TotalTransitTimeMinutes int        `json:"total_transit_time_minutes"`
	TotalPlayTimeHours      float64    `json:"total_play_time_hours"`
	TotalTransitTimeHours   float64    `json:"total_transit_time_hours"`
	ActivityCount           int        `json:"activity_count"`
	LocationCount           int        `json:"location_count"`
	ActivityCost            *Money     `json:"activity_cost,omitempty"`
	TransitCost             *Money     `json:"transit_cost,omitempty"`
	TotalCost               *Money     `json:"total_cost,omitempty"`
	Locations               []Location `json:"locations"`
}

func tripToResponse(t *domain.Trip) Trip {
	members := t.Members()
	days := t.Days()
	out := Trip{
		ID:          t.ID(),
		Name:        string(t.Name()),
		Description: string(t.Description()),
		CreatorID:   t.CreatorID(),
		StartDate:   t.DateRange().Start().Format(time.DateOnly),
		EndDate:     t.DateRange().End().Format(time.DateOnly),
		TotalDays:   t.TotalDays(),
		Visibility:  string(t.Visibility()),
		Status:      string(t.Status()),
		Members:     make([]Member, len(members)),
		Days:        make([]Day, len(days)),
		Version:     t.Version(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
	if b := t.Budget(); b != nil {
		out.Budget = moneyToResponse(*b)
	}
	for i, m := range members {
		out.Members[i] = Member{UserID: m.UserID, Role: string(m.Role), Nickname: m.Nickname, JoinedAt: m.JoinedAt}
	}
	for i, d := range days {
		out.Days[i] = dayToResponse(i, d)
	}
	return out
}

func tripToSummary(t *domain.Trip) TripSummary {
	return TripSummary{
		ID:          t.ID(),
		Name:        string(t.Name()),
		CreatorID:   t.CreatorID(),
		StartDate:   t.DateRange().Start().Format(time.DateOnly),
		EndDate:     t.DateRange().End().Format(time.DateOnly),
		TotalDays:   t.TotalDays(),
		Visibility:  string(t.Visibility()),
		Status:      string(t.Status()),
		MemberCount: t.MemberCount(),
		UpdatedAt:   t.UpdatedAt(),
	}
}

func dayToResponse(index int, d *domain.TripDay) Day {
	activities := d.Activities()
	out := Day{
		Index:      index,
		Number:     d.Number(),
		Date:       d.Date().Format(time.DateOnly),
		Theme:      d.Theme(),
		Notes:      d.Notes(),
		Activities: make([]Activity, len(activities)),
		Transits:   transitsToResponse(d.Transits()),
	}
	for i, a := range activities {
		out.Activities[i] = activityToResponse(a)
	}
	return out
}

func activityToResponse(a domain.Activity) Activity {
	return Activity{
		ID:              a.ID,
		Name:            a.Name,
		Type:            string(a.Type),
		Location:        locationToResponse(a.Location),
		StartTime:       a.StartTime.String(),
		EndTime:         a.EndTime.String(),
		DurationMinutes: a.DurationMinutes(),
		Cost:            moneyToResponse(a.Cost),
		Notes:           a.Notes,
	}
}

func transitsToResponse(ts []domain.Transit) []Transit {
	out := make([]Transit, len(ts))
	for i, t := range ts {
		out[i] = Transit{
			ID:              t.ID,
			FromActivityID:  t.FromActivityID,
			ToActivityID:    t.ToActivityID,
			Mode:            string(t.Mode),
			DistanceMeters:  t.Route.DistanceMeters,
			DurationSeconds: t.Route.DurationSeconds,
			Polyline:        t.Route.Polyline,
			DepartureTime:   t.DepartureTime.String(),
			ArrivalTime:     t.ArrivalTime.String(),
			Cost:            moneyToResponse(t.Cost),
			Notes:           t.Notes,
		}
	}
	return out
}

func itineraryToResponse(c service.ItineraryChange) ItineraryResponse {
	out := ItineraryResponse{
		Trip:     tripToResponse(c.Trip),
		Transits: []Transit{},
		Warnings: []domain.ItineraryWarning{},
	}
	if c.Result != nil {
		out.Transits = transitsToResponse(c.Result.Transits)
		if len(c.Result.Warnings) > 0 {
			out.Warnings = c.Result.Warnings
		}
	}
	return out
}

func statisticsToResponse(st domain.TripStatistics) Statistics {
	unique := st.UniqueLocations()
	out := Statistics{
		TotalDistanceKm:         st.TotalDistanceKm(),
		TotalPlayTimeMinutes:    st.TotalPlayTimeMinutes,
		TotalTransitTimeMinutes: st.TotalTransitTimeMinutes,
		TotalPlayTimeHours:      st.TotalPlayTimeHours(),
		TotalTransitTimeHours:   st.TotalTransitTimeHours(),
		ActivityCount:           st.ActivityCount,
		LocationCount:           len(unique),
		ActivityCost:            moneyToResponse(st.ActivityCost),
		TransitCost:             moneyToResponse(st.TransitCost),
		TotalCost:               moneyToResponse(st.TotalCost),
		Locations:               make([]Location, len(unique)),
	}
	for i, l := range unique {
		out.Locations[i] = locationToResponse(l)
	}
	return out
}

// ---- requests ---------------------------------------------------------------

// ActivityRequest is the body used to create an activity.
type ActivityRequest struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Location  Location `json:"location"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Cost      *Money   `json:"cost"`
	Notes     string   `json:"notes"`
}

func (s *Server) activityFromRequest(req ActivityRequest) (domain.Activity, error) {
	typ, err := domain.ParseActivityType(req.Type)
	if err != nil {
		return domain.Activity{}, err
	}
	loc, err := req.Location.toDomain()
	if err != nil {
		return domain.Activity{}, err
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return domain.Activity{}, err
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return domain.Activity{}, err
	}
	cost, err := s.moneyFromRequest(req.Cost)
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.NewActivity(req.Name, typ, loc, start, end, cost, req.Notes)
}

// ActivityPatchRequest carries the fields to change; absent fields are kept.
type ActivityPatchRequest struct {
	Name      *string   `json:"name"`
	Type      *string   `json:"type"`
	Location  *Location `json:"location"`
	StartTime *string   `json:"start_time"`
	EndTime   *string   `json:"end_time"`
	Cost      *Money    `json:"cost"`
	Notes     *string   `json:"notes"`
}

func (s *Server) patchFromRequest(req ActivityPatchRequest) (domain.ActivityPatch, error) {
	p := domain.ActivityPatch{Name: req.Name, Notes: req.Notes}
	if req.Type != nil {
		typ, err := domain.ParseActivityType(*req.Type)
		if err != nil {
			return domain.ActivityPatch{}, err
		}
		p.Type = &typ
	}
	if req.Location != nil {
		loc, err := req.Location.toDomain()
		if err != nil {
			return domain.ActivityPatch{}, err
		}
		p.Location = &loc
	}
	if req.StartTime != nil {
		t, err := domain.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return domain.ActivityPatch{}, err
		}
		p.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := domain.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			return domain.ActivityPatch{}, err
		}
		p.EndTime = &t
	}
	if req.Cost != nil {
		cost, err := s.moneyFromRequest(req.Cost)
		if err != nil {
			return domain.ActivityPatch{}, err
		}
		p.Cost = &cost
	}
	return p, nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", domain.ErrValidation, field, raw)
	}
	return t, nil
}
