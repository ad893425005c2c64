// Package repo contains all database access logic for the travel planner.
// The Trip aggregate is stored across trips, trip_members, trip_days,
// activities and transits and is always loaded and saved as a whole.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test;
// Begin on a pgx.Tx opens a savepoint, so Save still runs atomically there.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo persists Trip aggregates.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// FindByID loads the full aggregate. Returns domain.ErrNotFound if no trip
	// with that ID exists.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)

	// Save inserts a new trip (Version 0) or replaces the stored tree of an
	// existing one. The stored version must equal trip.Version(), otherwise
	// domain.ErrConcurrentModification is returned. On success the trip's
	// version is advanced.
	Save(ctx context.Context, trip *domain.Trip) error

	// Delete removes a trip and everything it owns. Returns domain.ErrNotFound
	// if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByMember returns one page of the trips userID belongs to, most
	// recent start date first, and the total count.
	ListByMember(ctx context.Context, userID string, p domain.PaginationParams) ([]*domain.Trip, int64, error)

	// ListPublic returns one page of public trips and the total count.
	ListPublic(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error)

	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, name, description, creator_id, start_date, end_date,
	budget_amount, budget_currency, visibility, status, version, created_at, updated_at`

// FindByID loads a trip row and its children.
func (r *pgTripRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	trip, err := r.load(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindByID: %w", err)
	}
	return trip, nil
}

// Save writes the whole aggregate in one transaction.
func (r *pgTripRepo) Save(ctx context.Context, trip *domain.Trip) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Save: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s := trip.Snapshot()
	next := s.Version + 1
	if err := writeRoot(ctx, tx, s, next); err != nil {
		return fmt.Errorf("repo.TripRepo.Save: %w", err)
	}
	if err := replaceChildren(ctx, tx, s); err != nil {
		return fmt.Errorf("repo.TripRepo.Save: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TripRepo.Save: commit: %w", err)
	}
	trip.SetVersion(next)
	return nil
}

// writeRoot inserts a new trip row or performs the version-checked update.
func writeRoot(ctx context.Context, tx pgx.Tx, s domain.TripSnapshot, next int) error {
	args := pgx.NamedArgs{
		"id":              s.ID,
		"name":            string(s.Name),
		"description":     string(s.Description),
		"creator_id":      s.CreatorID,
		"start_date":      s.Dates.Start(),
		"end_date":        s.Dates.End(),
		"budget_amount":   nullAmount(s.Budget),
		"budget_currency": nullCurrency(s.Budget),
		"visibility":      string(s.Visibility),
		"status":          string(s.Status),
		"version":         s.Version,
		"next_version":    next,
		"created_at":      s.CreatedAt,
		"updated_at":      s.UpdatedAt,
	}

	if s.Version == 0 {
		const q = `
			INSERT INTO trips (` + tripColumns + `)
			VALUES (@id, @name, @description, @creator_id, @start_date, @end_date,
			        @budget_amount, @budget_currency, @visibility, @status, @next_version,
			        @created_at, @updated_at)`
		if _, err := tx.Exec(ctx, q, args); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("insert trip: %w", domain.ErrConcurrentModification)
			}
			return fmt.Errorf("insert trip: %w", err)
		}
		return nil
	}

	const q = `
		UPDATE trips
		SET name            = @name,
		    description     = @description,
		    start_date      = @start_date,
		    end_date        = @end_date,
		    budget_amount   = @budget_amount,
		    budget_currency = @budget_currency,
		    visibility      = @visibility,
		    status          = @status,
		    version         = @next_version,
		    updated_at      = @updated_at
		WHERE id = @id AND version = @version`
	tag, err := tx.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": s.ID}).Scan(&exists); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		if !exists {
			return fmt.Errorf("update trip: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update trip: version %d is stale: %w", s.Version, domain.ErrConcurrentModification)
	}
	return nil
}

// replaceChildren deletes members and days (activities and transits cascade)
// and writes them again from the snapshot.
func replaceChildren(ctx context.Context, tx pgx.Tx, s domain.TripSnapshot) error {
	id := pgx.NamedArgs{"trip_id": s.ID}
	if _, err := tx.Exec(ctx, `DELETE FROM trip_members WHERE trip_id = @trip_id`, id); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM trip_days WHERE trip_id = @trip_id`, id); err != nil {
		return fmt.Errorf("clear days: %w", err)
	}

	b := &pgx.Batch{}
	for _, m := range s.Members {
		b.Queue(`
			INSERT INTO trip_members (trip_id, user_id, role, nickname, joined_at)
			VALUES (@trip_id, @user_id, @role, @nickname, @joined_at)`,
			pgx.NamedArgs{
				"trip_id":   s.ID,
				"user_id":   m.UserID,
				"role":      string(m.Role),
				"nickname":  m.Nickname,
				"joined_at": m.JoinedAt,
			})
	}
	for _, d := range s.Days {
		b.Queue(`
			INSERT INTO trip_days (trip_id, day_number, date, theme, notes)
			VALUES (@trip_id, @day_number, @date, @theme, @notes)`,
			pgx.NamedArgs{
				"trip_id":    s.ID,
				"day_number": d.Number,
				"date":       d.Date,
				"theme":      d.Theme,
				"notes":      d.Notes,
			})
		for pos, a := range d.Activities {
			queueActivity(b, s.ID, d.Number, pos, a)
		}
		for _, t := range d.Transits {
			queueTransit(b, s.ID, d.Number, t)
		}
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("write children: %w", err)
	}
	return nil
}

func queueActivity(b *pgx.Batch, tripID uuid.UUID, day, pos int, a domain.Activity) {
	var lat, lng *float64
	if c := a.Location.Coordinates; c != nil {
		lat, lng = &c.Lat, &c.Lng
	}
	b.Queue(`
		INSERT INTO activities (id, trip_id, day_number, position, name, type,
		                        location_name, address, lat, lng, start_time, end_time,
		                        cost_amount, cost_currency, notes)
		VALUES (@id, @trip_id, @day_number, @position, @name, @type,
		        @location_name, @address, @lat, @lng, @start_time, @end_time,
		        @cost_amount, @cost_currency, @notes)`,
		pgx.NamedArgs{
			"id":            a.ID,
			"trip_id":       tripID,
			"day_number":    day,
			"position":      pos,
			"name":          a.Name,
			"type":          string(a.Type),
			"location_name": a.Location.Name,
			"address":       a.Location.Address,
			"lat":           lat,
			"lng":           lng,
			"start_time":    a.StartTime.Seconds(),
			"end_time":      a.EndTime.Seconds(),
			"cost_amount":   nullAmount(&a.Cost),
			"cost_currency": nullCurrency(&a.Cost),
			"notes":         a.Notes,
		})
}

func queueTransit(b *pgx.Batch, tripID uuid.UUID, day int, t domain.Transit) {
	b.Queue(`
		INSERT INTO transits (id, trip_id, day_number, from_activity_id, to_activity_id, mode,
		                      distance_meters, duration_seconds, polyline, departure_time,
		                      arrival_time, cost_amount, cost_currency, notes)
		VALUES (@id, @trip_id, @day_number, @from_id, @to_id, @mode,
		        @distance, @duration, @polyline, @departure, @arrival,
		        @cost_amount, @cost_currency, @notes)`,
		pgx.NamedArgs{
			"id":            t.ID,
			"trip_id":       tripID,
			"day_number":    day,
			"from_id":       t.FromActivityID,
			"to_id":         t.ToActivityID,
			"mode":          string(t.Mode),
			"distance":      t.Route.DistanceMeters,
			"duration":      t.Route.DurationSeconds,
			"polyline":      t.Route.Polyline,
			"departure":     t.DepartureTime.Seconds(),
			"arrival":       t.ArrivalTime.Seconds(),
			"cost_amount":   nullAmount(&t.Cost),
			"cost_currency": nullCurrency(&t.Cost),
			"notes":         t.Notes,
		})
}

// Delete removes a trip by primary key. Children go with it via ON DELETE CASCADE.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": id}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.TripRepo.Exists: %w", err)
	}
	return exists, nil
}

// ListByMember pages over the trips a user is a member of.
func (r *pgTripRepo) ListByMember(ctx context.Context, userID string, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	const where = `id IN (SELECT trip_id FROM trip_members WHERE user_id = @user_id)`
	trips, total, err := r.listPage(ctx, where, pgx.NamedArgs{"user_id": userID}, p)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByMember: %w", err)
	}
	return trips, total, nil
}

// ListPublic pages over trips with public visibility.
func (r *pgTripRepo) ListPublic(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	const where = `visibility = @visibility`
	trips, total, err := r.listPage(ctx, where, pgx.NamedArgs{"visibility": string(domain.VisibilityPublic)}, p)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPublic: %w", err)
	}
	return trips, total, nil
}

// listPage counts matching trips, selects one page of ids and loads each
// aggregate. Always returns a non-nil slice.
func (r *pgTripRepo) listPage(ctx context.Context, where string, args pgx.NamedArgs, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips WHERE `+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	pageArgs := pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()}
	for k, v := range args {
		pageArgs[k] = v
	}
	rows, err := r.db.Query(ctx, `
		SELECT id FROM trips
		WHERE `+where+`
		ORDER BY start_date DESC, created_at DESC, id
		LIMIT @limit OFFSET @offset`, pageArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("page: %w", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id pgtype.UUID
		err := row.Scan(&id)
		return uuid.UUID(id.Bytes), err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("page: scan: %w", err)
	}

	trips := make([]*domain.Trip, 0, len(ids))
	for _, id := range ids {
		t, err := r.load(ctx, r.db, id)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, t)
	}
	return trips, total, nil
}

// querier is what load needs; both db and pgx.Tx satisfy it.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *pgTripRepo) load(ctx context.Context, q querier, id uuid.UUID) (*domain.Trip, error) {
	s, err := scanTrip(q.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = @id`, pgx.NamedArgs{"id": id}))
	if err != nil {
		return nil, err
	}
	args := pgx.NamedArgs{"trip_id": id}

	if s.Members, err = queryAll(ctx, q, `
		SELECT user_id, role, nickname, joined_at
		FROM trip_members WHERE trip_id = @trip_id
		ORDER BY joined_at, user_id`, args, scanMember); err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	if s.Days, err = queryAll(ctx, q, `
		SELECT day_number, date, theme, notes
		FROM trip_days WHERE trip_id = @trip_id
		ORDER BY day_number`, args, scanDay); err != nil {
		return nil, fmt.Errorf("days: %w", err)
	}

	byNumber := make(map[int]*domain.TripDaySnapshot, len(s.Days))
	for i := range s.Days {
		byNumber[s.Days[i].Number] = &s.Days[i]
	}

	type dayActivity struct {
		day int
		a   domain.Activity
	}
	acts, err := queryAll(ctx, q, `
		SELECT day_number, id, name, type, location_name, address, lat, lng,
		       start_time, end_time, cost_amount, cost_currency, notes
		FROM activities WHERE trip_id = @trip_id
		ORDER BY day_number, position`, args, func(row scanner) (dayActivity, error) {
		var da dayActivity
		a, err := scanActivity(row, &da.day)
		da.a = a
		return da, err
	})
	if err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	for _, da := range acts {
		if d, ok := byNumber[da.day]; ok {
			d.Activities = append(d.Activities, da.a)
		}
	}

	type dayTransit struct {
		day int
		t   domain.Transit
	}
	legs, err := queryAll(ctx, q, `
		SELECT day_number, id, from_activity_id, to_activity_id, mode, distance_meters,
		       duration_seconds, polyline, departure_time, arrival_time,
		       cost_amount, cost_currency, notes
		FROM transits WHERE trip_id = @trip_id
		ORDER BY day_number, departure_time`, args, func(row scanner) (dayTransit, error) {
		var dt dayTransit
		t, err := scanTransit(row, &dt.day)
		dt.t = t
		return dt, err
	})
	if err != nil {
		return nil, fmt.Errorf("transits: %w", err)
	}
	for _, dt := range legs {
		if d, ok := byNumber[dt.day]; ok {
			d.Transits = append(d.Transits, dt.t)
		}
	}

	return domain.ReconstituteTrip(s), nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanTrip maps a trips row into a snapshot without children.
func scanTrip(s scanner) (domain.TripSnapshot, error) {
	var (
		t          domain.TripSnapshot
		id         pgtype.UUID
		name, desc string
		start, end pgtype.Date
		amount     decimal.NullDecimal
		currency   *string
		visibility string
		status     string
	)
	err := s.Scan(&id, &name, &desc, &t.CreatorID, &start, &end,
		&amount, &currency, &visibility, &status, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripSnapshot{}, domain.ErrNotFound
		}
		return domain.TripSnapshot{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Name = domain.TripName(name)
	t.Description = domain.TripDescription(desc)
	t.Visibility = domain.TripVisibility(visibility)
	t.Status = domain.TripStatus(status)
	if t.Dates, err = domain.NewDateRange(start.Time, end.Time); err != nil {
		return domain.TripSnapshot{}, err
	}
	if amount.Valid && currency != nil {
		budget, err := domain.NewMoney(amount.Decimal, *currency)
		if err != nil {
			return domain.TripSnapshot{}, err
		}
		t.Budget = &budget
	}
	return t, nil
}

func scanMember(s scanner) (domain.TripMember, error) {
	var (
		m    domain.TripMember
		role string
	)
	if err := s.Scan(&m.UserID, &role, &m.Nickname, &m.JoinedAt); err != nil {
		return domain.TripMember{}, err
	}
	m.Role = domain.MemberRole(role)
	return m, nil
}

func scanDay(s scanner) (domain.TripDaySnapshot, error) {
	var (
		d    domain.TripDaySnapshot
		date pgtype.Date
	)
	if err := s.Scan(&d.Number, &date, &d.Theme, &d.Notes); err != nil {
		return domain.TripDaySnapshot{}, err
	}
	d.Date = date.Time
	return d, nil
}

func scanActivity(s scanner, day *int) (domain.Activity, error) {
	var (
		a          domain.Activity
		id         pgtype.UUID
		typ        string
		lat, lng   *float64
		start, end int
		amount     decimal.NullDecimal
		currency   *string
	)
	err := s.Scan(day, &id, &a.Name, &typ, &a.Location.Name, &a.Location.Address, &lat, &lng,
		&start, &end, &amount, &currency, &a.Notes)
	if err != nil {
		return domain.Activity{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	a.Type = domain.ActivityType(typ)
	if lat != nil && lng != nil {
		a.Location.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	a.StartTime = domain.TimeOfDay(start)
	a.EndTime = domain.TimeOfDay(end)
	if a.Cost, err = money(amount, currency); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

func scanTransit(s scanner, day *int) (domain.Transit, error) {
	var (
		t                  domain.Transit
		id, from, to       pgtype.UUID
		mode               string
		departure, arrival int
		amount             decimal.NullDecimal
		currency           *string
	)
	err := s.Scan(day, &id, &from, &to, &mode, &t.Route.DistanceMeters, &t.Route.DurationSeconds,
		&t.Route.Polyline, &departure, &arrival, &amount, &currency, &t.Notes)
	if err != nil {
		return domain.Transit{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	t.FromActivityID = uuid.UUID(from.Bytes)
	t.ToActivityID = uuid.UUID(to.Bytes)
	t.Mode = domain.TransportMode(mode)
	t.DepartureTime = domain.TimeOfDay(departure)
	t.ArrivalTime = domain.TimeOfDay(arrival)
	if t.Cost, err = money(amount, currency); err != nil {
		return domain.Transit{}, err
	}
	return t, nil
}

// money rebuilds an optional amount. NULL is the unset Money.
func money(amount decimal.NullDecimal, currency *string) (domain.Money, error) {
	if !amount.Valid || currency == nil {
		return domain.Money{}, nil
	}
	return domain.NewMoney(amount.Decimal, *currency)
}

func nullAmount(m *domain.Money) decimal.NullDecimal {
	if m == nil || m.IsUnset() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: m.Amount(), Valid: true}
}

func nullCurrency(m *domain.Money) *string {
	if m == nil || m.IsUnset() {
		return nil
	}
	c := m.Currency()
	return &c
}
