package trips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/trip-sharing/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing handle so the directory and
// chat store can share the pool.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) Create(ctx context.Context, t *models.Trip) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO trips(id, owner_id, start_lat, start_lon, end_lat, end_lon, start_label, end_label, departure_time, status, created_at, available_for_delivery)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.OwnerID, t.StartPoint.Lat, t.StartPoint.Lon, t.EndPoint.Lat, t.EndPoint.Lon,
		t.StartLabel, t.EndLabel, t.DepartureTime, string(t.Status), t.CreatedAt, t.AvailableForDelivery)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	t, err := p.getTrip(ctx, p.db, id, false)
	if err != nil {
		return nil, err
	}
	if err := p.loadRequests(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Trip, error) {
	rows, err := p.db.QueryContext(ctx, tripSelect+` WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if err := p.loadRequests(ctx, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id string, next models.TripStatus) (*models.Trip, error) {
	if !next.Valid() {
		return nil, ErrBadTransition
	}
	var out *models.Trip
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		t, err := p.getTrip(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(next) {
			return ErrBadTransition
		}
		if _, err := tx.ExecContext(ctx, `UPDATE trips SET status=$1 WHERE id=$2`, string(next), id); err != nil {
			return err
		}
		t.Status = next
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := p.loadRequests(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresStore) SubmitRequest(ctx context.Context, tripID string, req models.MatchRequest) (*models.Trip, error) {
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		t, err := p.getTrip(ctx, tx, tripID, true)
		if err != nil {
			return err
		}
		if t.Status != models.TripActive {
			return ErrTripNotActive
		}
		var open bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM trip_requests WHERE trip_id=$1 AND requester_id=$2 AND status <> 'rejected')`,
			tripID, req.RequesterID).Scan(&open)
		if err != nil {
			return err
		}
		if open {
			return ErrDuplicateRequest
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trip_requests(trip_id, requester_id, pickup_label, destination_label, status, created_at)
			 VALUES($1,$2,$3,$4,$5,$6)`,
			tripID, req.RequesterID, req.PickupLabel, req.DestinationLabel, string(models.RequestPending), req.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, tripID)
}

func (p *PostgresStore) Respond(ctx context.Context, tripID, requesterID string, decision models.RequestStatus) (*models.Trip, *models.MatchRequest, error) {
	if decision != models.RequestAccepted && decision != models.RequestRejected {
		return nil, nil, ErrBadDecision
	}
	var updated models.MatchRequest
	err := p.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := p.getTrip(ctx, tx, tripID, true); err != nil {
			return err
		}
		// latest pending entry for the requester is the one mutated
		row := tx.QueryRowContext(ctx,
			`UPDATE trip_requests SET status=$1
			 WHERE ctid = (SELECT ctid FROM trip_requests
			               WHERE trip_id=$2 AND requester_id=$3 AND status='pending'
			               ORDER BY created_at DESC LIMIT 1)
			 RETURNING requester_id, pickup_label, destination_label, status, created_at`,
			string(decision), tripID, requesterID)
		var status string
		err := row.Scan(&updated.RequesterID, &updated.PickupLabel, &updated.DestinationLabel, &status, &updated.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		updated.Status = models.RequestStatus(status)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	t, err := p.Get(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	return t, &updated, nil
}

func (p *PostgresStore) ExpireDue(ctx context.Context, now time.Time) ([]*models.Trip, error) {
	rows, err := p.db.QueryContext(ctx,
		`UPDATE trips SET status='expired'
		 WHERE status='active' AND departure_time IS NOT NULL AND departure_time < $1
		 RETURNING `+tripColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const tripColumns = `id, owner_id, start_lat, start_lon, end_lat, end_lon, start_label, end_label, departure_time, status, created_at, available_for_delivery`

const tripSelect = `SELECT ` + tripColumns + ` FROM trips`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	var status string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.StartPoint.Lat, &t.StartPoint.Lon, &t.EndPoint.Lat, &t.EndPoint.Lon,
		&t.StartLabel, &t.EndLabel, &t.DepartureTime, &status, &t.CreatedAt, &t.AvailableForDelivery); err != nil {
		return nil, err
	}
	t.Status = models.TripStatus(status)
	return &t, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *PostgresStore) getTrip(ctx context.Context, q queryer, id string, forUpdate bool) (*models.Trip, error) {
	query := tripSelect + ` WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTrip(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *PostgresStore) loadRequests(ctx context.Context, t *models.Trip) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT requester_id, pickup_label, destination_label, status, created_at
		 FROM trip_requests WHERE trip_id=$1 ORDER BY created_at ASC`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r models.MatchRequest
		var status string
		if err := rows.Scan(&r.RequesterID, &r.PickupLabel, &r.DestinationLabel, &status, &r.CreatedAt); err != nil {
			return err
		}
		r.Status = models.RequestStatus(status)
		t.Requests = append(t.Requests, r)
	}
	return rows.Err()
}

func (p *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
