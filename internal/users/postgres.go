package users

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/example/trip-sharing/internal/models"
)

type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) GetUserName(ctx context.Context, userID string) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id=$1`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (d *PostgresDirectory) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(avatar_url,''), COALESCE(phone,''), COALESCE(push_token,''), COALESCE(rating,0), COALESCE(trip_count,0)
		 FROM users WHERE id=$1`, userID).
		Scan(&p.ID, &p.Name, &p.AvatarURL, &p.Phone, &p.PushToken, &p.Rating, &p.TripCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}
