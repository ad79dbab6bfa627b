package repository

import (
	"context"
	"errors"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RSVPRepository interface {
	Create(ctx context.Context, userID, eventID int64) (*domain.RSVP, error)
	Find(ctx context.Context, userID, eventID int64) (*domain.RSVP, error)
	ListAttendeeEmails(ctx context.Context, eventID int64) ([]string, error)
}

type rsvpRepository struct {
	pool *pgxpool.Pool
}

func NewRSVPRepository(pool *pgxpool.Pool) RSVPRepository {
	return &rsvpRepository{pool: pool}
}

func (r *rsvpRepository) Create(ctx context.Context, userID, eventID int64) (*domain.RSVP, error) {
	const q = `
		INSERT INTO rsvps (user_id, event_id)
		VALUES ($1, $2)
		RETURNING id, user_id, event_id, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rsvp domain.RSVP
	err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(
		&rsvp.ID, &rsvp.UserID, &rsvp.EventID, &rsvp.CreatedAt,
	)
	if err != nil {
		// Unique (user_id, event_id) pair; a concurrent duplicate insert is
		// the same outcome as an existing RSVP.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyRSVPed
		}
		return nil, err
	}

	return &rsvp, nil
}

func (r *rsvpRepository) Find(ctx context.Context, userID, eventID int64) (*domain.RSVP, error) {
	const q = `SELECT id, user_id, event_id, created_at FROM rsvps WHERE user_id = $1 AND event_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rsvp domain.RSVP
	err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(
		&rsvp.ID, &rsvp.UserID, &rsvp.EventID, &rsvp.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *rsvpRepository) ListAttendeeEmails(ctx context.Context, eventID int64) ([]string, error) {
	const q = `
		SELECT u.email
		FROM rsvps r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
