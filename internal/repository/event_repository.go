package repository

import (
	"context"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, limit, offset int) ([]domain.Event, error)
	Update(ctx context.Context, id int64, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `id, title, description, location, date, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error) {
	const q = `
		INSERT INTO events (title, description, location, date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanEvent(r.pool.QueryRow(ctx, q, req.Title, req.Description, req.Location, req.Date, userID))
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + eventCols + `
		FROM events
		ORDER BY date ASC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id int64, patch domain.EventPatch) (*domain.Event, error) {
	const q = `
		UPDATE events
		SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			location = COALESCE($4, location),
			date = COALESCE($5, date),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Location, patch.Date))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM events WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}
