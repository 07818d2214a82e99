package repository

import (
	"context"
	"errors"
	"fmt"

	"recall-backend/internal/database"
	"recall-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db database.Querier
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Querier) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, name, date, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, event.ID, event.Name, event.Date, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, name, date, created_at
		FROM events
		WHERE id = $1
	`
	var event models.Event
	err := r.db.QueryRow(ctx, query, id).Scan(&event.ID, &event.Name, &event.Date, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// ListByUser retrieves all events linked to a user
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	query := `
		SELECT e.id, e.name, e.date, e.created_at
		FROM events e
		JOIN user_events ue ON ue.event_id = e.id
		WHERE ue.user_id = $1
		ORDER BY e.date DESC
	`
	return r.list(ctx, query, userID)
}

// ListByUserAndFriend retrieves the events a user shares with a friend
func (r *EventRepository) ListByUserAndFriend(ctx context.Context, userID, friendID string) ([]*models.Event, error) {
	query := `
		SELECT e.id, e.name, e.date, e.created_at
		FROM events e
		JOIN user_friend_events ufe ON ufe.event_id = e.id
		WHERE ufe.user_id = $1 AND ufe.friend_id = $2
		ORDER BY e.date DESC
	`
	return r.list(ctx, query, userID, friendID)
}

// CountByUserAndFriend counts the events a user shares with a friend.
// Input to the quiz eligibility gate.
func (r *EventRepository) CountByUserAndFriend(ctx context.Context, userID, friendID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_friend_events
		WHERE user_id = $1 AND friend_id = $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, userID, friendID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count shared events: %w", err)
	}
	return count, nil
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}
