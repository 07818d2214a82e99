package repository

import (
	"context"
	"errors"
	"fmt"

	"recall-backend/internal/database"
	"recall-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// FriendRepository handles database operations for friends
type FriendRepository struct {
	db database.Querier
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db database.Querier) *FriendRepository {
	return &FriendRepository{db: db}
}

// Create creates a new friend
func (r *FriendRepository) Create(ctx context.Context, friend *models.Friend) error {
	query := `
		INSERT INTO friends (id, display_name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.Exec(ctx, query, friend.ID, friend.DisplayName, friend.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create friend: %w", err)
	}
	return nil
}

// GetByID retrieves a friend by ID
func (r *FriendRepository) GetByID(ctx context.Context, id string) (*models.Friend, error) {
	query := `
		SELECT id, display_name, created_at
		FROM friends
		WHERE id = $1
	`
	var friend models.Friend
	err := r.db.QueryRow(ctx, query, id).Scan(&friend.ID, &friend.DisplayName, &friend.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}
	return &friend, nil
}

// ListByUser retrieves a user's friends together with stats derived from
// the link table: number of linked events and the most recent event date.
func (r *FriendRepository) ListByUser(ctx context.Context, userID string) ([]*models.FriendWithStats, error) {
	query := `
		SELECT f.id, f.display_name, f.created_at,
		       COUNT(ufe.id) AS event_count,
		       MAX(e.date) AS last_event_date
		FROM friends f
		JOIN user_friends uf ON uf.friend_id = f.id
		LEFT JOIN user_friend_events ufe ON ufe.friend_id = f.id AND ufe.user_id = uf.user_id
		LEFT JOIN events e ON e.id = ufe.event_id
		WHERE uf.user_id = $1
		GROUP BY f.id, f.display_name, f.created_at
		ORDER BY f.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.FriendWithStats
	for rows.Next() {
		var f models.FriendWithStats
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.CreatedAt, &f.EventCount, &f.LastEventDate); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read friends: %w", err)
	}
	return friends, nil
}

// ListByUserAndEvent retrieves the friends linked to a given event for a user
func (r *FriendRepository) ListByUserAndEvent(ctx context.Context, userID, eventID string) ([]*models.Friend, error) {
	query := `
		SELECT f.id, f.display_name, f.created_at
		FROM friends f
		JOIN user_friend_events ufe ON ufe.friend_id = f.id
		WHERE ufe.user_id = $1 AND ufe.event_id = $2
		ORDER BY f.display_name
	`
	rows, err := r.db.Query(ctx, query, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends by event: %w", err)
	}
	defer rows.Close()

	var friends []*models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read friends: %w", err)
	}
	return friends, nil
}
