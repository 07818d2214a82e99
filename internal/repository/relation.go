package repository

import (
	"context"
	"errors"
	"fmt"

	"recall-backend/internal/database"
	"recall-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// RelationRepository handles the join tables: user_friends, user_events
// and the three-way user_friend_events link
type RelationRepository struct {
	db database.Querier
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(db database.Querier) *RelationRepository {
	return &RelationRepository{db: db}
}

// CreateUserFriend records that a user knows a friend
func (r *RelationRepository) CreateUserFriend(ctx context.Context, id, userID, friendID string) error {
	query := `
		INSERT INTO user_friends (id, user_id, friend_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, id, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to create user-friend relation: %w", err)
	}
	return nil
}

// CreateUserEvent records that a user attended an event
func (r *RelationRepository) CreateUserEvent(ctx context.Context, id, userID, eventID string) error {
	query := `
		INSERT INTO user_events (id, user_id, event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, id, userID, eventID)
	if err != nil {
		return fmt.Errorf("failed to create user-event relation: %w", err)
	}
	return nil
}

// UpsertLink creates the user-friend-event link, or returns the existing
// link's id if one already exists for the triple. Idempotent: calling it
// twice with the same triple yields the same id both times.
func (r *RelationRepository) UpsertLink(ctx context.Context, link *models.UserFriendEvent) (string, error) {
	query := `
		INSERT INTO user_friend_events (id, user_id, friend_id, event_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, friend_id, event_id)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query, link.ID, link.UserID, link.FriendID, link.EventID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert link: %w", err)
	}
	return id, nil
}

// GetLinkID retrieves the link id for a (user, friend, event) triple
func (r *RelationRepository) GetLinkID(ctx context.Context, userID, friendID, eventID string) (string, error) {
	query := `
		SELECT id
		FROM user_friend_events
		WHERE user_id = $1 AND friend_id = $2 AND event_id = $3
	`
	var id string
	err := r.db.QueryRow(ctx, query, userID, friendID, eventID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("link for (%s, %s, %s): %w", userID, friendID, eventID, database.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get link: %w", err)
	}
	return id, nil
}

// ListLinkIDsByUserAndFriend retrieves every link id a user shares with a
// friend, across all events. Input to quiz content gathering.
func (r *RelationRepository) ListLinkIDsByUserAndFriend(ctx context.Context, userID, friendID string) ([]string, error) {
	query := `
		SELECT id
		FROM user_friend_events
		WHERE user_id = $1 AND friend_id = $2
	`
	rows, err := r.db.Query(ctx, query, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	return ids, nil
}
