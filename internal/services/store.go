package services

import (
	"context"

	"recall-backend/internal/models"
	"recall-backend/internal/repository"
)

// RepositoryStore implements ContentStore and QuizStore on top of the
// Postgres repositories. Constructed once and injected; nothing in this
// package reaches for a shared client.
type RepositoryStore struct {
	friends   *repository.FriendRepository
	events    *repository.EventRepository
	relations *repository.RelationRepository
	content   *repository.ContentRepository
}

// NewRepositoryStore creates a new repository-backed store
func NewRepositoryStore(
	friends *repository.FriendRepository,
	events *repository.EventRepository,
	relations *repository.RelationRepository,
	content *repository.ContentRepository,
) *RepositoryStore {
	return &RepositoryStore{
		friends:   friends,
		events:    events,
		relations: relations,
		content:   content,
	}
}

// CreateFriend persists a new friend
func (s *RepositoryStore) CreateFriend(ctx context.Context, friend *models.Friend) error {
	return s.friends.Create(ctx, friend)
}

// CreateUserFriend records the user-friend relation
func (s *RepositoryStore) CreateUserFriend(ctx context.Context, id, userID, friendID string) error {
	return s.relations.CreateUserFriend(ctx, id, userID, friendID)
}

// CreateEvent persists a new event
func (s *RepositoryStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return s.events.Create(ctx, event)
}

// CreateUserEvent records the user-event relation
func (s *RepositoryStore) CreateUserEvent(ctx context.Context, id, userID, eventID string) error {
	return s.relations.CreateUserEvent(ctx, id, userID, eventID)
}

// UpsertLink creates or finds the user-friend-event link
func (s *RepositoryStore) UpsertLink(ctx context.Context, link *models.UserFriendEvent) (string, error) {
	return s.relations.UpsertLink(ctx, link)
}

// BulkCreateContent persists content blocks in one call
func (s *RepositoryStore) BulkCreateContent(ctx context.Context, blocks []*models.ContentBlock) ([]*models.ContentBlock, error) {
	return s.content.BulkCreate(ctx, blocks)
}

// ListEventsByUserAndFriend lists the events a user shares with a friend
func (s *RepositoryStore) ListEventsByUserAndFriend(ctx context.Context, userID, friendID string) ([]*models.Event, error) {
	return s.events.ListByUserAndFriend(ctx, userID, friendID)
}

// ListFriendsByUser lists a user's friends with derived stats
func (s *RepositoryStore) ListFriendsByUser(ctx context.Context, userID string) ([]*models.FriendWithStats, error) {
	return s.friends.ListByUser(ctx, userID)
}

// CountSharedEvents counts the events a user shares with a friend
func (s *RepositoryStore) CountSharedEvents(ctx context.Context, userID, friendID string) (int, error) {
	return s.events.CountByUserAndFriend(ctx, userID, friendID)
}
