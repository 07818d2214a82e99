package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recall-backend/internal/models"
	"recall-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DirectoryService covers the plain resource operations outside of a
// capture session: listing and creating friends and events, link lookup
// and direct content access.
type DirectoryService struct {
	friends   *repository.FriendRepository
	events    *repository.EventRepository
	relations *repository.RelationRepository
	content   *repository.ContentRepository
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	friends *repository.FriendRepository,
	events *repository.EventRepository,
	relations *repository.RelationRepository,
	content *repository.ContentRepository,
) *DirectoryService {
	return &DirectoryService{
		friends:   friends,
		events:    events,
		relations: relations,
		content:   content,
	}
}

// ListFriends lists a user's friends with derived event stats
func (s *DirectoryService) ListFriends(ctx context.Context, userID string) ([]*models.FriendWithStats, error) {
	return s.friends.ListByUser(ctx, userID)
}

// CreateFriend creates a friend and links it to the user. The relation is
// best-effort: the friend is considered created even if linking fails.
func (s *DirectoryService) CreateFriend(ctx context.Context, userID, name string) (*models.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("friend name is required: %w", ErrValidation)
	}

	friend := &models.Friend{
		ID:          uuid.New().String(),
		DisplayName: name,
		CreatedAt:   time.Now(),
	}
	if err := s.friends.Create(ctx, friend); err != nil {
		return nil, fmt.Errorf("failed to create friend: %w", err)
	}

	if err := s.relations.CreateUserFriend(ctx, uuid.New().String(), userID, friend.ID); err != nil {
		log.Warn().Err(err).Str("friend_id", friend.ID).Msg("Failed to link user to friend")
	}
	return friend, nil
}

// GetFriend retrieves one friend by id
func (s *DirectoryService) GetFriend(ctx context.Context, id string) (*models.Friend, error) {
	return s.friends.GetByID(ctx, id)
}

// GetEvent retrieves one event by id
func (s *DirectoryService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.events.GetByID(ctx, id)
}

// ListEvents lists a user's events
func (s *DirectoryService) ListEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	return s.events.ListByUser(ctx, userID)
}

// ListEventsByFriend lists the events a user shares with one friend
func (s *DirectoryService) ListEventsByFriend(ctx context.Context, userID, friendID string) ([]*models.Event, error) {
	return s.events.ListByUserAndFriend(ctx, userID, friendID)
}

// CreateEvent creates an event dated now and links it to the user
func (s *DirectoryService) CreateEvent(ctx context.Context, userID, name string) (*models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("event name is required: %w", ErrValidation)
	}

	now := time.Now()
	event := &models.Event{
		ID:        uuid.New().String(),
		Name:      name,
		Date:      now,
		CreatedAt: now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := s.relations.CreateUserEvent(ctx, uuid.New().String(), userID, event.ID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to link user to event")
	}
	return event, nil
}

// UpsertLink creates or finds the user-friend-event link for a triple
func (s *DirectoryService) UpsertLink(ctx context.Context, userID, friendID, eventID string) (string, error) {
	if friendID == "" || eventID == "" {
		return "", fmt.Errorf("friend_id and event_id are required: %w", ErrValidation)
	}
	return s.relations.UpsertLink(ctx, &models.UserFriendEvent{
		ID:       uuid.New().String(),
		UserID:   userID,
		FriendID: friendID,
		EventID:  eventID,
	})
}

// GetLinkID looks up the link id for a triple
func (s *DirectoryService) GetLinkID(ctx context.Context, userID, friendID, eventID string) (string, error) {
	return s.relations.GetLinkID(ctx, userID, friendID, eventID)
}

// BulkCreateContent persists non-blank topic pairs under a link. Blank
// pairs are filtered here as well, so a direct API call cannot bypass the
// filtering the capture session performs.
func (s *DirectoryService) BulkCreateContent(ctx context.Context, linkID string, pairs []models.TopicPair) ([]*models.ContentBlock, error) {
	if linkID == "" {
		return nil, ErrMissingLink
	}

	now := time.Now()
	var blocks []*models.ContentBlock
	for _, p := range pairs {
		topic := strings.TrimSpace(p.Topic)
		content := strings.TrimSpace(p.Content)
		if topic == "" || content == "" {
			continue
		}
		blocks = append(blocks, &models.ContentBlock{
			ID:                uuid.New().String(),
			UserFriendEventID: linkID,
			Topic:             topic,
			Content:           content,
			CreatedAt:         now,
		})
	}
	if len(blocks) == 0 {
		return nil, ErrNothingToSave
	}
	return s.content.BulkCreate(ctx, blocks)
}

// ListContent lists the content blocks under a link
func (s *DirectoryService) ListContent(ctx context.Context, linkID string) ([]*models.ContentBlock, error) {
	return s.content.ListByLink(ctx, linkID)
}
