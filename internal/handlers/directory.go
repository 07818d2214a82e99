package handlers

import (
	"encoding/json"
	"net/http"

	"recall-backend/internal/middleware"
	"recall-backend/internal/models"
	"recall-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// DirectoryHandler handles friend, event, link and content resources
type DirectoryHandler struct {
	directory *services.DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListFriends handles GET /api/v1/friends
func (h *DirectoryHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	friends, err := h.directory.ListFriends(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondServiceError(w, err)
		return
	}
	if friends == nil {
		friends = []*models.FriendWithStats{}
	}
	respondJSON(w, http.StatusOK, friends)
}

// CreateFriendRequest represents the request body for creating a friend
type CreateFriendRequest struct {
	Name string `json:"name"`
}

// CreateFriend handles POST /api/v1/friends
func (h *DirectoryHandler) CreateFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	friend, err := h.directory.CreateFriend(ctx, userID, req.Name)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create friend")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("friend_id", friend.ID).Msg("Friend created")
	respondJSON(w, http.StatusCreated, friend)
}

// ListEvents handles GET /api/v1/events
func (h *DirectoryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.directory.ListEvents(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list events")
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	respondJSON(w, http.StatusOK, events)
}

// ListEventsByFriend handles GET /api/v1/friends/{friend_id}/events
func (h *DirectoryHandler) ListEventsByFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendID := chi.URLParam(r, "friend_id")

	events, err := h.directory.ListEventsByFriend(ctx, userID, friendID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("friend_id", friendID).Msg("Failed to list events by friend")
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	respondJSON(w, http.StatusOK, events)
}

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	Name string `json:"name"`
}

// CreateEvent handles POST /api/v1/events
func (h *DirectoryHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.directory.CreateEvent(ctx, userID, req.Name)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create event")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("event_id", event.ID).Msg("Event created")
	respondJSON(w, http.StatusCreated, event)
}

// UpsertLinkRequest represents the request body for creating a link
type UpsertLinkRequest struct {
	FriendID string `json:"friend_id"`
	EventID  string `json:"event_id"`
}

// UpsertLink handles POST /api/v1/links
func (h *DirectoryHandler) UpsertLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpsertLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	linkID, err := h.directory.UpsertLink(ctx, userID, req.FriendID, req.EventID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upsert link")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": linkID})
}

// GetLink handles GET /api/v1/links?friend_id=...&event_id=...
func (h *DirectoryHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendID := r.URL.Query().Get("friend_id")
	eventID := r.URL.Query().Get("event_id")

	if friendID == "" || eventID == "" {
		respondError(w, "friend_id and event_id are required", http.StatusBadRequest)
		return
	}

	linkID, err := h.directory.GetLinkID(ctx, userID, friendID, eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": linkID})
}

// BulkCreateContentRequest represents the request body for bulk content creation
type BulkCreateContentRequest struct {
	UserFriendEventID string             `json:"user_friend_event_id"`
	Topics            []models.TopicPair `json:"topics"`
}

// BulkCreateContent handles POST /api/v1/content/bulk
func (h *DirectoryHandler) BulkCreateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req BulkCreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.directory.BulkCreateContent(ctx, req.UserFriendEventID, req.Topics)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("link_id", req.UserFriendEventID).Msg("Failed to bulk create content")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("link_id", req.UserFriendEventID).Int("blocks", len(created)).Msg("Content created")
	respondJSON(w, http.StatusCreated, created)
}

// ListContent handles GET /api/v1/content/{link_id}
func (h *DirectoryHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	linkID := chi.URLParam(r, "link_id")

	blocks, err := h.directory.ListContent(ctx, linkID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if blocks == nil {
		blocks = []*models.ContentBlock{}
	}
	respondJSON(w, http.StatusOK, blocks)
}
