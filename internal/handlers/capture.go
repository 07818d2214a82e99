package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"recall-backend/internal/middleware"
	"recall-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxAudioUploadBytes = 50 << 20 // 50 MB

// CaptureHandler drives capture sessions over HTTP
type CaptureHandler struct {
	capture   *services.CaptureService
	directory *services.DirectoryService
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(capture *services.CaptureService, directory *services.DirectoryService) *CaptureHandler {
	return &CaptureHandler{
		capture:   capture,
		directory: directory,
	}
}

// CreateSession handles POST /api/v1/capture/sessions
func (h *CaptureHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session := h.capture.CreateSession(userID, services.NewIngestRecorder())
	respondJSON(w, http.StatusCreated, session.View())
}

// GetSession handles GET /api/v1/capture/sessions/{session_id}
func (h *CaptureHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// SelectFriendRequest selects an existing friend or creates a new one
type SelectFriendRequest struct {
	FriendID string `json:"friend_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

// SelectFriend handles POST /api/v1/capture/sessions/{session_id}/friend
func (h *CaptureHandler) SelectFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FriendID != "" {
		friend, err := h.directory.GetFriend(ctx, req.FriendID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if err := session.SelectFriend(friend); err != nil {
			respondServiceError(w, err)
			return
		}
	} else {
		if _, err := session.CreateFriend(ctx, req.Name); err != nil {
			log.Error().Err(err).Str("session_id", session.ID).Msg("Failed to create friend in capture session")
			respondServiceError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, session.View())
}

// SelectEventRequest selects an existing event or creates a new one
type SelectEventRequest struct {
	EventID string `json:"event_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// SelectEvent handles POST /api/v1/capture/sessions/{session_id}/event
func (h *CaptureHandler) SelectEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.EventID != "" {
		event, err := h.directory.GetEvent(ctx, req.EventID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if err := session.SelectEvent(event); err != nil {
			respondServiceError(w, err)
			return
		}
	} else {
		if _, err := session.CreateEvent(ctx, req.Name); err != nil {
			log.Error().Err(err).Str("session_id", session.ID).Msg("Failed to create event in capture session")
			respondServiceError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, session.View())
}

// StartRecording handles POST /api/v1/capture/sessions/{session_id}/recording/start
func (h *CaptureHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.StartRecording(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// StopRecording handles POST /api/v1/capture/sessions/{session_id}/recording/stop.
// The finalized device recording arrives as multipart form data and is
// uploaded for transcription before the call returns.
func (h *CaptureHandler) StopRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		respondError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, "audio file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioUploadBytes))
	if err != nil {
		respondError(w, "Failed to read audio", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/m4a"
	}

	if recorder, ok := session.Recorder().(*services.IngestRecorder); ok {
		recorder.Feed(&services.ArtifactRef{
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	if err := session.StopRecording(ctx); err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("Upload failed")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// EditBlocksRequest is one local edit of the review list
type EditBlocksRequest struct {
	Action string `json:"action"` // "edit", "add" or "remove"
	Index  int    `json:"index,omitempty"`
	Field  string `json:"field,omitempty"`
	Text   string `json:"text,omitempty"`
}

// EditBlocks handles PUT /api/v1/capture/sessions/{session_id}/blocks
func (h *CaptureHandler) EditBlocks(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req EditBlocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Action {
	case "edit":
		err = session.EditBlock(req.Index, req.Field, req.Text)
	case "add":
		err = session.AddBlock()
	case "remove":
		err = session.RemoveBlock(req.Index)
	default:
		respondError(w, "action must be edit, add or remove", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Commit handles POST /api/v1/capture/sessions/{session_id}/commit
func (h *CaptureHandler) Commit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	created, err := session.Commit(r.Context())
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("Commit failed")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Abandon handles DELETE /api/v1/capture/sessions/{session_id}
func (h *CaptureHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	if err := h.capture.CloseSession(sessionID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CaptureHandler) session(w http.ResponseWriter, r *http.Request) (*services.CaptureSession, bool) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	session, err := h.capture.GetSession(sessionID, userID)
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return session, true
}
