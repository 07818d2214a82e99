package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"recall-backend/internal/middleware"
	"recall-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// QuizHandler drives quiz sessions over HTTP
type QuizHandler struct {
	quiz *services.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quiz *services.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

// Eligibility handles GET /api/v1/quiz/eligibility
func (h *QuizHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	friends, err := h.quiz.EligibleFriends(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute quiz eligibility")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

// StartSessionRequest represents the request body for starting a quiz
type StartSessionRequest struct {
	FriendID string `json:"friend_id"`
	Policy   string `json:"policy,omitempty"`
}

// StartSession handles POST /api/v1/quiz/sessions
func (h *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FriendID == "" {
		respondError(w, "friend_id is required", http.StatusBadRequest)
		return
	}

	session, err := h.quiz.StartSession(ctx, userID, req.FriendID, services.AnswerPolicy(req.Policy))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("friend_id", req.FriendID).Msg("Failed to start quiz")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session.View())
}

// GetSession handles GET /api/v1/quiz/sessions/{session_id}
func (h *QuizHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// AnswerRequest represents an option selection
type AnswerRequest struct {
	Option int `json:"option"`
}

// Answer handles POST /api/v1/quiz/sessions/{session_id}/answer
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := session.SelectOption(req.Option); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Submit handles POST /api/v1/quiz/sessions/{session_id}/submit
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.SubmitCurrent(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Next handles POST /api/v1/quiz/sessions/{session_id}/next
func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Next(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Previous handles POST /api/v1/quiz/sessions/{session_id}/previous
func (h *QuizHandler) Previous(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Previous(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Complete handles POST /api/v1/quiz/sessions/{session_id}/complete
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := session.Complete(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Review handles GET /api/v1/quiz/sessions/{session_id}/questions/{index}
func (h *QuizHandler) Review(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, "index must be a number", http.StatusBadRequest)
		return
	}

	view, err := session.ResultAt(index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Retake handles POST /api/v1/quiz/sessions/{session_id}/retake
func (h *QuizHandler) Retake(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Retake(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.View())
}

// Abandon handles DELETE /api/v1/quiz/sessions/{session_id}
func (h *QuizHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	if err := h.quiz.CloseSession(sessionID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) session(w http.ResponseWriter, r *http.Request) (*services.QuizSession, bool) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	session, err := h.quiz.GetSession(sessionID, userID)
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return session, true
}
