package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recall-backend/internal/models"
)

// GeneratedQuiz is the output of the quiz generation service
type GeneratedQuiz struct {
	Questions  []models.QuizQuestion `json:"questions"`
	FriendName string                `json:"friend_name"`
}

// QuizGenerator produces multiple-choice questions from a friend's
// accumulated content. Implemented by HTTPQuizGenerator; tests use fakes.
type QuizGenerator interface {
	Generate(ctx context.Context, userID, friendID string) (*GeneratedQuiz, error)
}

// HTTPQuizGenerator calls the external quiz generation service over HTTP
type HTTPQuizGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPQuizGenerator creates a new quiz generation client
func NewHTTPQuizGenerator(baseURL, apiKey string, timeout time.Duration) *HTTPQuizGenerator {
	return &HTTPQuizGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		timeout: timeout,
	}
}

type generateRequest struct {
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
}

type generateError struct {
	Detail string `json:"detail"`
}

// Generate requests a quiz for (user, friend). Fails fast, no retries.
// An "insufficient content" rejection from the service is surfaced as
// ErrInsufficientContent so callers can show a distinct message.
func (g *HTTPQuizGenerator) Generate(ctx context.Context, userID, friendID string) (*GeneratedQuiz, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{UserID: userID, FriendID: friendID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/quiz/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("quiz generation did not finish in %s: %w", g.timeout, ErrTimeout)
		}
		return nil, fmt.Errorf("quiz generation request failed: %w", ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ge generateError
		_ = json.Unmarshal(body, &ge)
		detail := strings.ToLower(ge.Detail)
		if resp.StatusCode == http.StatusBadRequest &&
			(strings.Contains(detail, "not enough") || strings.Contains(detail, "insufficient")) {
			return nil, fmt.Errorf("%s: %w", ge.Detail, ErrInsufficientContent)
		}
		return nil, fmt.Errorf("quiz generation returned %d: %s: %w", resp.StatusCode, string(body), ErrServer)
	}

	var quiz GeneratedQuiz
	if err := json.NewDecoder(resp.Body).Decode(&quiz); err != nil {
		return nil, fmt.Errorf("failed to decode quiz response: %w", err)
	}
	return &quiz, nil
}
