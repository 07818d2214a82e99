package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"recall-backend/internal/models"
)

// TranscriptionResult is the structured output of the transcription service
type TranscriptionResult struct {
	Topics []models.TopicPair `json:"topics"`
}

// Transcriber turns a recorded audio artifact into topic/content pairs.
// Implemented by HTTPTranscriber; tests substitute fakes.
type Transcriber interface {
	Process(ctx context.Context, audio io.Reader, filename, remarks string) (*TranscriptionResult, error)
}

// HTTPTranscriber calls the external transcription service over HTTP
type HTTPTranscriber struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPTranscriber creates a new transcription client
func NewHTTPTranscriber(baseURL, apiKey string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Process uploads the audio plus contextual remarks and decodes the
// extracted topics. The call is bounded by the configured timeout; there
// is no mid-flight cancellation beyond the context.
func (t *HTTPTranscriber) Process(ctx context.Context, audio io.Reader, filename, remarks string) (*TranscriptionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to copy audio: %w", err)
	}
	if err := mw.WriteField("remarks", remarks); err != nil {
		return nil, fmt.Errorf("failed to write remarks field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/process_audio", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("transcription did not finish in %s: %w", t.timeout, ErrTimeout)
		}
		return nil, fmt.Errorf("transcription request failed: %w", ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription returned %d: %s: %w", resp.StatusCode, string(msg), ErrServer)
	}

	var result TranscriptionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return &result, nil
}
