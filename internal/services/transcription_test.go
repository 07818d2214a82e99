package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recall-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTranscriber_Process(t *testing.T) {
	var gotRemarks, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/process_audio", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))

		gotRemarks = r.FormValue("remarks")
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "memo.m4a", header.Filename)

		json.NewEncoder(w).Encode(TranscriptionResult{Topics: []models.TopicPair{
			{Topic: "career", Content: "started a new job"},
		}})
	}))
	defer srv.Close()

	transcriber := NewHTTPTranscriber(srv.URL, "secret", 5*time.Second)
	result, err := transcriber.Process(context.Background(), strings.NewReader("audio"), "memo.m4a", "Sam - Coffee")
	require.NoError(t, err)

	require.Len(t, result.Topics, 1)
	assert.Equal(t, "career", result.Topics[0].Topic)
	assert.Equal(t, "Sam - Coffee", gotRemarks)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestHTTPTranscriber_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	transcriber := NewHTTPTranscriber(srv.URL, "", 5*time.Second)
	_, err := transcriber.Process(context.Background(), strings.NewReader("audio"), "memo.m4a", "")
	assert.ErrorIs(t, err, ErrServer)
}

func TestHTTPTranscriber_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	transcriber := NewHTTPTranscriber(srv.URL, "", 20*time.Millisecond)
	_, err := transcriber.Process(context.Background(), strings.NewReader("audio"), "memo.m4a", "")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPTranscriber_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	transcriber := NewHTTPTranscriber(srv.URL, "", 5*time.Second)
	_, err := transcriber.Process(context.Background(), strings.NewReader("audio"), "memo.m4a", "")
	assert.ErrorIs(t, err, ErrNetwork)
}
