package services

import (
	"context"
	"fmt"
)

// ArtifactRef points at a finalized audio recording
type ArtifactRef struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RecordingHandle represents an in-progress recording
type RecordingHandle struct {
	ID string
}

// Recorder is the external audio capture collaborator. Start may fail with
// ErrPermissionDenied if the microphone permission is refused. Release must
// be safe to call without a prior Stop so teardown can always free the
// microphone stream.
type Recorder interface {
	Start(ctx context.Context) (*RecordingHandle, error)
	Stop(ctx context.Context, h *RecordingHandle) (*ArtifactRef, error)
	Release(h *RecordingHandle)
}

// IngestRecorder is the Recorder used by the HTTP flow: recording happens on
// the device, and the finalized bytes arrive with the stop request. Feed must
// be called before Stop.
type IngestRecorder struct {
	artifact *ArtifactRef
}

// NewIngestRecorder creates a recorder fed by uploaded audio
func NewIngestRecorder() *IngestRecorder {
	return &IngestRecorder{}
}

// Start acknowledges that device-side recording began
func (r *IngestRecorder) Start(ctx context.Context) (*RecordingHandle, error) {
	return &RecordingHandle{ID: "ingest"}, nil
}

// Feed provides the uploaded audio bytes for the next Stop
func (r *IngestRecorder) Feed(artifact *ArtifactRef) {
	r.artifact = artifact
}

// Stop returns the fed artifact
func (r *IngestRecorder) Stop(ctx context.Context, h *RecordingHandle) (*ArtifactRef, error) {
	if r.artifact == nil {
		return nil, fmt.Errorf("no audio received for this recording")
	}
	a := r.artifact
	r.artifact = nil
	return a, nil
}

// Release discards any fed artifact
func (r *IngestRecorder) Release(h *RecordingHandle) {
	r.artifact = nil
}
