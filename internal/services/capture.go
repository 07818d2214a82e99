package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"recall-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CaptureState is the state of one capture session
type CaptureState string

const (
	CaptureIdle           CaptureState = "idle"
	CaptureFriendSelected CaptureState = "friend_selected"
	CaptureEventSelected  CaptureState = "event_selected"
	CaptureRecording      CaptureState = "recording"
	CaptureUploading      CaptureState = "uploading"
	CaptureReviewing      CaptureState = "reviewing_topics"
	CaptureCommitting     CaptureState = "committing"
	CaptureDone           CaptureState = "done"
	CaptureAbandoned      CaptureState = "abandoned"
)

// ContentStore abstracts persistence for the capture flow. Implemented by
// RepositoryStore in production and by fakes in tests.
type ContentStore interface {
	CreateFriend(ctx context.Context, friend *models.Friend) error
	CreateUserFriend(ctx context.Context, id, userID, friendID string) error
	CreateEvent(ctx context.Context, event *models.Event) error
	CreateUserEvent(ctx context.Context, id, userID, eventID string) error
	UpsertLink(ctx context.Context, link *models.UserFriendEvent) (string, error)
	BulkCreateContent(ctx context.Context, blocks []*models.ContentBlock) ([]*models.ContentBlock, error)
	ListEventsByUserAndFriend(ctx context.Context, userID, friendID string) ([]*models.Event, error)
}

// Notifier pushes session events to a user's connected devices.
// May be nil when no push channel is wired.
type Notifier interface {
	SessionEvent(userID, eventType string, data any)
}

// CaptureService manages capture sessions
type CaptureService struct {
	mu          sync.RWMutex
	sessions    map[string]*CaptureSession
	store       ContentStore
	transcriber Transcriber
	audioStore  AudioStore
	notifier    Notifier
}

// NewCaptureService creates a new capture service
func NewCaptureService(store ContentStore, transcriber Transcriber, audioStore AudioStore, notifier Notifier) *CaptureService {
	return &CaptureService{
		sessions:    make(map[string]*CaptureSession),
		store:       store,
		transcriber: transcriber,
		audioStore:  audioStore,
		notifier:    notifier,
	}
}

// CreateSession starts a new capture session for a user
func (s *CaptureService) CreateSession(userID string, recorder Recorder) *CaptureSession {
	session := &CaptureSession{
		ID:       uuid.New().String(),
		UserID:   userID,
		svc:      s,
		recorder: recorder,
		state:    CaptureIdle,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Info().Str("session_id", session.ID).Str("user_id", userID).Msg("Capture session created")
	return session
}

// GetSession retrieves a session by id, scoped to its owner
func (s *CaptureService) GetSession(id, userID string) (*CaptureSession, error) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists || session.UserID != userID {
		return nil, fmt.Errorf("capture session %s: %w", id, ErrSessionNotFound)
	}
	return session, nil
}

// CloseSession abandons a session and removes it from the manager
func (s *CaptureService) CloseSession(id, userID string) error {
	session, err := s.GetSession(id, userID)
	if err != nil {
		return err
	}
	session.Abandon()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// remove drops a finished session from the manager
func (s *CaptureService) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// CaptureSession is the ephemeral record-to-save workflow. It lives only in
// memory; abandoning it loses all unsaved state. All mutating methods are
// serialized by the session mutex, and at most one network operation
// attributable to a transition is in flight at a time.
type CaptureSession struct {
	ID     string
	UserID string

	svc      *CaptureService
	recorder Recorder

	mu            sync.Mutex
	state         CaptureState
	friend        *models.Friend
	event         *models.Event
	events        []*models.Event // local overlay: fetched list plus optimistic prepends
	eventsLoading bool
	recHandle     *RecordingHandle
	recStartedAt  time.Time
	linkID        string
	audioURL      string
	blocks        []models.TopicPair

	// epoch guards against stale async responses: it is bumped on every
	// reselection and on teardown, and responses carrying an older epoch
	// are dropped instead of applied.
	epoch  int
	closed bool

	// inFlight marks a store call running outside the lock, so the busy
	// guard covers friend and event creation like it covers the named
	// uploading and committing states.
	inFlight bool
}

// CaptureView is a read-only snapshot of the session for handlers
type CaptureView struct {
	ID             string             `json:"id"`
	State          CaptureState       `json:"state"`
	Friend         *models.Friend     `json:"friend,omitempty"`
	Event          *models.Event      `json:"event,omitempty"`
	Events         []*models.Event    `json:"events"`
	EventsLoading  bool               `json:"events_loading"`
	Blocks         []models.TopicPair `json:"blocks"`
	LinkID         string             `json:"link_id,omitempty"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
}

// Recorder returns the session's recorder collaborator
func (c *CaptureSession) Recorder() Recorder {
	return c.recorder
}

// View returns a snapshot of the session
func (c *CaptureSession) View() CaptureView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := CaptureView{
		ID:            c.ID,
		State:         c.state,
		Friend:        c.friend,
		Event:         c.event,
		Events:        append([]*models.Event(nil), c.events...),
		EventsLoading: c.eventsLoading,
		Blocks:        append([]models.TopicPair(nil), c.blocks...),
		LinkID:        c.linkID,
	}
	if c.state == CaptureRecording {
		// display only, never used for business logic
		view.ElapsedSeconds = int(time.Since(c.recStartedAt) / time.Second)
	}
	return view
}

// SelectFriend chooses the friend this capture is about. Clears any
// previously selected event, since event selection is scoped to the friend,
// and kicks off a non-blocking fetch of that friend's events.
func (c *CaptureSession) SelectFriend(friend *models.Friend) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireNoOperationInFlight(); err != nil {
		return err
	}

	c.friend = friend
	c.event = nil
	c.linkID = ""
	c.events = nil
	c.eventsLoading = true
	c.state = CaptureFriendSelected
	c.epoch++

	go c.loadEvents(c.epoch, friend.ID)
	return nil
}

// loadEvents fetches the events shared with the selected friend. The session
// does not block on this; an error just leaves the list empty.
func (c *CaptureSession) loadEvents(epoch int, friendID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events, err := c.svc.store.ListEventsByUserAndFriend(ctx, c.UserID, friendID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		// stale response, the selection changed or the session was torn down
		return
	}
	c.eventsLoading = false
	if err != nil {
		log.Warn().Err(err).Str("session_id", c.ID).Msg("Failed to load events for friend")
		return
	}
	c.events = events
}

// CreateFriend creates a new friend and selects it. The user-friend relation
// is established best-effort; a failure there does not undo the friend.
// The session is busy while the create is out, and a teardown in the
// meantime discards the selection.
func (c *CaptureSession) CreateFriend(ctx context.Context, name string) (*models.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("friend name is required: %w", ErrValidation)
	}

	c.mu.Lock()
	if err := c.requireNoOperationInFlight(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.inFlight = true
	epoch := c.epoch
	c.mu.Unlock()

	friend := &models.Friend{
		ID:          uuid.New().String(),
		DisplayName: name,
		CreatedAt:   time.Now(),
	}
	if err := c.svc.store.CreateFriend(ctx, friend); err != nil {
		c.clearInFlight()
		// session stays in its prior state, nothing is selected
		return nil, fmt.Errorf("failed to create friend: %w", err)
	}

	if err := c.svc.store.CreateUserFriend(ctx, uuid.New().String(), c.UserID, friend.ID); err != nil {
		log.Warn().Err(err).Str("friend_id", friend.ID).Msg("Failed to create user-friend relation")
	}

	if err := c.settleMutation(epoch); err != nil {
		return nil, err
	}
	if err := c.SelectFriend(friend); err != nil {
		return nil, err
	}
	return friend, nil
}

// SelectEvent chooses the event this capture belongs to
func (c *CaptureSession) SelectEvent(event *models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireNoOperationInFlight(); err != nil {
		return err
	}
	if c.friend == nil {
		return fmt.Errorf("no friend selected: %w", ErrPrecondition)
	}

	c.event = event
	c.linkID = ""
	c.state = CaptureEventSelected
	return nil
}

// CreateEvent creates a new event dated today and selects it. The new event
// is prepended to the local overlay rather than re-fetched; it stays
// provisional until the next authoritative fetch. The session is busy while
// the create is out, and a teardown or reselection in the meantime discards
// the result instead of applying it.
func (c *CaptureSession) CreateEvent(ctx context.Context, name string) (*models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("event name is required: %w", ErrValidation)
	}

	c.mu.Lock()
	if err := c.requireNoOperationInFlight(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.friend == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no friend selected: %w", ErrPrecondition)
	}
	c.inFlight = true
	epoch := c.epoch
	c.mu.Unlock()

	now := time.Now()
	event := &models.Event{
		ID:        uuid.New().String(),
		Name:      name,
		Date:      now,
		CreatedAt: now,
	}
	if err := c.svc.store.CreateEvent(ctx, event); err != nil {
		c.clearInFlight()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := c.svc.store.CreateUserEvent(ctx, uuid.New().String(), c.UserID, event.ID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to create user-event relation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.closed || c.epoch != epoch {
		// the session was torn down or reselected while the create was out
		return nil, fmt.Errorf("capture session %s: %w", c.ID, ErrSessionNotFound)
	}
	c.events = append([]*models.Event{event}, c.events...)
	c.event = event
	c.linkID = ""
	c.state = CaptureEventSelected
	return event, nil
}

// StartRecording acquires the microphone and begins capture
func (c *CaptureSession) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireNoOperationInFlight(); err != nil {
		return err
	}

	handle, err := c.recorder.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	c.recHandle = handle
	c.recStartedAt = time.Now()
	c.state = CaptureRecording
	return nil
}

// StopRecording finalizes the audio and immediately uploads it for
// transcription. If no friend or event is selected the raw recording is
// discarded and the stop fails with a precondition error.
func (c *CaptureSession) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CaptureRecording {
		c.mu.Unlock()
		return fmt.Errorf("not recording: %w", ErrInvalidTransition)
	}

	handle := c.recHandle
	c.recHandle = nil

	if c.friend == nil || c.event == nil {
		c.recorder.Release(handle)
		c.state = c.selectionState()
		c.mu.Unlock()
		return fmt.Errorf("select friend and event first: %w", ErrPrecondition)
	}

	artifact, err := c.recorder.Stop(ctx, handle)
	if err != nil {
		c.recorder.Release(handle)
		c.state = c.selectionState()
		c.mu.Unlock()
		return fmt.Errorf("failed to finalize recording: %w", err)
	}

	c.state = CaptureUploading
	epoch := c.epoch
	userID := c.UserID
	friend := c.friend
	event := c.event
	c.mu.Unlock()

	return c.upload(ctx, epoch, userID, friend, event, artifact)
}

// upload archives the artifact, sends it for transcription, and on success
// moves the session to topic review. The link is created only after the
// upload succeeds; a link failure is logged and review proceeds without it,
// which Commit later reports as a missing link.
func (c *CaptureSession) upload(ctx context.Context, epoch int, userID string, friend *models.Friend, event *models.Event, artifact *ArtifactRef) error {
	var audioURL string
	if c.svc.audioStore != nil {
		key := fmt.Sprintf("captures/%s/%s", c.ID, artifact.Filename)
		url, err := c.svc.audioStore.Put(ctx, key, artifact.Data, artifact.ContentType)
		if err != nil {
			log.Warn().Err(err).Str("session_id", c.ID).Msg("Failed to archive audio artifact")
		} else {
			audioURL = url
		}
	}

	remarks := fmt.Sprintf("%s - %s", friend.DisplayName, event.Name)
	result, err := c.svc.transcriber.Process(ctx, bytes.NewReader(artifact.Data), artifact.Filename, remarks)

	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.epoch != epoch {
			return nil
		}
		c.state = c.selectionState()
		return fmt.Errorf("upload failed: %w", err)
	}

	var linkID string
	link := &models.UserFriendEvent{
		ID:       uuid.New().String(),
		UserID:   userID,
		FriendID: friend.ID,
		EventID:  event.ID,
	}
	linkID, err = c.svc.store.UpsertLink(ctx, link)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", c.ID).
			Str("friend_id", friend.ID).
			Str("event_id", event.ID).
			Msg("Failed to create user-friend-event link")
		linkID = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		// the session was torn down while the upload was in flight
		return nil
	}

	blocks := result.Topics
	if len(blocks) == 0 {
		blocks = []models.TopicPair{{}}
	}
	c.blocks = blocks
	c.linkID = linkID
	c.audioURL = audioURL
	c.state = CaptureReviewing
	return nil
}

// EditBlock updates one field of an editable block
func (c *CaptureSession) EditBlock(index int, field, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureReviewing {
		return fmt.Errorf("not reviewing topics: %w", ErrInvalidTransition)
	}
	if index < 0 || index >= len(c.blocks) {
		return fmt.Errorf("block index %d out of range: %w", index, ErrValidation)
	}
	switch field {
	case "topic":
		c.blocks[index].Topic = text
	case "content":
		c.blocks[index].Content = text
	default:
		return fmt.Errorf("unknown field %q: %w", field, ErrValidation)
	}
	return nil
}

// AddBlock appends an empty editable block
func (c *CaptureSession) AddBlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureReviewing {
		return fmt.Errorf("not reviewing topics: %w", ErrInvalidTransition)
	}
	c.blocks = append(c.blocks, models.TopicPair{})
	return nil
}

// RemoveBlock deletes a block, always leaving at least one so the user
// is never left with nothing to save
func (c *CaptureSession) RemoveBlock(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureReviewing {
		return fmt.Errorf("not reviewing topics: %w", ErrInvalidTransition)
	}
	if index < 0 || index >= len(c.blocks) {
		return fmt.Errorf("block index %d out of range: %w", index, ErrValidation)
	}
	if len(c.blocks) <= 1 {
		return ErrMinimumBlocks
	}
	c.blocks = append(c.blocks[:index], c.blocks[index+1:]...)
	return nil
}

// Commit bulk-creates all non-blank blocks under the link. On failure the
// session stays in review with every edit preserved so the user can retry.
func (c *CaptureSession) Commit(ctx context.Context) ([]*models.ContentBlock, error) {
	c.mu.Lock()
	if c.state != CaptureReviewing {
		c.mu.Unlock()
		return nil, fmt.Errorf("not reviewing topics: %w", ErrInvalidTransition)
	}
	if c.linkID == "" {
		c.mu.Unlock()
		return nil, ErrMissingLink
	}

	now := time.Now()
	var toCreate []*models.ContentBlock
	for _, b := range c.blocks {
		topic := strings.TrimSpace(b.Topic)
		content := strings.TrimSpace(b.Content)
		if topic == "" || content == "" {
			continue
		}
		toCreate = append(toCreate, &models.ContentBlock{
			ID:                uuid.New().String(),
			UserFriendEventID: c.linkID,
			Topic:             topic,
			Content:           content,
			CreatedAt:         now,
		})
	}
	if len(toCreate) == 0 {
		c.mu.Unlock()
		return nil, ErrNothingToSave
	}

	c.state = CaptureCommitting
	epoch := c.epoch
	linkID := c.linkID
	c.mu.Unlock()

	created, err := c.svc.store.BulkCreateContent(ctx, toCreate)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		return nil, fmt.Errorf("capture session %s: %w", c.ID, ErrSessionNotFound)
	}
	if err != nil {
		c.state = CaptureReviewing
		return nil, fmt.Errorf("commit failed: %w", err)
	}

	c.state = CaptureDone
	c.closed = true
	c.svc.remove(c.ID)

	if c.svc.notifier != nil {
		c.svc.notifier.SessionEvent(c.UserID, "content_committed", map[string]any{
			"link_id":     linkID,
			"block_count": len(created),
		})
	}

	log.Info().
		Str("session_id", c.ID).
		Str("link_id", linkID).
		Int("blocks", len(created)).
		Msg("Capture committed")
	return created, nil
}

// Abandon tears the session down, releasing the microphone on every exit
// path and marking in-flight responses stale
func (c *CaptureSession) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.recHandle != nil {
		c.recorder.Release(c.recHandle)
		c.recHandle = nil
	}
	c.epoch++
	c.closed = true
	c.state = CaptureAbandoned
	log.Info().Str("session_id", c.ID).Msg("Capture session abandoned")
}

// selectionState is the resting state implied by the current selections
func (c *CaptureSession) selectionState() CaptureState {
	switch {
	case c.event != nil:
		return CaptureEventSelected
	case c.friend != nil:
		return CaptureFriendSelected
	default:
		return CaptureIdle
	}
}

// requireNoOperationInFlight rejects transitions while a recording or a
// network operation owns the session. Guards double submission.
func (c *CaptureSession) requireNoOperationInFlight() error {
	if c.closed {
		return fmt.Errorf("capture session %s: %w", c.ID, ErrSessionNotFound)
	}
	if c.inFlight {
		return fmt.Errorf("creation in progress: %w", ErrSessionBusy)
	}
	switch c.state {
	case CaptureRecording:
		return fmt.Errorf("recording in progress: %w", ErrInvalidTransition)
	case CaptureUploading, CaptureCommitting:
		return fmt.Errorf("%s: %w", c.state, ErrSessionBusy)
	}
	return nil
}

// settleMutation clears the in-flight flag and reports whether the session
// was torn down or reselected while the store call was out
func (c *CaptureSession) settleMutation(epoch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.closed || c.epoch != epoch {
		return fmt.Errorf("capture session %s: %w", c.ID, ErrSessionNotFound)
	}
	return nil
}

func (c *CaptureSession) clearInFlight() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}
