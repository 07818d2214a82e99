package services

import (
	"context"
	"fmt"
	"sync"

	"recall-backend/internal/config"
	"recall-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AnswerPolicy selects the answering discipline for a quiz session. The two
// disciplines are configurations of one state machine, not separate engines.
type AnswerPolicy string

const (
	// PolicyAutoAdvance finalizes an answer the moment it is selected and
	// advances to the next question; an answer cannot be changed
	PolicyAutoAdvance AnswerPolicy = "auto_advance"
	// PolicyExplicitSubmit stages a candidate answer and finalizes it only
	// on submit; navigation between questions is free and non-destructive
	PolicyExplicitSubmit AnswerPolicy = "explicit_submit"
)

// QuizState is the state of one quiz session
type QuizState string

const (
	QuizAnswering QuizState = "answering"
	QuizCompleted QuizState = "completed"
)

// QuizStore provides the reads the quiz flow needs
type QuizStore interface {
	ListFriendsByUser(ctx context.Context, userID string) ([]*models.FriendWithStats, error)
	CountSharedEvents(ctx context.Context, userID, friendID string) (int, error)
}

// EligibleFriend is a quiz candidate with its eligibility verdict
type EligibleFriend struct {
	Friend       models.Friend `json:"friend"`
	SharedEvents int           `json:"shared_events"`
	Eligible     bool          `json:"eligible"`
}

// QuizService manages quiz sessions
type QuizService struct {
	mu        sync.RWMutex
	sessions  map[string]*QuizSession
	store     QuizStore
	generator QuizGenerator
	notifier  Notifier
	cfg       config.QuizConfig
}

// NewQuizService creates a new quiz service
func NewQuizService(store QuizStore, generator QuizGenerator, notifier Notifier, cfg config.QuizConfig) *QuizService {
	return &QuizService{
		sessions:  make(map[string]*QuizSession),
		store:     store,
		generator: generator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// EligibleFriends lists every friend with their shared-event count and
// whether they pass the eligibility gate. The count is fetched per friend;
// too few shared events yields degenerate questions, so ineligible friends
// are shown but must not be selectable.
func (s *QuizService) EligibleFriends(ctx context.Context, userID string) ([]EligibleFriend, error) {
	friends, err := s.store.ListFriendsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	result := make([]EligibleFriend, 0, len(friends))
	for _, f := range friends {
		count, err := s.store.CountSharedEvents(ctx, userID, f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count events for friend %s: %w", f.ID, err)
		}
		result = append(result, EligibleFriend{
			Friend:       f.Friend,
			SharedEvents: count,
			Eligible:     count >= s.cfg.MinSharedEvents,
		})
	}
	return result, nil
}

// StartSession verifies eligibility, requests question generation, and
// creates a session. Generation fails fast and is never retried
// automatically.
func (s *QuizService) StartSession(ctx context.Context, userID, friendID string, policy AnswerPolicy) (*QuizSession, error) {
	if policy == "" {
		policy = AnswerPolicy(s.cfg.AnswerPolicy)
	}
	if policy != PolicyAutoAdvance && policy != PolicyExplicitSubmit {
		return nil, fmt.Errorf("unknown answer policy %q: %w", policy, ErrValidation)
	}

	count, err := s.store.CountSharedEvents(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to count shared events: %w", err)
	}
	if count < s.cfg.MinSharedEvents {
		return nil, fmt.Errorf("friend has %d shared events, need %d: %w",
			count, s.cfg.MinSharedEvents, ErrInsufficientContent)
	}

	quiz, err := s.generator.Generate(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("generator returned no questions: %w", ErrInsufficientContent)
	}

	session := &QuizSession{
		ID:         uuid.New().String(),
		UserID:     userID,
		FriendID:   friendID,
		FriendName: quiz.FriendName,
		svc:        s,
		policy:     policy,
		state:      QuizAnswering,
		questions:  quiz.Questions,
		answers:    make([]*int, len(quiz.Questions)),
		submitted:  make([]bool, len(quiz.Questions)),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Info().
		Str("session_id", session.ID).
		Str("user_id", userID).
		Str("friend_id", friendID).
		Int("questions", len(quiz.Questions)).
		Str("policy", string(policy)).
		Msg("Quiz session started")
	return session, nil
}

// GetSession retrieves a session by id, scoped to its owner
func (s *QuizService) GetSession(id, userID string) (*QuizSession, error) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists || session.UserID != userID {
		return nil, fmt.Errorf("quiz session %s: %w", id, ErrSessionNotFound)
	}
	return session, nil
}

// CloseSession abandons a session
func (s *QuizService) CloseSession(id, userID string) error {
	if _, err := s.GetSession(id, userID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Bands returns the configured percentage thresholds
func (s *QuizService) Bands() config.BandConfig {
	return s.cfg.Bands
}

// QuizSession is one ephemeral quiz attempt over a fixed question set
type QuizSession struct {
	ID         string
	UserID     string
	FriendID   string
	FriendName string

	svc    *QuizService
	policy AnswerPolicy

	mu        sync.Mutex
	state     QuizState
	questions []models.QuizQuestion
	current   int
	answers   []*int
	submitted []bool
	result    *QuizResult
}

// QuizQuestionView is a question as shown while answering. The correct
// answer and explanation are withheld until the question is submitted.
type QuizQuestionView struct {
	Index         int      `json:"index"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Topic         string   `json:"topic"`
	Answer        *int     `json:"answer,omitempty"`
	Submitted     bool     `json:"submitted"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizView is a read-only snapshot of the session
type QuizView struct {
	ID           string           `json:"id"`
	FriendName   string           `json:"friend_name"`
	Policy       AnswerPolicy     `json:"policy"`
	State        QuizState        `json:"state"`
	CurrentIndex int              `json:"current_index"`
	Total        int              `json:"total"`
	Question     QuizQuestionView `json:"question"`
	Score        *int             `json:"score,omitempty"`
	Percentage   *int             `json:"percentage,omitempty"`
	Band         string           `json:"band,omitempty"`
}

// View returns a snapshot centered on the current question
func (q *QuizSession) View() QuizView {
	q.mu.Lock()
	defer q.mu.Unlock()

	view := QuizView{
		ID:           q.ID,
		FriendName:   q.FriendName,
		Policy:       q.policy,
		State:        q.state,
		CurrentIndex: q.current,
		Total:        len(q.questions),
		Question:     q.questionView(q.current),
	}
	if q.result != nil {
		score := q.result.Score
		pct := q.result.Percentage
		view.Score = &score
		view.Percentage = &pct
		view.Band = Band(pct, q.svc.cfg.Bands)
	}
	return view
}

func (q *QuizSession) questionView(i int) QuizQuestionView {
	question := q.questions[i]
	view := QuizQuestionView{
		Index:     i,
		Question:  question.Question,
		Options:   question.Options,
		Topic:     question.Topic,
		Answer:    q.answers[i],
		Submitted: q.submitted[i],
	}
	if q.submitted[i] || q.state == QuizCompleted {
		correct := question.CorrectAnswer
		view.CorrectAnswer = &correct
		view.Explanation = question.Explanation
	}
	return view
}

// SelectOption records an answer for the current question. Under
// auto-advance the answer is final immediately and the session moves on;
// under explicit-submit it only stages a candidate.
func (q *QuizSession) SelectOption(option int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizAnswering {
		return fmt.Errorf("quiz is not answering: %w", ErrInvalidTransition)
	}
	if option < 0 || option >= len(q.questions[q.current].Options) {
		return fmt.Errorf("option %d out of range: %w", option, ErrValidation)
	}
	if q.submitted[q.current] {
		return fmt.Errorf("question %d already answered: %w", q.current, ErrInvalidTransition)
	}

	o := option
	q.answers[q.current] = &o

	if q.policy == PolicyAutoAdvance {
		// final immediately; the short reveal delay is presentation-side
		q.submitted[q.current] = true
		if q.current == len(q.questions)-1 {
			return q.completeLocked()
		}
		q.current++
	}
	return nil
}

// SubmitCurrent finalizes the staged answer for the current question
// (explicit-submit only)
func (q *QuizSession) SubmitCurrent() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizAnswering {
		return fmt.Errorf("quiz is not answering: %w", ErrInvalidTransition)
	}
	if q.policy != PolicyExplicitSubmit {
		return fmt.Errorf("submit is not part of the %s policy: %w", q.policy, ErrInvalidTransition)
	}
	if q.answers[q.current] == nil {
		return ErrNoAnswerSelected
	}
	q.submitted[q.current] = true
	return nil
}

// Next moves to the next question without touching answers
// (explicit-submit only; auto-advance moves on its own)
func (q *QuizSession) Next() error {
	return q.navigate(1)
}

// Previous moves to the previous question without touching answers
func (q *QuizSession) Previous() error {
	return q.navigate(-1)
}

func (q *QuizSession) navigate(delta int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizAnswering {
		return fmt.Errorf("quiz is not answering: %w", ErrInvalidTransition)
	}
	if q.policy != PolicyExplicitSubmit {
		return fmt.Errorf("free navigation is not part of the %s policy: %w", q.policy, ErrInvalidTransition)
	}
	next := q.current + delta
	if next < 0 || next >= len(q.questions) {
		return fmt.Errorf("question index %d out of range: %w", next, ErrValidation)
	}
	q.current = next
	return nil
}

// Complete finishes the attempt and computes the score. Questions never
// submitted count as incorrect, never as excluded from the denominator.
func (q *QuizSession) Complete() (QuizResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizAnswering {
		return QuizResult{}, fmt.Errorf("quiz is not answering: %w", ErrInvalidTransition)
	}
	if err := q.completeLocked(); err != nil {
		return QuizResult{}, err
	}
	return *q.result, nil
}

func (q *QuizSession) completeLocked() error {
	// staged but never-submitted answers do not count
	effective := make([]*int, len(q.answers))
	for i, a := range q.answers {
		if q.submitted[i] {
			effective[i] = a
		}
	}

	result, err := ScoreQuiz(q.questions, effective)
	if err != nil {
		return err
	}
	q.result = &result
	q.state = QuizCompleted

	if q.svc.notifier != nil {
		q.svc.notifier.SessionEvent(q.UserID, "quiz_completed", map[string]any{
			"friend_id":  q.FriendID,
			"score":      result.Score,
			"percentage": result.Percentage,
		})
	}

	log.Info().
		Str("session_id", q.ID).
		Int("score", result.Score).
		Int("percentage", result.Percentage).
		Msg("Quiz completed")
	return nil
}

// ResultAt returns the read-only review view of any question by index.
// Valid only after completion; jumping around does not re-enter answering.
func (q *QuizSession) ResultAt(index int) (QuizQuestionView, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizCompleted {
		return QuizQuestionView{}, fmt.Errorf("quiz is not completed: %w", ErrInvalidTransition)
	}
	if index < 0 || index >= len(q.questions) {
		return QuizQuestionView{}, fmt.Errorf("question index %d out of range: %w", index, ErrValidation)
	}
	return q.questionView(index), nil
}

// Retake resets all answers, flags and the score while reusing the same
// question set in the same order. No re-generation happens.
func (q *QuizSession) Retake() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != QuizCompleted {
		return fmt.Errorf("quiz is not completed: %w", ErrInvalidTransition)
	}
	q.answers = make([]*int, len(q.questions))
	q.submitted = make([]bool, len(q.questions))
	q.current = 0
	q.result = nil
	q.state = QuizAnswering
	return nil
}
