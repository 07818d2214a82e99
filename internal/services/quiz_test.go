package services

import (
	"context"
	"testing"

	"recall-backend/internal/config"
	"recall-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuizStore struct {
	friends []*models.FriendWithStats
	counts  map[string]int
}

func (f *fakeQuizStore) ListFriendsByUser(ctx context.Context, userID string) ([]*models.FriendWithStats, error) {
	return f.friends, nil
}

func (f *fakeQuizStore) CountSharedEvents(ctx context.Context, userID, friendID string) (int, error) {
	return f.counts[friendID], nil
}

type fakeGenerator struct {
	quiz  *GeneratedQuiz
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, userID, friendID string) (*GeneratedQuiz, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

func quizConfig() config.QuizConfig {
	return config.QuizConfig{
		MinSharedEvents: 2,
		AnswerPolicy:    string(PolicyExplicitSubmit),
		Bands:           config.BandConfig{Excellent: 90, Great: 70, Good: 50},
	}
}

func fiveQuestions() []models.QuizQuestion {
	// correct answers: 0, 1, 2, 3, 0
	return makeQuestions(0, 1, 2, 3, 0)
}

func newQuizService(counts map[string]int, gen QuizGenerator) *QuizService {
	store := &fakeQuizStore{counts: counts}
	for id := range counts {
		store.friends = append(store.friends, &models.FriendWithStats{
			Friend: models.Friend{ID: id, DisplayName: "friend-" + id},
		})
	}
	return NewQuizService(store, gen, nil, quizConfig())
}

func TestEligibleFriends_Gate(t *testing.T) {
	svc := newQuizService(map[string]int{"one": 1, "two": 2}, &fakeGenerator{})

	friends, err := svc.EligibleFriends(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, friends, 2)

	byID := map[string]EligibleFriend{}
	for _, f := range friends {
		byID[f.Friend.ID] = f
	}
	assert.False(t, byID["one"].Eligible, "friend with 1 shared event must not be selectable")
	assert.True(t, byID["two"].Eligible, "friend with 2 shared events must be selectable")
	assert.Equal(t, 1, byID["one"].SharedEvents)
	assert.Equal(t, 2, byID["two"].SharedEvents)
}

func TestStartSession_IneligibleFriend(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 1}, gen)

	_, err := svc.StartSession(context.Background(), "u1", "alex", PolicyExplicitSubmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientContent)
	assert.Zero(t, gen.calls, "generation must not run for ineligible friends")
}

func TestStartSession_GeneratorDomainError(t *testing.T) {
	gen := &fakeGenerator{err: ErrInsufficientContent}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	_, err := svc.StartSession(context.Background(), "u1", "alex", PolicyExplicitSubmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientContent)
	assert.Equal(t, 1, gen.calls, "generation must fail fast without retry")
}

func TestQuizSession_ExplicitSubmitFlow(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyExplicitSubmit)
	require.NoError(t, err)

	// submit with nothing staged
	err = session.SubmitCurrent()
	assert.ErrorIs(t, err, ErrNoAnswerSelected)

	// answer 0,1,2 correctly, 3 wrong, 4 correctly
	answers := []int{0, 1, 2, 1, 0}
	for i, a := range answers {
		require.NoError(t, session.SelectOption(a))
		require.NoError(t, session.SubmitCurrent())
		if i < len(answers)-1 {
			require.NoError(t, session.Next())
		}
	}

	// submitted answers are immutable
	err = session.SelectOption(2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// free navigation does not destroy answers
	require.NoError(t, session.Previous())
	view := session.View()
	assert.Equal(t, 3, view.CurrentIndex)
	require.NotNil(t, view.Question.Answer)
	assert.Equal(t, 1, *view.Question.Answer)
	assert.True(t, view.Question.Submitted)
	assert.Equal(t, "because", view.Question.Explanation, "explanation revealed for submitted question")

	result, err := session.Complete()
	require.NoError(t, err)
	assert.Equal(t, 4, result.Score)
	assert.Equal(t, 80, result.Percentage)

	view = session.View()
	assert.Equal(t, QuizCompleted, view.State)
	assert.Equal(t, "great", view.Band)
}

func TestQuizSession_StagedAnswerChangeableBeforeSubmit(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyExplicitSubmit)
	require.NoError(t, err)

	require.NoError(t, session.SelectOption(3))
	require.NoError(t, session.SelectOption(0))
	require.NoError(t, session.SubmitCurrent())

	view := session.View()
	require.NotNil(t, view.Question.Answer)
	assert.Equal(t, 0, *view.Question.Answer)
}

func TestQuizSession_UnsubmittedStagedAnswerCountsAsWrong(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyExplicitSubmit)
	require.NoError(t, err)

	// stage a correct answer but never submit it
	require.NoError(t, session.SelectOption(0))

	result, err := session.Complete()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.Percentage)
	assert.Len(t, result.PerQuestionCorrect, 5, "unanswered questions stay in the denominator")
}

func TestQuizSession_AutoAdvanceFlow(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyAutoAdvance)
	require.NoError(t, err)

	// navigation and submit are not part of auto-advance
	assert.ErrorIs(t, session.Next(), ErrInvalidTransition)
	assert.ErrorIs(t, session.SubmitCurrent(), ErrInvalidTransition)

	for i, a := range []int{0, 1, 2, 1, 0} {
		view := session.View()
		assert.Equal(t, i, view.CurrentIndex)
		require.NoError(t, session.SelectOption(a))
	}

	// the last answer completes the session on its own
	view := session.View()
	assert.Equal(t, QuizCompleted, view.State)
	require.NotNil(t, view.Score)
	assert.Equal(t, 4, *view.Score)
	require.NotNil(t, view.Percentage)
	assert.Equal(t, 80, *view.Percentage)
}

func TestQuizSession_ReviewIsReadOnly(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyAutoAdvance)
	require.NoError(t, err)

	_, err = session.ResultAt(0)
	assert.ErrorIs(t, err, ErrInvalidTransition, "review requires completion")

	for _, a := range []int{0, 1, 2, 1, 0} {
		require.NoError(t, session.SelectOption(a))
	}

	// jump to any question by index without re-entering answering
	q3, err := session.ResultAt(3)
	require.NoError(t, err)
	require.NotNil(t, q3.CorrectAnswer)
	assert.Equal(t, 3, *q3.CorrectAnswer)
	assert.Equal(t, "because", q3.Explanation)

	_, err = session.ResultAt(7)
	assert.ErrorIs(t, err, ErrValidation)

	// answering after completion is rejected
	assert.ErrorIs(t, session.SelectOption(0), ErrInvalidTransition)
}

func TestQuizSession_Retake(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyAutoAdvance)
	require.NoError(t, err)

	for _, a := range []int{0, 1, 2, 1, 0} {
		require.NoError(t, session.SelectOption(a))
	}
	before := session.View()
	require.Equal(t, QuizCompleted, before.State)

	require.NoError(t, session.Retake())

	view := session.View()
	assert.Equal(t, QuizAnswering, view.State)
	assert.Equal(t, 0, view.CurrentIndex)
	assert.Nil(t, view.Score)
	assert.Equal(t, before.Total, view.Total, "question set unchanged")
	assert.Nil(t, view.Question.Answer)
	assert.False(t, view.Question.Submitted)
	assert.Equal(t, 1, gen.calls, "retake must not re-generate")

	// same questions in the same order
	assert.Equal(t, before.Question.Question, view.Question.Question)
}

func TestQuizService_SessionScopedToOwner(t *testing.T) {
	gen := &fakeGenerator{quiz: &GeneratedQuiz{Questions: fiveQuestions(), FriendName: "Alex"}}
	svc := newQuizService(map[string]int{"alex": 2}, gen)

	session, err := svc.StartSession(context.Background(), "u1", "alex", PolicyAutoAdvance)
	require.NoError(t, err)

	_, err = svc.GetSession(session.ID, "someone-else")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := svc.GetSession(session.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}
