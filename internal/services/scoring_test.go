package services

import (
	"testing"

	"recall-backend/internal/config"
	"recall-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func makeQuestions(correct ...int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, len(correct))
	for i, c := range correct {
		questions[i] = models.QuizQuestion{
			Question:      "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: c,
			Topic:         "topic",
			Explanation:   "because",
		}
	}
	return questions
}

func TestScoreQuiz(t *testing.T) {
	tests := []struct {
		name           string
		correct        []int
		answers        []*int
		wantScore      int
		wantPercentage int
		wantPerQ       []bool
	}{
		{
			name:           "all correct",
			correct:        []int{0, 1, 2},
			answers:        []*int{intPtr(0), intPtr(1), intPtr(2)},
			wantScore:      3,
			wantPercentage: 100,
			wantPerQ:       []bool{true, true, true},
		},
		{
			name:           "four of five",
			correct:        []int{0, 1, 2, 3, 0},
			answers:        []*int{intPtr(0), intPtr(1), intPtr(2), intPtr(1), intPtr(0)},
			wantScore:      4,
			wantPercentage: 80,
			wantPerQ:       []bool{true, true, true, false, true},
		},
		{
			name:           "unanswered counts as incorrect",
			correct:        []int{0, 1, 2},
			answers:        []*int{intPtr(0), nil, nil},
			wantScore:      1,
			wantPercentage: 33,
			wantPerQ:       []bool{true, false, false},
		},
		{
			name:           "rounding up",
			correct:        []int{0, 1, 2},
			answers:        []*int{intPtr(0), intPtr(1), nil},
			wantScore:      2,
			wantPercentage: 67,
			wantPerQ:       []bool{true, true, false},
		},
		{
			name:           "all wrong",
			correct:        []int{0, 1},
			answers:        []*int{intPtr(3), intPtr(3)},
			wantScore:      0,
			wantPercentage: 0,
			wantPerQ:       []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScoreQuiz(makeQuestions(tt.correct...), tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantPercentage, result.Percentage)
			assert.Equal(t, tt.wantPerQ, result.PerQuestionCorrect)
		})
	}
}

func TestScoreQuiz_EmptyQuiz(t *testing.T) {
	_, err := ScoreQuiz(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestScoreQuiz_LengthMismatch(t *testing.T) {
	_, err := ScoreQuiz(makeQuestions(0, 1), []*int{intPtr(0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBand(t *testing.T) {
	bands := config.BandConfig{Excellent: 90, Great: 70, Good: 50}

	tests := []struct {
		percentage int
		want       string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89, "great"},
		{80, "great"},
		{70, "great"},
		{69, "good"},
		{50, "good"},
		{49, "needs-practice"},
		{0, "needs-practice"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.percentage, bands), "percentage %d", tt.percentage)
	}
}
