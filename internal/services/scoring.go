package services

import (
	"fmt"
	"math"

	"recall-backend/internal/config"
	"recall-backend/internal/models"
)

// QuizResult is the outcome of scoring a completed quiz
type QuizResult struct {
	Score              int    `json:"score"`
	Percentage         int    `json:"percentage"`
	PerQuestionCorrect []bool `json:"per_question_correct"`
}

// ScoreQuiz computes the score for a finished quiz. answers holds the chosen
// option index per question, nil for unanswered; unanswered questions count
// as incorrect and are never excluded from the denominator.
func ScoreQuiz(questions []models.QuizQuestion, answers []*int) (QuizResult, error) {
	if len(questions) == 0 {
		return QuizResult{}, fmt.Errorf("cannot score an empty quiz: %w", ErrValidation)
	}
	if len(answers) != len(questions) {
		return QuizResult{}, fmt.Errorf("answers length %d does not match questions length %d: %w",
			len(answers), len(questions), ErrValidation)
	}

	result := QuizResult{
		PerQuestionCorrect: make([]bool, len(questions)),
	}
	for i, q := range questions {
		if answers[i] != nil && *answers[i] == q.CorrectAnswer {
			result.PerQuestionCorrect[i] = true
			result.Score++
		}
	}
	result.Percentage = int(math.Round(100 * float64(result.Score) / float64(len(questions))))
	return result, nil
}

// Band maps a percentage to a result message key. Thresholds are policy,
// taken from config rather than hardcoded.
func Band(percentage int, bands config.BandConfig) string {
	switch {
	case percentage >= bands.Excellent:
		return "excellent"
	case percentage >= bands.Great:
		return "great"
	case percentage >= bands.Good:
		return "good"
	default:
		return "needs-practice"
	}
}
