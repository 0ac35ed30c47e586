package domain

import (
	"math"
	"strings"
	"time"
)

// QuestionResult is the graded outcome of one question in a submission.
type QuestionResult struct {
	QuestionID    string
	IsCorrect     bool
	UserAnswer    string
	CorrectAnswer string
	Explanation   string
}

// ExerciseResult records one graded submission of an exercise.
// Score is 0-100; CorrectRate is the correct fraction rounded to two places.
type ExerciseResult struct {
	ID          string
	ExerciseID  string
	OwnerID     string
	Score       int
	CorrectRate float64
	Details     []QuestionResult
	SubmittedAt time.Time
}

// Grade compares submitted answers, keyed by question ID, against the stored
// answers. Every question of the exercise is graded in order; a question with
// no submission counts as wrong and submissions for unknown questions are
// ignored. Answers match after trimming surrounding whitespace; a blank
// answer is never correct.
func Grade(questions []*Question, answers map[string]*Answer, submitted map[string]string) (details []QuestionResult, score int, correctRate float64) {
	details = make([]QuestionResult, 0, len(questions))
	correct := 0
	for _, q := range questions {
		result := QuestionResult{
			QuestionID: q.ID,
			UserAnswer: strings.TrimSpace(submitted[q.ID]),
		}
		if a, ok := answers[q.ID]; ok {
			result.CorrectAnswer = strings.TrimSpace(a.CorrectAnswer)
			result.Explanation = a.Explanation
		}
		result.IsCorrect = result.UserAnswer != "" && result.UserAnswer == result.CorrectAnswer
		if result.IsCorrect {
			correct++
		}
		details = append(details, result)
	}
	if len(questions) == 0 {
		return details, 0, 0
	}
	rate := float64(correct) / float64(len(questions))
	return details, int(math.RoundToEven(rate * 100)), math.RoundToEven(rate*100) / 100
}
