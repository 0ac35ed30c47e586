package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	questions := []*Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}}
	answers := map[string]*Answer{
		"q1": {QuestionID: "q1", CorrectAnswer: " A ", Explanation: "甲"},
		"q2": {QuestionID: "q2", CorrectAnswer: "AC", Explanation: "甲丙"},
		"q3": {QuestionID: "q3", CorrectAnswer: "正确", Explanation: "常识"},
	}

	details, score, rate := Grade(questions, answers, map[string]string{
		"q1":    "A",
		"q2":    "A,C",
		"extra": "B",
	})
	require.Len(t, details, 3)
	assert.Equal(t, QuestionResult{QuestionID: "q1", IsCorrect: true, UserAnswer: "A", CorrectAnswer: "A", Explanation: "甲"}, details[0])
	assert.False(t, details[1].IsCorrect)
	assert.False(t, details[2].IsCorrect)
	assert.Empty(t, details[2].UserAnswer)
	assert.Equal(t, 33, score)
	assert.Equal(t, 0.33, rate)
}

func TestGrade_Rounding(t *testing.T) {
	questions := make([]*Question, 8)
	answers := map[string]*Answer{}
	submitted := map[string]string{}
	for i := range questions {
		id := string(rune('a' + i))
		questions[i] = &Question{ID: id}
		answers[id] = &Answer{QuestionID: id, CorrectAnswer: "A"}
	}
	submitted["a"] = "A"

	_, score, rate := Grade(questions, answers, submitted)
	// 12.5 rounds half to even
	assert.Equal(t, 12, score)
	assert.Equal(t, 0.12, rate)
}

func TestGrade_NoQuestions(t *testing.T) {
	details, score, rate := Grade(nil, nil, map[string]string{"q1": "A"})
	assert.Empty(t, details)
	assert.Zero(t, score)
	assert.Zero(t, rate)
}

func TestGrade_MissingStoredAnswer(t *testing.T) {
	details, score, _ := Grade([]*Question{{ID: "q1"}}, map[string]*Answer{}, map[string]string{"q1": "A"})
	require.Len(t, details, 1)
	assert.False(t, details[0].IsCorrect)
	assert.Empty(t, details[0].CorrectAnswer)
	assert.Zero(t, score)

	details, _, _ = Grade([]*Question{{ID: "q1"}}, map[string]*Answer{}, nil)
	assert.False(t, details[0].IsCorrect)
}
