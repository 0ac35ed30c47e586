package domain

import (
	"strings"
	"time"
)

// ExerciseStatus is the lifecycle state of an exercise.
//
//	generating -> done
//	generating -> failed
//
// done and failed are terminal.
type ExerciseStatus string

const (
	StatusGenerating ExerciseStatus = "generating"
	StatusDone       ExerciseStatus = "done"
	StatusFailed     ExerciseStatus = "failed"
)

// IsTerminal reports whether no further transition may leave s.
func (s ExerciseStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// APIStatus is the status string exposed to clients; done is surfaced as ready.
func (s ExerciseStatus) APIStatus() string {
	if s == StatusDone {
		return "ready"
	}
	return string(s)
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to ExerciseStatus) bool {
	return from == StatusGenerating && to.IsTerminal()
}

// QuestionType tags both an exercise and each of its questions.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	Judgment       QuestionType = "judgment"
	FillBlank      QuestionType = "fill_blank"
	ShortAnswer    QuestionType = "short_answer"
)

var questionTypeLabels = map[QuestionType]string{
	SingleChoice:   "单选题",
	MultipleChoice: "多选题",
	Judgment:       "判断题",
	FillBlank:      "填空题",
	ShortAnswer:    "简答题",
}

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	_, ok := questionTypeLabels[t]
	return ok
}

// Label returns the Chinese display name, or the raw value for unknown types.
func (t QuestionType) Label() string {
	if label, ok := questionTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// APIType is the type string exposed to clients; judgment is surfaced as true_false.
func (t QuestionType) APIType() string {
	if t == Judgment {
		return "true_false"
	}
	return string(t)
}

// HasOptions reports whether items of this type carry lettered options.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultipleChoice || t == Judgment
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyLabels = map[Difficulty]string{
	DifficultyEasy:   "简单",
	DifficultyMedium: "中等",
	DifficultyHard:   "困难",
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyLabels[d]
	return ok
}

func (d Difficulty) Label() string {
	if label, ok := difficultyLabels[d]; ok {
		return label
	}
	return string(d)
}

// DefaultExerciseTitle is used when neither a title nor material is given.
const DefaultExerciseTitle = "AI 出题练习"

const titleFallbackRunes = 30

// ExerciseTitle picks the exercise title: the requested title, else the first
// 30 characters of the material followed by an ellipsis, else the default.
func ExerciseTitle(title, material string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	m := []rune(strings.TrimSpace(material))
	if len(m) == 0 {
		return DefaultExerciseTitle
	}
	if len(m) > titleFallbackRunes {
		return string(m[:titleFallbackRunes]) + "…"
	}
	return string(m)
}

// Exercise is one generated quiz sheet owned by a user.
type Exercise struct {
	ID           string
	OwnerID      string
	Title        string
	Status       ExerciseStatus
	Difficulty   Difficulty
	Count        int
	QuestionType QuestionType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewExercise creates an exercise in the initial generating state.
func NewExercise(id, ownerID, title string, qt QuestionType, difficulty Difficulty, count int) *Exercise {
	now := time.Now().UTC()
	return &Exercise{
		ID:           id,
		OwnerID:      ownerID,
		Title:        title,
		Status:       StatusGenerating,
		Difficulty:   difficulty,
		Count:        count,
		QuestionType: qt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Question is one persisted quiz item. Options keeps the raw option lines in order.
type Question struct {
	ID         string
	ExerciseID string
	Type       QuestionType
	Stem       string
	Options    []string
	Position   int
	CreatedAt  time.Time
}

// Answer belongs 1:1 to a Question; both text fields are required.
type Answer struct {
	ID            string
	QuestionID    string
	CorrectAnswer string
	Explanation   string
	CreatedAt     time.Time
}

// Validate enforces the non-empty answer invariant.
func (a *Answer) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(a.QuestionID) == "" {
		errs = append(errs, NewMissingFieldError("question_id"))
	}
	if strings.TrimSpace(a.CorrectAnswer) == "" {
		errs = append(errs, NewMissingFieldError("correct_answer"))
	}
	if strings.TrimSpace(a.Explanation) == "" {
		errs = append(errs, NewMissingFieldError("explanation"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
