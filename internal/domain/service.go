package domain

import (
	"context"
	"time"
)

// Retriever returns ranked knowledge-base snippets for a query. An empty
// result is valid; callers treat errors as "no retrieval".
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Snippet, error)
}

// FragmentStream is a finite, single-pass sequence of answer-content fragments.
// Next returns io.EOF once the stream is exhausted; any other error is a
// generation failure. Usage is only meaningful after io.EOF.
type FragmentStream interface {
	Next() (string, error)
	Usage() *Usage
	Close() error
}

// Generator opens one streaming generation call for a prompt. count is the
// number of items the prompt asks for and sizes the completion budget.
type Generator interface {
	Stream(ctx context.Context, prompt string, count int) (FragmentStream, error)
}

// Completer performs one non-streaming model call and returns the answer text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, *Usage, error)
}

// ExerciseRepository defines the interface for exercise persistence.
// Status writes only succeed while the exercise is still generating and
// return an ErrNotGenerating match otherwise.
type ExerciseRepository interface {
	CreateExercise(ctx context.Context, exercise *Exercise) error
	GetExercise(ctx context.Context, id string) (*Exercise, error)

	// ClaimGenerating locks in that the exercise still exists and is generating
	// for the remainder of the current transaction.
	ClaimGenerating(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status ExerciseStatus) error

	InsertQuestion(ctx context.Context, question *Question) error
	InsertAnswer(ctx context.Context, answer *Answer) error
	ListQuestions(ctx context.Context, exerciseID string) ([]*Question, error)
	ListAnswers(ctx context.Context, exerciseID string) ([]*Answer, error)

	// DeleteCascade removes results, answers, questions and the exercise row.
	DeleteCascade(ctx context.Context, id string) error
	FindStaleGenerating(ctx context.Context, createdBefore time.Time) ([]string, error)
	FindEmptyFinished(ctx context.Context) ([]string, error)
}

// ExerciseResultRepository stores graded submissions.
type ExerciseResultRepository interface {
	CreateResult(ctx context.Context, result *ExerciseResult) error
	// LatestResult returns the most recent submission of ownerID, or nil when
	// there is none.
	LatestResult(ctx context.Context, exerciseID, ownerID string) (*ExerciseResult, error)
}

// TransactionManager runs fn inside one storage transaction carried by the
// context passed to fn.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
