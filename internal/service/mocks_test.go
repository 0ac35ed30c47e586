package service

import (
	"context"
	"io"
	"sync"
	"time"

	"exam-agent/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockExerciseRepository ---
type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) CreateExercise(ctx context.Context, exercise *domain.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) ClaimGenerating(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExerciseRepository) UpdateStatus(ctx context.Context, id string, status domain.ExerciseStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockExerciseRepository) InsertQuestion(ctx context.Context, question *domain.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockExerciseRepository) InsertAnswer(ctx context.Context, answer *domain.Answer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockExerciseRepository) ListQuestions(ctx context.Context, exerciseID string) ([]*domain.Question, error) {
	args := m.Called(ctx, exerciseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockExerciseRepository) ListAnswers(ctx context.Context, exerciseID string) ([]*domain.Answer, error) {
	args := m.Called(ctx, exerciseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Answer), args.Error(1)
}

func (m *MockExerciseRepository) DeleteCascade(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExerciseRepository) FindStaleGenerating(ctx context.Context, createdBefore time.Time) ([]string, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockExerciseRepository) FindEmptyFinished(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- MockExerciseResultRepository ---
type MockExerciseResultRepository struct {
	mock.Mock
}

func (m *MockExerciseResultRepository) CreateResult(ctx context.Context, result *domain.ExerciseResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockExerciseResultRepository) LatestResult(ctx context.Context, exerciseID, ownerID string) (*domain.ExerciseResult, error) {
	args := m.Called(ctx, exerciseID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExerciseResult), args.Error(1)
}

// --- MockCompleter ---
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, *domain.Usage, error) {
	args := m.Called(ctx, prompt)
	var usage *domain.Usage
	if u := args.Get(1); u != nil {
		usage = u.(*domain.Usage)
	}
	return args.String(0), usage, args.Error(2)
}

// --- MockRetriever ---
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string) ([]domain.Snippet, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Snippet), args.Error(1)
}

// passthroughTx runs fn directly; used with the mocked repository.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// scriptedGenerator replays fixed fragments, optionally failing after them.
type scriptedGenerator struct {
	fragments []string
	failWith  error
	usage     *domain.Usage
	openErr   error

	mu      sync.Mutex
	prompts []string
}

func (g *scriptedGenerator) Stream(ctx context.Context, prompt string, count int) (domain.FragmentStream, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.openErr != nil {
		return nil, g.openErr
	}
	return &scriptedStream{fragments: g.fragments, failWith: g.failWith, usage: g.usage}, nil
}

type scriptedStream struct {
	fragments []string
	failWith  error
	usage     *domain.Usage
	pos       int
	closed    bool
}

func (s *scriptedStream) Next() (string, error) {
	if s.pos < len(s.fragments) {
		f := s.fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.failWith != nil {
		return "", s.failWith
	}
	return "", io.EOF
}

func (s *scriptedStream) Usage() *domain.Usage { return s.usage }

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}
