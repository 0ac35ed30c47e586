package service

import (
	"context"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/util"

	"go.uber.org/zap"
)

// ExerciseDetail is an exercise with its questions and, when requested, answers
// keyed by question ID. Score is the owner's latest submission score, if any.
type ExerciseDetail struct {
	Exercise  *domain.Exercise
	Questions []*domain.Question
	Answers   map[string]*domain.Answer
	Score     *int
}

// DetailQuery selects what GetExercise loads besides the questions.
type DetailQuery struct {
	OwnerID        string
	IncludeAnswers bool
}

// ExerciseService serves reads, deletes and graded submissions of stored exercises.
type ExerciseService interface {
	GetExercise(ctx context.Context, id string, query DetailQuery) (*ExerciseDetail, error)
	DeleteExercise(ctx context.Context, id string) error
	// Submit grades answers keyed by question ID and records the result.
	Submit(ctx context.Context, id, ownerID string, answers map[string]string) (*domain.ExerciseResult, error)
}

type exerciseService struct {
	repo    domain.ExerciseRepository
	results domain.ExerciseResultRepository
	tx      domain.TransactionManager
	now     func() time.Time
}

// NewExerciseService creates the exercise read/submit service. A nil results
// repository disables scores and submissions.
func NewExerciseService(repo domain.ExerciseRepository, results domain.ExerciseResultRepository, tx domain.TransactionManager) ExerciseService {
	return &exerciseService{repo: repo, results: results, tx: tx, now: time.Now}
}

func (s *exerciseService) GetExercise(ctx context.Context, id string, query DetailQuery) (*ExerciseDetail, error) {
	exercise, err := s.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load questions", err)
	}
	detail := &ExerciseDetail{Exercise: exercise, Questions: questions}

	if s.results != nil && query.OwnerID != "" {
		latest, err := s.results.LatestResult(ctx, id, query.OwnerID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to load latest result", err)
		}
		if latest != nil {
			score := latest.Score
			detail.Score = &score
		}
	}
	if !query.IncludeAnswers {
		return detail, nil
	}

	answers, err := s.answersByQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Answers = answers
	return detail, nil
}

func (s *exerciseService) answersByQuestion(ctx context.Context, id string) (map[string]*domain.Answer, error) {
	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load answers", err)
	}
	byQuestion := make(map[string]*domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	return byQuestion, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, id string) error {
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteCascade(txCtx, id)
	})
}

// Submit only accepts exercises whose generation has finished.
func (s *exerciseService) Submit(ctx context.Context, id, ownerID string, answers map[string]string) (*domain.ExerciseResult, error) {
	if s.results == nil {
		return nil, domain.NewInternalError("Submissions are not configured", nil)
	}

	var result *domain.ExerciseResult
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exercise, err := s.repo.GetExercise(txCtx, id)
		if err != nil {
			return err
		}
		if exercise.Status != domain.StatusDone {
			return domain.NewExerciseNotReadyError(id, exercise.Status)
		}
		questions, err := s.repo.ListQuestions(txCtx, id)
		if err != nil {
			return domain.NewInternalError("Failed to load questions", err)
		}
		stored, err := s.answersByQuestion(txCtx, id)
		if err != nil {
			return err
		}

		details, score, rate := domain.Grade(questions, stored, answers)
		result = &domain.ExerciseResult{
			ID:          util.NewULID(),
			ExerciseID:  id,
			OwnerID:     ownerID,
			Score:       score,
			CorrectRate: rate,
			Details:     details,
			SubmittedAt: s.now().UTC(),
		}
		if err := s.results.CreateResult(txCtx, result); err != nil {
			return domain.NewInternalError("Failed to save result", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Exercise submitted",
		zap.String("exercise_id", id),
		zap.Int("questions", len(result.Details)),
		zap.Int("score", result.Score))
	return result, nil
}
