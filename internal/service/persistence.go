package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/util"

	"go.uber.org/zap"
)

const defaultPersistenceTimeout = 30 * time.Second

// PersistenceService writes accepted items and finalises the exercise status.
type PersistenceService interface {
	// Persist stores items in one transaction and marks the exercise done.
	// On failure the exercise is marked failed in a separate write.
	Persist(ctx context.Context, exerciseID string, qt domain.QuestionType, items []domain.ParsedItem) (int, error)
	MarkFailed(ctx context.Context, exerciseID string) error
}

type persistenceService struct {
	repo    domain.ExerciseRepository
	tx      domain.TransactionManager
	timeout time.Duration
}

func NewPersistenceService(repo domain.ExerciseRepository, tx domain.TransactionManager, timeout time.Duration) PersistenceService {
	if timeout <= 0 {
		timeout = defaultPersistenceTimeout
	}
	return &persistenceService{repo: repo, tx: tx, timeout: timeout}
}

// detach drops cancellation from ctx and applies the persistence timeout.
func (s *persistenceService) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func (s *persistenceService) Persist(ctx context.Context, exerciseID string, qt domain.QuestionType, items []domain.ParsedItem) (int, error) {
	ctx, cancel := s.detach(ctx)
	defer cancel()
	log := logger.Get().With(zap.String("exercise_id", exerciseID))

	if len(items) == 0 {
		log.Warn("No accepted items, exercise will be marked done without questions")
	}

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.ClaimGenerating(txCtx, exerciseID); err != nil {
			return err
		}
		now := time.Now().UTC()
		for i, item := range items {
			question := &domain.Question{
				ID:         util.NewULID(),
				ExerciseID: exerciseID,
				Type:       qt,
				Stem:       strings.TrimSpace(item.Stem),
				Options:    item.Options,
				Position:   i,
				CreatedAt:  now,
			}
			if err := s.repo.InsertQuestion(txCtx, question); err != nil {
				return err
			}
			answer := &domain.Answer{
				ID:            util.NewULID(),
				QuestionID:    question.ID,
				CorrectAnswer: strings.TrimSpace(item.Answer),
				Explanation:   strings.TrimSpace(item.Explanation),
				CreatedAt:     now,
			}
			if err := s.repo.InsertAnswer(txCtx, answer); err != nil {
				return err
			}
		}
		return s.repo.UpdateStatus(txCtx, exerciseID, domain.StatusDone)
	})
	if err != nil {
		log.Error("Persisting exercise failed", zap.Error(err), zap.Int("items", len(items)))
		if markErr := s.MarkFailed(ctx, exerciseID); markErr != nil {
			if errors.Is(markErr, domain.ErrNotGenerating) {
				log.Info("Exercise no longer generating, status left unchanged")
			} else {
				log.Error("Marking exercise failed also failed", zap.Error(markErr))
			}
		}
		return 0, domain.NewPersistenceError(exerciseID, err)
	}

	log.Info("Exercise persisted", zap.Int("items_accepted", len(items)))
	return len(items), nil
}

func (s *persistenceService) MarkFailed(ctx context.Context, exerciseID string) error {
	ctx, cancel := s.detach(ctx)
	defer cancel()
	return s.repo.UpdateStatus(ctx, exerciseID, domain.StatusFailed)
}
