package service

import (
	"context"
	"errors"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"

	"go.uber.org/zap"
)

// SweepResult lists what a sweep found and what it removed.
type SweepResult struct {
	Stale   []string
	Empty   []string
	Deleted int
}

// Sweeper removes exercises abandoned in generating and finished exercises
// that ended up with no questions.
type Sweeper interface {
	Sweep(ctx context.Context, staleAfter time.Duration, dryRun bool) (*SweepResult, error)
}

type sweeper struct {
	repo domain.ExerciseRepository
	tx   domain.TransactionManager
	now  func() time.Time
}

func NewSweeper(repo domain.ExerciseRepository, tx domain.TransactionManager) Sweeper {
	return &sweeper{repo: repo, tx: tx, now: time.Now}
}

func (s *sweeper) Sweep(ctx context.Context, staleAfter time.Duration, dryRun bool) (*SweepResult, error) {
	log := logger.Get()
	cutoff := s.now().UTC().Add(-staleAfter)

	stale, err := s.repo.FindStaleGenerating(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	empty, err := s.repo.FindEmptyFinished(ctx)
	if err != nil {
		return nil, err
	}
	result := &SweepResult{Stale: stale, Empty: empty}
	log.Info("Sweep candidates found",
		zap.Time("cutoff", cutoff),
		zap.Int("stale", len(stale)),
		zap.Int("empty", len(empty)),
		zap.Bool("dry_run", dryRun))
	if dryRun {
		return result, nil
	}

	for _, id := range append(append([]string{}, stale...), empty...) {
		err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			return s.repo.DeleteCascade(txCtx, id)
		})
		if err != nil {
			var de *domain.DomainError
			if errors.As(err, &de) && de.Code == domain.ErrNotFound {
				continue
			}
			log.Error("Failed to delete exercise", zap.String("exercise_id", id), zap.Error(err))
			continue
		}
		result.Deleted++
	}
	log.Info("Sweep finished", zap.Int("deleted", result.Deleted))
	return result, nil
}
