package service

import (
	"context"
	"strings"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/prompt"
	"exam-agent/internal/quiztext"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackfillService completes parsed items that lack an answer or explanation.
type BackfillService interface {
	Resolve(ctx context.Context, item domain.ParsedItem, qt domain.QuestionType) domain.ItemOutcome
	// ResolveAll returns one outcome per item, in input order.
	ResolveAll(ctx context.Context, items []domain.ParsedItem, qt domain.QuestionType) []domain.ItemOutcome
}

type backfillService struct {
	completer   domain.Completer
	concurrency int
	timeout     time.Duration
}

// NewBackfillService creates a BackfillService. concurrency below 1 means
// items are resolved one at a time.
func NewBackfillService(completer domain.Completer, concurrency int, timeout time.Duration) BackfillService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &backfillService{completer: completer, concurrency: concurrency, timeout: timeout}
}

func (s *backfillService) Resolve(ctx context.Context, item domain.ParsedItem, qt domain.QuestionType) domain.ItemOutcome {
	if item.Complete() {
		return domain.Accepted(item)
	}
	if s.completer != nil {
		item = s.fill(ctx, item, qt)
	}

	outcome := domain.Classify(item)
	if !outcome.IsAccepted() {
		logger.Get().Info("Dropping incomplete item",
			zap.String("reason", string(outcome.Reason)),
			zap.String("stem", prompt.Truncate(item.Stem, 80)))
	}
	return outcome
}

// fill makes exactly one model call and copies any non-empty field of the
// reply into the matching empty field of item.
func (s *backfillService) fill(ctx context.Context, item domain.ParsedItem, qt domain.QuestionType) domain.ParsedItem {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, usage, err := s.completer.Complete(callCtx, prompt.Backfill(item.Stem, item.Options, qt))
	if err != nil {
		logger.Get().Warn("Backfill call failed", zap.Error(err), zap.String("stem", prompt.Truncate(item.Stem, 80)))
		reply = ""
	}
	if usage != nil {
		logger.Get().Debug("Backfill usage", zap.Int("total_tokens", usage.TotalTokens))
	}

	answer, explanation := quiztext.ParseAnswerReply(reply)
	if strings.TrimSpace(item.Answer) == "" && answer != "" {
		item.Answer = answer
	}
	if strings.TrimSpace(item.Explanation) == "" && explanation != "" {
		item.Explanation = explanation
	}
	return item
}

func (s *backfillService) ResolveAll(ctx context.Context, items []domain.ParsedItem, qt domain.QuestionType) []domain.ItemOutcome {
	outcomes := make([]domain.ItemOutcome, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = s.Resolve(gctx, item, qt)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
