package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/observability"
	"exam-agent/internal/prompt"
	"exam-agent/internal/quiztext"
	"exam-agent/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GenerationFailedMessage is the client-facing error of a failed stream.
const GenerationFailedMessage = "生成失败"

// GenerateRequest is one validated request to generate an exercise from text.
type GenerateRequest struct {
	OwnerID      string
	Title        string
	Material     string
	QuestionType domain.QuestionType
	Difficulty   domain.Difficulty
	Count        int
	KeyPoints    []string
	Analysis     string
}

// TerminalPayload is the JSON line that ends every generation response.
type TerminalPayload struct {
	Error      string        `json:"error,omitempty"`
	ExerciseID string        `json:"exerciseId"`
	Usage      *domain.Usage `json:"usage,omitempty"`
}

// FragmentSink receives streamed answer fragments in order. An error aborts
// the run.
type FragmentSink func(fragment string) error

// GenerationPipeline drives one exercise from creation to a terminal status.
type GenerationPipeline interface {
	// CreateExercise inserts the generating row before any model call.
	CreateExercise(ctx context.Context, req GenerateRequest) (*domain.Exercise, error)
	// Run streams the generation to sink, then parses, backfills and persists.
	// It always returns a payload.
	Run(ctx context.Context, exercise *domain.Exercise, req GenerateRequest, sink FragmentSink) TerminalPayload
}

type generationPipeline struct {
	repo         domain.ExerciseRepository
	contexts     ContextRetriever
	generator    domain.Generator
	backfill     BackfillService
	persistence  PersistenceService
	debugPrompts bool
}

func NewGenerationPipeline(
	repo domain.ExerciseRepository,
	contexts ContextRetriever,
	generator domain.Generator,
	backfill BackfillService,
	persistence PersistenceService,
	debugPrompts bool,
) GenerationPipeline {
	return &generationPipeline{
		repo:         repo,
		contexts:     contexts,
		generator:    generator,
		backfill:     backfill,
		persistence:  persistence,
		debugPrompts: debugPrompts,
	}
}

func (p *generationPipeline) CreateExercise(ctx context.Context, req GenerateRequest) (*domain.Exercise, error) {
	exercise := domain.NewExercise(
		util.NewULID(),
		req.OwnerID,
		domain.ExerciseTitle(req.Title, req.Material),
		req.QuestionType,
		req.Difficulty,
		req.Count,
	)
	if err := p.repo.CreateExercise(ctx, exercise); err != nil {
		return nil, domain.NewInternalError("Failed to create exercise", err)
	}
	logger.Get().Info("Exercise created",
		zap.String("exercise_id", exercise.ID),
		zap.String("question_type", string(exercise.QuestionType)),
		zap.Int("count", exercise.Count))
	return exercise, nil
}

func (p *generationPipeline) Run(ctx context.Context, exercise *domain.Exercise, req GenerateRequest, sink FragmentSink) TerminalPayload {
	ctx, span := observability.Tracer().Start(ctx, "generation.run", trace.WithAttributes(
		attribute.String("exercise.id", exercise.ID),
		attribute.String("exercise.question_type", string(exercise.QuestionType)),
		attribute.Int("exercise.count", exercise.Count),
	))
	defer span.End()
	log := logger.Get().With(zap.String("exercise_id", exercise.ID))

	var retrieved string
	if p.contexts != nil {
		retrieved, _ = p.contexts.RetrieveContext(ctx, req.Material)
	}
	promptText := prompt.Assemble(prompt.Input{
		Material:     req.Material,
		QuestionType: exercise.QuestionType,
		Difficulty:   exercise.Difficulty,
		Count:        exercise.Count,
		IntentText: prompt.BuildIntent(prompt.Intent{
			Title:        exercise.Title,
			QuestionType: exercise.QuestionType,
			Difficulty:   exercise.Difficulty,
			Count:        exercise.Count,
			KeyPoints:    req.KeyPoints,
			Analysis:     req.Analysis,
		}),
		RetrievedContext: retrieved,
	})
	if p.debugPrompts {
		log.Debug("Generation prompt", zap.String("prompt", promptText))
	}

	full, usage, err := p.consume(ctx, promptText, exercise.Count, sink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation aborted")
		log.Error("Generation stream aborted, exercise left generating", zap.Error(err))
		return TerminalPayload{Error: GenerationFailedMessage, ExerciseID: exercise.ID}
	}
	log.Info("Generation stream finished", zap.Int("chars", len([]rune(full))))
	if p.debugPrompts {
		log.Debug("Generation output", zap.String("output", full))
	}

	items := quiztext.Parse(full)
	outcomes := p.backfill.ResolveAll(ctx, items, exercise.QuestionType)
	accepted := domain.AcceptedItems(outcomes)
	log.Info("Generation output parsed",
		zap.Int("items_parsed", len(items)),
		zap.Int("items_accepted", len(accepted)))
	span.SetAttributes(
		attribute.Int("items.parsed", len(items)),
		attribute.Int("items.accepted", len(accepted)),
	)

	if _, err := p.persistence.Persist(ctx, exercise.ID, exercise.QuestionType, accepted); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
	}
	return TerminalPayload{ExerciseID: exercise.ID, Usage: usage}
}

// consume forwards every fragment to sink and returns the concatenated text.
func (p *generationPipeline) consume(ctx context.Context, promptText string, count int, sink FragmentSink) (string, *domain.Usage, error) {
	stream, err := p.generator.Stream(ctx, promptText, count)
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()

	var buf strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return buf.String(), stream.Usage(), nil
		}
		if err != nil {
			return "", nil, err
		}
		buf.WriteString(fragment)
		if err := sink(fragment); err != nil {
			return "", nil, err
		}
	}
}
