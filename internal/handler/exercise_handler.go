package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/dto"
	"exam-agent/internal/logger"
	"exam-agent/internal/middleware"
	"exam-agent/internal/quiztext"
	"exam-agent/internal/service"
	"exam-agent/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ExerciseHandler handles exercise generation and lookup requests
type ExerciseHandler struct {
	pipeline  service.GenerationPipeline
	analyzer  service.MaterialAnalyzer
	exercises service.ExerciseService
	validator *validation.Validator
	ownerID   string
}

// NewExerciseHandler creates a new ExerciseHandler instance
func NewExerciseHandler(
	pipeline service.GenerationPipeline,
	analyzer service.MaterialAnalyzer,
	exercises service.ExerciseService,
	ownerID string,
) *ExerciseHandler {
	return &ExerciseHandler{
		pipeline:  pipeline,
		analyzer:  analyzer,
		exercises: exercises,
		validator: validation.NewValidator(),
		ownerID:   ownerID,
	}
}

// Register mounts the exercise routes on router.
func (h *ExerciseHandler) Register(router fiber.Router) {
	ids := middleware.NewValidationMiddleware()
	router.Post("/exercises/generate-from-text", h.GenerateFromText)
	router.Post("/exercises/analyze", h.Analyze)
	router.Get("/exercises/:id", ids.ValidateExerciseID(), h.GetExercise)
	router.Delete("/exercises/:id", ids.ValidateExerciseID(), h.DeleteExercise)
	router.Post("/exercises/:id/submit", ids.ValidateExerciseID(), h.SubmitExercise)
}

// GenerateFromText handles POST /api/exercises/generate-from-text.
// The response streams raw model fragments, then a newline and one JSON line
// carrying the exercise ID, usage or error.
func (h *ExerciseHandler) GenerateFromText(c *fiber.Ctx) error {
	var body dto.GenerateFromTextRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateGenerateRequest(&body); len(errs) > 0 {
		return errs
	}

	req := service.GenerateRequest{
		OwnerID:      h.ownerID,
		Title:        body.Title,
		Material:     body.Content,
		QuestionType: domain.QuestionType(body.QuestionType),
		Difficulty:   domain.Difficulty(body.Difficulty),
		Count:        *body.Count,
		KeyPoints:    body.KeyPoints,
		Analysis:     body.Analysis,
	}
	exercise, err := h.pipeline.CreateExercise(c.UserContext(), req)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	base := c.UserContext()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		sink := func(fragment string) error {
			if _, err := w.WriteString(fragment); err != nil {
				cancel()
				return err
			}
			if err := w.Flush(); err != nil {
				cancel()
				return err
			}
			return nil
		}
		payload := h.pipeline.Run(ctx, exercise, req, sink)

		line, err := json.Marshal(payload)
		if err != nil {
			logger.Get().Error("Failed to encode terminal payload", zap.Error(err))
			return
		}
		_, _ = w.WriteString("\n")
		_, _ = w.Write(line)
		if err := w.Flush(); err != nil {
			logger.Get().Warn("Client gone before terminal payload",
				zap.String("exercise_id", exercise.ID), zap.Error(err))
		}
	})
	return nil
}

// Analyze handles POST /api/exercises/analyze.
func (h *ExerciseHandler) Analyze(c *fiber.Ctx) error {
	var body dto.AnalyzeRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateAnalyzeRequest(&body); len(errs) > 0 {
		return errs
	}

	qt := domain.QuestionType(body.QuestionType)
	difficulty := domain.Difficulty(body.Difficulty)
	start := time.Now()
	analysis, err := h.analyzer.Analyze(c.UserContext(), body.Content, qt, difficulty, *body.Count)
	if err != nil {
		return err
	}
	logger.Get().Info("Material analyzed",
		zap.Int("key_points", len(analysis.KeyPoints)),
		zap.Duration("duration", time.Since(start)))

	return c.JSON(dto.AnalyzeResponse{
		KeyPoints:         analysis.KeyPoints,
		Title:             analysis.Title,
		QuestionType:      string(qt),
		QuestionTypeLabel: qt.Label(),
		Difficulty:        string(difficulty),
		DifficultyLabel:   difficulty.Label(),
		Count:             *body.Count,
		Usage:             analysis.Usage,
	})
}

// GetExercise handles GET /api/exercises/:id. Answers are included with
// ?includeAnswers=true.
func (h *ExerciseHandler) GetExercise(c *fiber.Ctx) error {
	id := c.Locals(middleware.ExerciseIDKey).(string)
	detail, err := h.exercises.GetExercise(c.UserContext(), id, service.DetailQuery{
		OwnerID:        h.ownerID,
		IncludeAnswers: c.QueryBool("includeAnswers"),
	})
	if err != nil {
		return err
	}
	return c.JSON(toDetailResponse(detail))
}

// DeleteExercise handles DELETE /api/exercises/:id.
func (h *ExerciseHandler) DeleteExercise(c *fiber.Ctx) error {
	id := c.Locals(middleware.ExerciseIDKey).(string)
	if err := h.exercises.DeleteExercise(c.UserContext(), id); err != nil {
		return err
	}
	logger.Get().Info("Exercise deleted", zap.String("exercise_id", id))
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitExercise handles POST /api/exercises/:id/submit. Later answers for
// the same question ID override earlier ones.
func (h *ExerciseHandler) SubmitExercise(c *fiber.Ctx) error {
	id := c.Locals(middleware.ExerciseIDKey).(string)
	var body dto.SubmitRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateSubmitRequest(&body); len(errs) > 0 {
		return errs
	}

	answers := make(map[string]string, len(body.Answers))
	for _, item := range body.Answers {
		answers[item.QuestionID] = item.Answer
	}
	result, err := h.exercises.Submit(c.UserContext(), id, h.ownerID, answers)
	if err != nil {
		return err
	}

	items := make([]dto.ResultItem, 0, len(result.Details))
	for _, d := range result.Details {
		items = append(items, dto.ResultItem{
			QuestionID:    d.QuestionID,
			IsCorrect:     d.IsCorrect,
			UserAnswer:    d.UserAnswer,
			CorrectAnswer: d.CorrectAnswer,
			Analysis:      d.Explanation,
		})
	}
	return c.JSON(dto.SubmitResponse{
		Score:       result.Score,
		CorrectRate: result.CorrectRate,
		Results:     items,
	})
}

func toDetailResponse(detail *service.ExerciseDetail) dto.ExerciseDetailResponse {
	ex := detail.Exercise
	items := make([]dto.QuestionItem, 0, len(detail.Questions))
	for _, q := range detail.Questions {
		item := dto.QuestionItem{
			QuestionID: q.ID,
			Type:       q.Type.APIType(),
			Stem:       q.Stem,
		}
		if opts := quiztext.OptionsToMapping(q.Options); len(opts) > 0 {
			item.Options = opts
		}
		if a, ok := detail.Answers[q.ID]; ok {
			item.Answer = a.CorrectAnswer
			item.Explanation = a.Explanation
		}
		items = append(items, item)
	}
	return dto.ExerciseDetailResponse{
		ExerciseID:        ex.ID,
		Title:             ex.Title,
		Status:            ex.Status.APIStatus(),
		Difficulty:        string(ex.Difficulty),
		Count:             ex.Count,
		QuestionType:      string(ex.QuestionType),
		QuestionTypeLabel: ex.QuestionType.Label(),
		Questions:         items,
		CreatedAt:         ex.CreatedAt.Format(time.RFC3339),
		Score:             detail.Score,
	}
}
