package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

const resultColumns = `id, exercise_id, owner_id, score, correct_rate, result_details, submitted_at`

// ResultDatabaseAdapter implements domain.ExerciseResultRepository with sqlx.
type ResultDatabaseAdapter struct {
	db *sqlx.DB
}

func NewResultDatabaseAdapter(db *sqlx.DB) domain.ExerciseResultRepository {
	return &ResultDatabaseAdapter{db: db}
}

// CreateResult inserts one graded submission.
func (r *ResultDatabaseAdapter) CreateResult(ctx context.Context, result *domain.ExerciseResult) error {
	m := toModelResult(result)
	if m.SubmittedAt.IsZero() {
		m.SubmittedAt = time.Now().UTC()
	}
	// Convert to text manually for Oracle compatibility
	details, err := m.ResultDetails.Value()
	if err != nil {
		return fmt.Errorf("failed to encode result details: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	query := executor.Rebind(`INSERT INTO exercise_results (` + resultColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := executor.ExecContext(ctx, query,
		m.ID, m.ExerciseID, m.OwnerID, m.Score, m.CorrectRate, details, m.SubmittedAt,
	); err != nil {
		return fmt.Errorf("failed to create exercise result: %w", err)
	}
	return nil
}

func (r *ResultDatabaseAdapter) LatestResult(ctx context.Context, exerciseID, ownerID string) (*domain.ExerciseResult, error) {
	executor := GetExecutor(ctx, r.db)
	var rows []models.ExerciseResult
	query := executor.Rebind(`SELECT ` + resultColumns + ` FROM exercise_results
		WHERE exercise_id = ? AND owner_id = ? ORDER BY submitted_at DESC`)
	if err := executor.SelectContext(ctx, &rows, query, exerciseID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get latest exercise result: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toDomainResult(&rows[0]), nil
}

func toModelResult(res *domain.ExerciseResult) *models.ExerciseResult {
	details := make(models.ResultDetails, 0, len(res.Details))
	for _, d := range res.Details {
		details = append(details, models.ResultDetail{
			QuestionID:    d.QuestionID,
			IsCorrect:     d.IsCorrect,
			UserAnswer:    d.UserAnswer,
			CorrectAnswer: d.CorrectAnswer,
			Analysis:      d.Explanation,
		})
	}
	return &models.ExerciseResult{
		ID:            res.ID,
		ExerciseID:    res.ExerciseID,
		OwnerID:       res.OwnerID,
		Score:         res.Score,
		CorrectRate:   int(math.RoundToEven(res.CorrectRate * 100)),
		ResultDetails: details,
		SubmittedAt:   res.SubmittedAt,
	}
}

func toDomainResult(m *models.ExerciseResult) *domain.ExerciseResult {
	details := make([]domain.QuestionResult, 0, len(m.ResultDetails))
	for _, d := range m.ResultDetails {
		details = append(details, domain.QuestionResult{
			QuestionID:    d.QuestionID,
			IsCorrect:     d.IsCorrect,
			UserAnswer:    d.UserAnswer,
			CorrectAnswer: d.CorrectAnswer,
			Explanation:   d.Analysis,
		})
	}
	return &domain.ExerciseResult{
		ID:          m.ID,
		ExerciseID:  m.ExerciseID,
		OwnerID:     m.OwnerID,
		Score:       m.Score,
		CorrectRate: float64(m.CorrectRate) / 100,
		Details:     details,
		SubmittedAt: m.SubmittedAt,
	}
}
