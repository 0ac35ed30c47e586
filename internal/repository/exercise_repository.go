package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"exam-agent/internal/domain"
	"exam-agent/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

const exerciseColumns = `id, owner_id, title, status, difficulty, item_count, question_type, created_at, updated_at`

const questionColumns = `id, exercise_id, question_type, stem, options, ordinal, created_at`

// ExerciseDatabaseAdapter implements domain.ExerciseRepository with sqlx.
// Queries are written with ? placeholders and rebound for the active driver.
type ExerciseDatabaseAdapter struct {
	db *sqlx.DB
}

func NewExerciseDatabaseAdapter(db *sqlx.DB) domain.ExerciseRepository {
	return &ExerciseDatabaseAdapter{db: db}
}

func (r *ExerciseDatabaseAdapter) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	executor := GetExecutor(ctx, r.db)
	return executor.ExecContext(ctx, executor.Rebind(query), args...)
}

func (r *ExerciseDatabaseAdapter) CreateExercise(ctx context.Context, exercise *domain.Exercise) error {
	m := toModelExercise(exercise)
	query := `INSERT INTO exercises (` + exerciseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.exec(ctx, query,
		m.ID, m.OwnerID, m.Title, m.Status, m.Difficulty, m.ItemCount, m.QuestionType, m.CreatedAt, m.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

func (r *ExerciseDatabaseAdapter) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	executor := GetExecutor(ctx, r.db)
	var m models.Exercise
	query := executor.Rebind(`SELECT ` + exerciseColumns + ` FROM exercises WHERE id = ?`)
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewExerciseNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return toDomainExercise(&m), nil
}

// ClaimGenerating touches the row under the generating guard. Inside a
// transaction this takes the row lock, so a concurrent delete or status write
// either waits for the commit or has already made the claim fail.
func (r *ExerciseDatabaseAdapter) ClaimGenerating(ctx context.Context, id string) error {
	res, err := r.exec(ctx,
		`UPDATE exercises SET updated_at = ? WHERE id = ? AND status = ?`,
		time.Now().UTC(), id, string(domain.StatusGenerating))
	if err != nil {
		return fmt.Errorf("failed to claim exercise: %w", err)
	}
	return requireAffected(res, id)
}

func (r *ExerciseDatabaseAdapter) UpdateStatus(ctx context.Context, id string, status domain.ExerciseStatus) error {
	if !domain.CanTransition(domain.StatusGenerating, status) {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid target status: %s", status))
	}
	res, err := r.exec(ctx,
		`UPDATE exercises SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status), time.Now().UTC(), id, string(domain.StatusGenerating))
	if err != nil {
		return fmt.Errorf("failed to update exercise status: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NewNotGeneratingError(id)
	}
	return nil
}

func (r *ExerciseDatabaseAdapter) InsertQuestion(ctx context.Context, question *domain.Question) error {
	m := toModelQuestion(question)
	options, err := m.Options.Value()
	if err != nil {
		return fmt.Errorf("failed to encode question options: %w", err)
	}
	query := `INSERT INTO questions (` + questionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.exec(ctx, query,
		m.ID, m.ExerciseID, m.QuestionType, m.Stem, options, m.Ordinal, m.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (r *ExerciseDatabaseAdapter) InsertAnswer(ctx context.Context, answer *domain.Answer) error {
	if err := answer.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO answers (id, question_id, correct_answer, explanation, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.exec(ctx, query,
		answer.ID, answer.QuestionID, answer.CorrectAnswer, answer.Explanation, answer.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

func (r *ExerciseDatabaseAdapter) ListQuestions(ctx context.Context, exerciseID string) ([]*domain.Question, error) {
	executor := GetExecutor(ctx, r.db)
	var rows []models.Question
	query := executor.Rebind(`SELECT ` + questionColumns + ` FROM questions WHERE exercise_id = ? ORDER BY ordinal`)
	if err := executor.SelectContext(ctx, &rows, query, exerciseID); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	questions := make([]*domain.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, toDomainQuestion(&rows[i]))
	}
	return questions, nil
}

func (r *ExerciseDatabaseAdapter) ListAnswers(ctx context.Context, exerciseID string) ([]*domain.Answer, error) {
	executor := GetExecutor(ctx, r.db)
	var rows []models.Answer
	query := executor.Rebind(`SELECT a.id, a.question_id, a.correct_answer, a.explanation, a.created_at
		FROM answers a JOIN questions q ON q.id = a.question_id
		WHERE q.exercise_id = ? ORDER BY q.ordinal`)
	if err := executor.SelectContext(ctx, &rows, query, exerciseID); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	answers := make([]*domain.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, &domain.Answer{
			ID:            row.ID,
			QuestionID:    row.QuestionID,
			CorrectAnswer: row.CorrectAnswer,
			Explanation:   row.Explanation,
			CreatedAt:     row.CreatedAt,
		})
	}
	return answers, nil
}

// DeleteCascade removes submissions and answers, then questions, then the
// exercise row.
func (r *ExerciseDatabaseAdapter) DeleteCascade(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM exercise_results WHERE exercise_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete exercise results: %w", err)
	}
	if _, err := r.exec(ctx,
		`DELETE FROM answers WHERE question_id IN (SELECT id FROM questions WHERE exercise_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if _, err := r.exec(ctx, `DELETE FROM questions WHERE exercise_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	res, err := r.exec(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NewExerciseNotFoundError(id)
	}
	return nil
}

func (r *ExerciseDatabaseAdapter) FindStaleGenerating(ctx context.Context, createdBefore time.Time) ([]string, error) {
	executor := GetExecutor(ctx, r.db)
	var ids []string
	query := executor.Rebind(`SELECT id FROM exercises WHERE status = ? AND created_at < ? ORDER BY created_at`)
	if err := executor.SelectContext(ctx, &ids, query, string(domain.StatusGenerating), createdBefore.UTC()); err != nil {
		return nil, fmt.Errorf("failed to find stale exercises: %w", err)
	}
	return ids, nil
}

func (r *ExerciseDatabaseAdapter) FindEmptyFinished(ctx context.Context) ([]string, error) {
	executor := GetExecutor(ctx, r.db)
	var ids []string
	query := executor.Rebind(`SELECT e.id FROM exercises e
		WHERE e.status <> ?
		AND NOT EXISTS (SELECT 1 FROM questions q WHERE q.exercise_id = e.id)
		ORDER BY e.created_at`)
	if err := executor.SelectContext(ctx, &ids, query, string(domain.StatusGenerating)); err != nil {
		return nil, fmt.Errorf("failed to find empty exercises: %w", err)
	}
	return ids, nil
}

func toModelExercise(e *domain.Exercise) *models.Exercise {
	return &models.Exercise{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		Title:        e.Title,
		Status:       string(e.Status),
		Difficulty:   string(e.Difficulty),
		ItemCount:    e.Count,
		QuestionType: string(e.QuestionType),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toDomainExercise(m *models.Exercise) *domain.Exercise {
	return &domain.Exercise{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Title:        m.Title,
		Status:       domain.ExerciseStatus(m.Status),
		Difficulty:   domain.Difficulty(m.Difficulty),
		Count:        m.ItemCount,
		QuestionType: domain.QuestionType(m.QuestionType),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toModelQuestion(q *domain.Question) *models.Question {
	return &models.Question{
		ID:           q.ID,
		ExerciseID:   q.ExerciseID,
		QuestionType: string(q.Type),
		Stem:         q.Stem,
		Options:      models.StringSlice(q.Options),
		Ordinal:      q.Position,
		CreatedAt:    q.CreatedAt,
	}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	return &domain.Question{
		ID:         m.ID,
		ExerciseID: m.ExerciseID,
		Type:       domain.QuestionType(m.QuestionType),
		Stem:       m.Stem,
		Options:    []string(m.Options),
		Position:   m.Ordinal,
		CreatedAt:  m.CreatedAt,
	}
}
