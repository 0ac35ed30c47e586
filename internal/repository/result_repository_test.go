package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"exam-agent/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultDatabaseAdapter_CreateResult(t *testing.T) {
	db, mock := setupExerciseTestDB(t)
	defer db.Close()
	repo := NewResultDatabaseAdapter(db)

	submitted := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	result := &domain.ExerciseResult{
		ID:          "r1",
		ExerciseID:  "ex1",
		OwnerID:     "dev-user",
		Score:       50,
		CorrectRate: 0.5,
		Details: []domain.QuestionResult{
			{QuestionID: "q1", IsCorrect: true, UserAnswer: "A", CorrectAnswer: "A", Explanation: "甲"},
			{QuestionID: "q2", UserAnswer: "", CorrectAnswer: "B"},
		},
		SubmittedAt: submitted,
	}
	details := `[{"questionId":"q1","isCorrect":true,"userAnswer":"A","correctAnswer":"A","analysis":"甲"},` +
		`{"questionId":"q2","isCorrect":false,"userAnswer":"","correctAnswer":"B"}]`

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exercise_results (" + resultColumns + ") VALUES")).
		WithArgs("r1", "ex1", "dev-user", 50, 50, details, submitted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateResult(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultDatabaseAdapter_CreateResult_Error(t *testing.T) {
	db, mock := setupExerciseTestDB(t)
	defer db.Close()
	repo := NewResultDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exercise_results")).WillReturnError(errors.New("disk full"))

	err := repo.CreateResult(context.Background(), &domain.ExerciseResult{ID: "r1", ExerciseID: "ex1", OwnerID: "u"})
	assert.ErrorContains(t, err, "failed to create exercise result")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultDatabaseAdapter_LatestResult(t *testing.T) {
	columns := []string{"id", "exercise_id", "owner_id", "score", "correct_rate", "result_details", "submitted_at"}
	query := regexp.QuoteMeta("SELECT " + resultColumns + " FROM exercise_results")

	t.Run("Returns newest row", func(t *testing.T) {
		db, mock := setupExerciseTestDB(t)
		defer db.Close()
		repo := NewResultDatabaseAdapter(db)

		now := time.Now().UTC()
		rows := sqlmock.NewRows(columns).
			AddRow("r2", "ex1", "dev-user", 100, 100, `[{"questionId":"q1","isCorrect":true,"userAnswer":"A","correctAnswer":"A"}]`, now).
			AddRow("r1", "ex1", "dev-user", 0, 0, `[]`, now.Add(-time.Hour))
		mock.ExpectQuery(query).WithArgs("ex1", "dev-user").WillReturnRows(rows)

		result, err := repo.LatestResult(context.Background(), "ex1", "dev-user")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "r2", result.ID)
		assert.Equal(t, 100, result.Score)
		assert.Equal(t, 1.0, result.CorrectRate)
		require.Len(t, result.Details, 1)
		assert.True(t, result.Details[0].IsCorrect)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No submission", func(t *testing.T) {
		db, mock := setupExerciseTestDB(t)
		defer db.Close()
		repo := NewResultDatabaseAdapter(db)

		mock.ExpectQuery(query).WithArgs("ex1", "dev-user").WillReturnRows(sqlmock.NewRows(columns))

		result, err := repo.LatestResult(context.Background(), "ex1", "dev-user")
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
