package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResultDetail is one graded question as stored in exercise_results.result_details.
type ResultDetail struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Analysis      string `json:"analysis,omitempty"`
}

// ResultDetails stores graded questions as a JSON array column.
type ResultDetails []ResultDetail

func (d ResultDetails) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (d *ResultDetails) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = ResultDetails{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ResultDetails Scan: unsupported type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*d = ResultDetails{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// ExerciseResult is the row shape of the exercise_results table.
// CorrectRate is stored as a whole percentage.
type ExerciseResult struct {
	ID            string        `db:"id"`
	ExerciseID    string        `db:"exercise_id"`
	OwnerID       string        `db:"owner_id"`
	Score         int           `db:"score"`
	CorrectRate   int           `db:"correct_rate"`
	ResultDetails ResultDetails `db:"result_details"`
	SubmittedAt   time.Time     `db:"submitted_at"`
}
