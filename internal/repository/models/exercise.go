package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores an ordered list of strings as a JSON array column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		// nil 슬라이스는 빈 JSON 배열 "[]"로 저장
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte

	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}

	return json.Unmarshal(bytesToParse, s)
}

// Exercise is the row shape of the exercises table.
type Exercise struct {
	ID           string    `db:"id"`
	OwnerID      string    `db:"owner_id"`
	Title        string    `db:"title"`
	Status       string    `db:"status"`
	Difficulty   string    `db:"difficulty"`
	ItemCount    int       `db:"item_count"`
	QuestionType string    `db:"question_type"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Question struct {
	ID           string      `db:"id"`
	ExerciseID   string      `db:"exercise_id"`
	QuestionType string      `db:"question_type"`
	Stem         string      `db:"stem"`
	Options      StringSlice `db:"options"`
	Ordinal      int         `db:"ordinal"`
	CreatedAt    time.Time   `db:"created_at"`
}

type Answer struct {
	ID            string    `db:"id"`
	QuestionID    string    `db:"question_id"`
	CorrectAnswer string    `db:"correct_answer"`
	Explanation   string    `db:"explanation"`
	CreatedAt     time.Time `db:"created_at"`
}
