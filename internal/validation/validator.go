package validation

import (
	"fmt"
	"regexp"
	"strings"

	"exam-agent/internal/domain"
	"exam-agent/internal/dto"
	"exam-agent/internal/util"
)

const (
	DefaultQuestionType = domain.SingleChoice
	DefaultDifficulty   = domain.DifficultyMedium
	DefaultCount        = 5
)

var validULID = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest fills defaults into req and reports every invalid field.
func (v *Validator) ValidateGenerateRequest(req *dto.GenerateFromTextRequest) domain.ValidationErrors {
	req.QuestionType = normalize(req.QuestionType, string(DefaultQuestionType))
	req.Difficulty = normalize(req.Difficulty, string(DefaultDifficulty))
	errors := v.validateOptions(req.QuestionType, req.Difficulty, &req.Count)

	points := req.KeyPoints[:0]
	for _, p := range req.KeyPoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	req.KeyPoints = points
	return errors
}

// ValidateAnalyzeRequest fills defaults into req and reports every invalid field.
func (v *Validator) ValidateAnalyzeRequest(req *dto.AnalyzeRequest) domain.ValidationErrors {
	req.QuestionType = normalize(req.QuestionType, string(DefaultQuestionType))
	req.Difficulty = normalize(req.Difficulty, string(DefaultDifficulty))
	return v.validateOptions(req.QuestionType, req.Difficulty, &req.Count)
}

// ValidateSubmitRequest checks that answers are present and every item names
// a question ID.
func (v *Validator) ValidateSubmitRequest(req *dto.SubmitRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.Answers == nil {
		return append(errors, domain.NewMissingFieldError("answers"))
	}
	for i, item := range req.Answers {
		field := fmt.Sprintf("answers[%d].questionId", i)
		if strings.TrimSpace(item.QuestionID) == "" {
			errors = append(errors, domain.NewMissingFieldError(field))
		} else if !isValidULID(item.QuestionID) {
			errors = append(errors, domain.NewInvalidFormatError(field, item.QuestionID))
		}
	}
	return errors
}

// ValidateExerciseID validates an exercise ID path parameter.
func (v *Validator) ValidateExerciseID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("id"))
	} else if !isValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("id", id))
	}

	return errors
}

func (v *Validator) validateOptions(questionType, difficulty string, count **int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if !domain.QuestionType(questionType).Valid() {
		errors = append(errors, domain.NewUnsupportedValueError("questionType", questionType))
	}
	if !domain.Difficulty(difficulty).Valid() {
		errors = append(errors, domain.NewUnsupportedValueError("difficulty", difficulty))
	}

	if *count == nil {
		n := DefaultCount
		*count = &n
	} else if **count < 1 {
		errors = append(errors, domain.ValidationError{Field: "count", Message: "must be at least 1", Value: **count})
	}

	return errors
}

func normalize(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

// isValidULID accepts canonical upper-case ULIDs only
func isValidULID(s string) bool {
	return validULID.MatchString(s) && util.IsULID(s)
}
