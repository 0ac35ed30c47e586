package dto

import "exam-agent/internal/domain"

// GenerateFromTextRequest is the body of POST /api/exercises/generate-from-text.
// Count is a pointer so an omitted count can take the default.
type GenerateFromTextRequest struct {
	Content      string   `json:"content"`
	Title        string   `json:"title"`
	QuestionType string   `json:"questionType"`
	Difficulty   string   `json:"difficulty"`
	Count        *int     `json:"count"`
	KeyPoints    []string `json:"keyPoints"`
	Analysis     string   `json:"analysis"`
}

// AnalyzeRequest is the body of POST /api/exercises/analyze.
type AnalyzeRequest struct {
	Content      string `json:"content"`
	QuestionType string `json:"questionType"`
	Difficulty   string `json:"difficulty"`
	Count        *int   `json:"count"`
}

// AnalyzeResponse carries the extracted key points and a suggested title.
type AnalyzeResponse struct {
	KeyPoints         []string      `json:"keyPoints"`
	Title             string        `json:"title"`
	QuestionType      string        `json:"questionType"`
	QuestionTypeLabel string        `json:"questionTypeLabel"`
	Difficulty        string        `json:"difficulty"`
	DifficultyLabel   string        `json:"difficultyLabel"`
	Count             int           `json:"count"`
	Usage             *domain.Usage `json:"usage,omitempty"`
}

// QuestionItem is one question of an exercise detail. Answer and Explanation
// are only filled when answers were requested.
type QuestionItem struct {
	QuestionID  string            `json:"questionId"`
	Type        string            `json:"type"`
	Stem        string            `json:"stem"`
	Options     map[string]string `json:"options,omitempty"`
	Answer      string            `json:"answer,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

// ExerciseDetailResponse is the body of GET /api/exercises/:id.
type ExerciseDetailResponse struct {
	ExerciseID        string         `json:"exerciseId"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Difficulty        string         `json:"difficulty"`
	Count             int            `json:"count"`
	QuestionType      string         `json:"questionType"`
	QuestionTypeLabel string         `json:"questionTypeLabel"`
	Questions         []QuestionItem `json:"questions"`
	CreatedAt         string         `json:"createdAt"`
	Score             *int           `json:"score"`
}

// SubmitAnswerItem is one answer of a submission.
type SubmitAnswerItem struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// SubmitRequest is the body of POST /api/exercises/:id/submit.
type SubmitRequest struct {
	Answers []SubmitAnswerItem `json:"answers"`
}

// ResultItem is the graded outcome of one question.
type ResultItem struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Analysis      string `json:"analysis,omitempty"`
}

// SubmitResponse carries the score (0-100), the correct rate (0-1) and the
// per-question results in exercise order.
type SubmitResponse struct {
	Score       int          `json:"score"`
	CorrectRate float64      `json:"correctRate"`
	Results     []ResultItem `json:"results"`
}
