package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/prompt"

	"go.uber.org/zap"
)

// Analysis is the result of reading material before generation.
type Analysis struct {
	KeyPoints []string
	Title     string
	Usage     *domain.Usage
}

// MaterialAnalyzer extracts exam-worthy key points and a suggested title.
type MaterialAnalyzer interface {
	Analyze(ctx context.Context, material string, qt domain.QuestionType, difficulty domain.Difficulty, count int) (*Analysis, error)
}

type materialAnalyzer struct {
	completer domain.Completer
}

func NewMaterialAnalyzer(completer domain.Completer) MaterialAnalyzer {
	return &materialAnalyzer{completer: completer}
}

func (a *materialAnalyzer) Analyze(ctx context.Context, material string, qt domain.QuestionType, difficulty domain.Difficulty, count int) (*Analysis, error) {
	result := &Analysis{KeyPoints: []string{}}
	if strings.TrimSpace(material) != "" {
		reply, usage, err := a.completer.Complete(ctx, prompt.KeyPoints(material, qt, difficulty, count))
		if err != nil {
			return nil, err
		}
		result.Usage = usage
		points, perr := parseKeyPoints(reply)
		if perr != nil {
			logger.Get().Warn("Key point reply was not a JSON array", zap.Error(perr))
		}
		result.KeyPoints = points
	}

	title := ""
	if len(result.KeyPoints) > 0 {
		title = strings.TrimSpace(result.KeyPoints[0])
	}
	result.Title = domain.ExerciseTitle(title, material)
	return result, nil
}

// parseKeyPoints decodes a JSON array reply, optionally wrapped in a markdown
// code fence. Non-string elements are rendered with %v; empty ones are dropped.
func parseKeyPoints(reply string) ([]string, error) {
	raw := stripCodeFence(reply)
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return []string{}, err
	}
	points := make([]string, 0, len(arr))
	for _, v := range arr {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			continue
		}
		points = append(points, s)
	}
	return points, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return strings.Join(lines[1:], "\n")
}
