// Package quiztext reconstructs quiz items from the line-oriented text a model
// produces for the question grammar.
package quiztext

import (
	"regexp"
	"strings"

	"exam-agent/internal/domain"
)

var (
	// 1. 题干 / 1、题干 / 1．题干 / 1：题干 / 【1】题干 / ## 1. 题干
	stemRe        = regexp.MustCompile(`^\s*#*\s*(?:【\d+】\s*[.、．：:]?|\d+\s*[.、．：:])\s*\S`)
	optionRe      = regexp.MustCompile(`^\s*[A-Da-d][.、．]\s*\S`)
	answerRe      = regexp.MustCompile(`^\s*答案\s*[:：]\s*(.*)$`)
	explanationRe = regexp.MustCompile(`^\s*解析\s*[:：]\s*(.*)$`)
)

// parseState is the position of the block parser inside the item grammar.
type parseState int

const (
	stateExpectStem parseState = iota
	stateExpectOptionsOrAnswer
	stateExpectAnswer
	stateExpectExplanation
	stateExplanationContinuation
)

func (s parseState) String() string {
	switch s {
	case stateExpectStem:
		return "ExpectStem"
	case stateExpectOptionsOrAnswer:
		return "ExpectOptionsOrAnswer"
	case stateExpectAnswer:
		return "ExpectAnswer"
	case stateExpectExplanation:
		return "ExpectExplanation"
	case stateExplanationContinuation:
		return "ExplanationContinuation"
	default:
		return "Unknown"
	}
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineStem
	lineOption
	lineAnswer
	lineExplanation
	lineText
)

func classify(line string) (lineKind, string) {
	if strings.TrimSpace(line) == "" {
		return lineBlank, ""
	}
	if m := answerRe.FindStringSubmatch(line); m != nil {
		return lineAnswer, strings.TrimSpace(m[1])
	}
	if m := explanationRe.FindStringSubmatch(line); m != nil {
		return lineExplanation, strings.TrimSpace(m[1])
	}
	if stemRe.MatchString(line) {
		return lineStem, strings.TrimSpace(line)
	}
	if optionRe.MatchString(line) {
		return lineOption, strings.TrimSpace(line)
	}
	return lineText, strings.TrimSpace(line)
}

// IsStemLine reports whether line opens a new numbered question.
func IsStemLine(line string) bool {
	kind, _ := classify(line)
	return kind == lineStem
}

// Parse splits fully buffered model output into candidate items in source
// order. Blocks without a stem are dropped. The result depends only on text.
func Parse(text string) []domain.ParsedItem {
	var items []domain.ParsedItem
	for _, block := range splitBlocks(stripTrailingJSON(text)) {
		if item, ok := parseBlock(block); ok {
			items = append(items, item)
		}
	}
	return items
}

// stripTrailingJSON drops trailing lines that look like a JSON object, which
// some models echo after the questions.
func stripTrailingJSON(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" || (strings.HasPrefix(last, "{") && strings.HasSuffix(last, "}")) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}

// splitBlocks starts a new block at every stem line. Lines before the first
// stem form a leading block that parseBlock discards. A numbered line inside
// an explanation ("1. 第一点", "3.14 是近似值") also matches stemRe and opens
// a block of its own; backfill then decides whether that item survives.
func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if IsStemLine(line) && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(lines []string) (domain.ParsedItem, bool) {
	var item domain.ParsedItem
	var explanation []string
	state := stateExpectStem

	flushExplanation := func() {
		if len(explanation) > 0 {
			item.Explanation = strings.Join(explanation, "\n")
		}
	}

loop:
	for _, line := range lines {
		kind, content := classify(line)

		if state == stateExpectStem {
			if kind == lineStem {
				item.Stem = content
				state = stateExpectOptionsOrAnswer
			}
			continue
		}

		switch kind {
		case lineStem:
			// the first stem of a block wins
			break loop
		case lineAnswer:
			flushExplanation()
			item.Answer = content
			state = stateExpectExplanation
		case lineExplanation:
			item.Explanation = ""
			explanation = explanation[:0]
			if content != "" {
				explanation = append(explanation, content)
			}
			state = stateExplanationContinuation
		case lineBlank:
			if state == stateExplanationContinuation {
				flushExplanation()
				if item.Answer == "" {
					state = stateExpectAnswer
				} else {
					state = stateExpectExplanation
				}
			}
		case lineOption, lineText:
			switch state {
			case stateExplanationContinuation:
				explanation = append(explanation, content)
			case stateExpectOptionsOrAnswer:
				if kind == lineOption {
					item.Options = append(item.Options, content)
				}
			}
		}
	}
	flushExplanation()

	if item.Stem == "" {
		return domain.ParsedItem{}, false
	}
	return item, true
}
