package quiztext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var optionSeparators = ".、．:：)）"

// OptionsToMapping converts raw option lines such as "A. 内容" into a map from
// upper-case letter to trimmed content. The punctuation after the letter is
// optional. Unrecognised entries are skipped; the result is never nil.
func OptionsToMapping(options []string) map[string]string {
	mapping := make(map[string]string, len(options))
	for _, raw := range options {
		letter, content, ok := splitOption(raw)
		if !ok {
			continue
		}
		if _, seen := mapping[letter]; seen {
			continue
		}
		mapping[letter] = content
	}
	return mapping
}

func splitOption(raw string) (string, string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 {
		return "", "", false
	}
	letter := unicode.ToUpper(rune(s[0]))
	if letter < 'A' || letter > 'D' {
		return "", "", false
	}
	rest := s[1:]
	next, size := utf8.DecodeRuneInString(rest)
	switch {
	case strings.ContainsRune(optionSeparators, next):
		rest = rest[size:]
	case unicode.IsSpace(next):
	case next < utf8.RuneSelf && (unicode.IsLetter(next) || unicode.IsDigit(next)):
		// "Apple", "B2" are words, not lettered options
		return "", "", false
	}
	content := strings.TrimSpace(rest)
	if content == "" {
		return "", "", false
	}
	return string(letter), content, true
}

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ParseAnswerReply extracts the answer and explanation from a two-line
// backfill reply using the same markers as the main grammar.
func ParseAnswerReply(reply string) (answer, explanation string) {
	reply = thinkBlockRe.ReplaceAllString(reply, "")
	for _, line := range strings.Split(reply, "\n") {
		kind, content := classify(strings.Trim(line, "`"))
		switch kind {
		case lineAnswer:
			if content != "" {
				answer = content
			}
		case lineExplanation:
			if content != "" {
				explanation = content
			}
		}
	}
	return answer, explanation
}
