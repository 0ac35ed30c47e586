package domain

import "strings"

// Usage is the token accounting of one or more model calls. It is reported to
// the caller and never persisted.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// NewUsage normalises provider counters. A missing total falls back to
// input+output; all-zero counters mean the provider reported nothing.
func NewUsage(input, output, total int) *Usage {
	if input == 0 && output == 0 && total == 0 {
		return nil
	}
	if total == 0 {
		total = input + output
	}
	return &Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}
}

// Add returns the sum of u and other; either may be nil.
func (u *Usage) Add(other *Usage) *Usage {
	if u == nil {
		return other
	}
	if other == nil {
		return u
	}
	return &Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// ParsedItem is a candidate quiz item reconstructed from model text.
type ParsedItem struct {
	Stem        string
	Options     []string
	Answer      string
	Explanation string
}

// Complete reports whether both the answer and explanation are present.
func (p ParsedItem) Complete() bool {
	return strings.TrimSpace(p.Answer) != "" && strings.TrimSpace(p.Explanation) != ""
}

// RejectReason says why an item was excluded from persistence.
type RejectReason string

const (
	RejectMissingAnswer      RejectReason = "missing-answer"
	RejectMissingExplanation RejectReason = "missing-explanation"
)

// ItemOutcome is either Accepted(item) or Rejected(item, reason). A rejection
// is a normal result, not an error.
type ItemOutcome struct {
	Item   ParsedItem
	Reason RejectReason
}

func Accepted(item ParsedItem) ItemOutcome {
	return ItemOutcome{Item: item}
}

func Rejected(item ParsedItem, reason RejectReason) ItemOutcome {
	return ItemOutcome{Item: item, Reason: reason}
}

func (o ItemOutcome) IsAccepted() bool {
	return o.Reason == ""
}

// Classify accepts a complete item or rejects it, checking the answer first.
func Classify(item ParsedItem) ItemOutcome {
	switch {
	case strings.TrimSpace(item.Answer) == "":
		return Rejected(item, RejectMissingAnswer)
	case strings.TrimSpace(item.Explanation) == "":
		return Rejected(item, RejectMissingExplanation)
	default:
		return Accepted(item)
	}
}

// AcceptedItems keeps the accepted items of outcomes in their original order.
func AcceptedItems(outcomes []ItemOutcome) []ParsedItem {
	items := make([]ParsedItem, 0, len(outcomes))
	for _, o := range outcomes {
		if o.IsAccepted() {
			items = append(items, o.Item)
		}
	}
	return items
}

// Snippet is one ranked result from the knowledge base.
type Snippet struct {
	Score    *float64       `json:"score,omitempty"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
