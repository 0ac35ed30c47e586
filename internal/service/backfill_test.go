package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"exam-agent/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBackfillService_Resolve(t *testing.T) {
	ctx := context.Background()
	complete := domain.ParsedItem{Stem: "1. 题干", Options: []string{"A. 甲", "B. 乙"}, Answer: "A", Explanation: "甲正确"}

	t.Run("complete item needs no call", func(t *testing.T) {
		completer := new(MockCompleter)
		s := NewBackfillService(completer, 1, time.Second)

		outcome := s.Resolve(ctx, complete, domain.SingleChoice)
		assert.True(t, outcome.IsAccepted())
		assert.Equal(t, complete, outcome.Item)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("fills both missing fields", func(t *testing.T) {
		completer := new(MockCompleter)
		item := domain.ParsedItem{Stem: "1. 题干", Options: []string{"A. 甲", "B. 乙"}}
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "1. 题干") && strings.Contains(p, "A. 甲") && strings.Contains(p, "单选题")
		})).Return("答案：B\n解析：乙正确", nil, nil).Once()

		outcome := NewBackfillService(completer, 1, time.Second).Resolve(ctx, item, domain.SingleChoice)
		require.True(t, outcome.IsAccepted())
		assert.Equal(t, "B", outcome.Item.Answer)
		assert.Equal(t, "乙正确", outcome.Item.Explanation)
		completer.AssertExpectations(t)
	})

	t.Run("keeps parsed answer and fills explanation", func(t *testing.T) {
		completer := new(MockCompleter)
		item := domain.ParsedItem{Stem: "1. 题干", Answer: "C"}
		completer.On("Complete", mock.Anything, mock.Anything).Return("答案：D\n解析：补充解析", nil, nil).Once()

		outcome := NewBackfillService(completer, 1, time.Second).Resolve(ctx, item, domain.FillBlank)
		require.True(t, outcome.IsAccepted())
		assert.Equal(t, "C", outcome.Item.Answer)
		assert.Equal(t, "补充解析", outcome.Item.Explanation)
	})

	t.Run("reply without explanation is rejected", func(t *testing.T) {
		completer := new(MockCompleter)
		item := domain.ParsedItem{Stem: "1. 题干", Options: []string{"A. 甲", "B. 乙"}, Answer: "A"}
		completer.On("Complete", mock.Anything, mock.Anything).Return("答案：A", nil, nil).Once()

		outcome := NewBackfillService(completer, 1, time.Second).Resolve(ctx, item, domain.SingleChoice)
		assert.False(t, outcome.IsAccepted())
		assert.Equal(t, domain.RejectMissingExplanation, outcome.Reason)
		completer.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("model error counts as empty reply", func(t *testing.T) {
		completer := new(MockCompleter)
		item := domain.ParsedItem{Stem: "1. 题干"}
		completer.On("Complete", mock.Anything, mock.Anything).Return("", nil, errors.New("timeout")).Once()

		outcome := NewBackfillService(completer, 1, time.Second).Resolve(ctx, item, domain.ShortAnswer)
		assert.False(t, outcome.IsAccepted())
		assert.Equal(t, domain.RejectMissingAnswer, outcome.Reason)
		completer.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("nil completer only classifies", func(t *testing.T) {
		outcome := NewBackfillService(nil, 1, 0).Resolve(ctx, domain.ParsedItem{Stem: "1. x", Explanation: "e"}, domain.FillBlank)
		assert.Equal(t, domain.RejectMissingAnswer, outcome.Reason)
	})
}

// countingCompleter answers every backfill and records the peak concurrency.
type countingCompleter struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (c *countingCompleter) Complete(ctx context.Context, prompt string) (string, *domain.Usage, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	c.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return "答案：A\n解析：补全", nil, nil
}

func TestBackfillService_ResolveAll(t *testing.T) {
	items := make([]domain.ParsedItem, 6)
	for i := range items {
		items[i] = domain.ParsedItem{Stem: fmt.Sprintf("%d. 题%d", i+1, i+1)}
	}
	items[2] = domain.ParsedItem{Stem: "3. 完整", Answer: "B", Explanation: "已有"}

	t.Run("preserves order with bounded concurrency", func(t *testing.T) {
		completer := &countingCompleter{}
		outcomes := NewBackfillService(completer, 2, time.Second).ResolveAll(context.Background(), items, domain.SingleChoice)

		require.Len(t, outcomes, len(items))
		for i, o := range outcomes {
			assert.True(t, o.IsAccepted())
			assert.Equal(t, items[i].Stem, o.Item.Stem)
		}
		assert.Equal(t, "B", outcomes[2].Item.Answer)
		assert.Equal(t, int32(5), completer.calls.Load())
		assert.LessOrEqual(t, completer.peak.Load(), int32(2))
	})

	t.Run("default concurrency is sequential", func(t *testing.T) {
		completer := &countingCompleter{}
		NewBackfillService(completer, 0, time.Second).ResolveAll(context.Background(), items, domain.SingleChoice)
		assert.Equal(t, int32(1), completer.peak.Load())
	})

	t.Run("empty input", func(t *testing.T) {
		outcomes := NewBackfillService(nil, 1, 0).ResolveAll(context.Background(), nil, domain.SingleChoice)
		assert.Empty(t, outcomes)
	})
}
