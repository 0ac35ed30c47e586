package prompt

import (
	"strings"
	"testing"

	"exam-agent/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildIntent(t *testing.T) {
	got := BuildIntent(Intent{
		Title:        "力学基础",
		QuestionType: domain.SingleChoice,
		Difficulty:   domain.DifficultyMedium,
		Count:        3,
		KeyPoints:    []string{"牛顿第二定律", " ", "加速度"},
		Analysis:     "  侧重计算 ",
	})
	want := "标题：力学基础\n题型：单选题\n难度：中等\n数量：3\n要点：牛顿第二定律；加速度\n分析：侧重计算"
	assert.Equal(t, want, got)

	got = BuildIntent(Intent{Title: "t", QuestionType: domain.FillBlank, Difficulty: domain.DifficultyEasy, Count: 1})
	assert.NotContains(t, got, "要点")
	assert.NotContains(t, got, "分析")
}

func TestAssemble_SectionOrder(t *testing.T) {
	out := Assemble(Input{
		Material:         "牛顿第二定律",
		QuestionType:     domain.SingleChoice,
		Difficulty:       domain.DifficultyMedium,
		Count:            1,
		IntentText:       "标题：力学",
		RetrievedContext: "F=ma",
	})

	grammar := strings.Index(out, "【格式要求】")
	example := strings.Index(out, "【示例：简答题】")
	// the header names 【用户意图】 too, so match the section headings themselves
	intent := strings.Index(out, "【用户意图】\n")
	ctx := strings.Index(out, "【知识库参考】（")
	material := strings.Index(out, "【用户材料】\n")

	assert.True(t, grammar >= 0 && grammar < example)
	assert.Less(t, strings.Index(out, "【用户意图】"), grammar)
	assert.True(t, example < intent)
	assert.True(t, intent < ctx)
	assert.True(t, ctx < material)
	assert.Contains(t, out, "请根据材料生成 1 道单选题（难度：中等）")
	assert.True(t, strings.HasSuffix(out, "【用户材料】\n牛顿第二定律"))
}

func TestAssemble_OmitsEmptyOptionalSections(t *testing.T) {
	out := Assemble(Input{Material: "材料", QuestionType: domain.Judgment, Difficulty: domain.DifficultyHard, Count: 2, RetrievedContext: "   "})
	assert.NotContains(t, out, "【用户意图】\n")
	assert.NotContains(t, out, "【知识库参考】")
	assert.Contains(t, out, "【用户材料】\n材料")
}

func TestAssemble_TruncatesEachSection(t *testing.T) {
	material := strings.Repeat("鑫", MaxMaterialChars+100)
	ctx := strings.Repeat("淼", MaxContextChars+100)
	intent := strings.Repeat("焱", MaxIntentChars+100)
	out := Assemble(Input{
		Material:         material,
		QuestionType:     domain.ShortAnswer,
		Difficulty:       domain.DifficultyEasy,
		Count:            1,
		IntentText:       intent,
		RetrievedContext: ctx,
	})
	assert.Equal(t, MaxMaterialChars, strings.Count(out, "鑫"))
	assert.Equal(t, MaxContextChars, strings.Count(out, "淼"))
	assert.Equal(t, MaxIntentChars, strings.Count(out, "焱"))
}

func TestAssemble_IsPure(t *testing.T) {
	in := Input{Material: "m", QuestionType: domain.FillBlank, Difficulty: domain.DifficultyEasy, Count: 4}
	assert.Equal(t, Assemble(in), Assemble(in))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc  ", 10))
	assert.Equal(t, "中文", Truncate("中文字符", 2))
	assert.Equal(t, "", Truncate("", 5))
}

func TestBackfill_OnlyStemAndOptions(t *testing.T) {
	out := Backfill("1. 题干", []string{"A. 甲", "B. 乙"}, domain.SingleChoice)
	assert.Contains(t, out, "题目（单选题）：\n1. 题干\nA. 甲\nB. 乙\n")
	assert.Contains(t, out, "只输出两行")

	out = Backfill("2. 简答", nil, domain.ShortAnswer)
	assert.Contains(t, out, "题目（简答题）：\n2. 简答\n")
}

func TestKeyPointsAndTidy(t *testing.T) {
	kp := KeyPoints("材料内容", domain.MultipleChoice, domain.DifficultyHard, 5)
	assert.Contains(t, kp, "【多选题】【困难】难度、计划出【5】道题")
	assert.True(t, strings.HasSuffix(kp, "材料：\n材料内容"))

	long := strings.Repeat("垚", MaxTidyInputChars+1)
	tidy := TidyContext(long)
	assert.Contains(t, tidy, "[以上为截断后的内容，后续已省略]")
	assert.Equal(t, MaxTidyInputChars, strings.Count(tidy, "垚"))
}
