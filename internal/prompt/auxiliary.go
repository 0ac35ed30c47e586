package prompt

import (
	"fmt"
	"strings"

	"exam-agent/internal/domain"
)

// Backfill asks for the answer and explanation of a single item. Only the
// stem and options are sent; material and retrieved context never are.
func Backfill(stem string, options []string, qt domain.QuestionType) string {
	question := strings.TrimSpace(stem)
	if len(options) > 0 {
		question += "\n" + strings.Join(options, "\n")
	}
	return fmt.Sprintf(`请根据以下题目给出正确答案和解析。只输出两行，不要其他内容。
第一行：答案：X（单选题/多选题填选项字母如 A；填空/简答题填正确答案文本，不能为空）。
第二行：解析：简要解析（不能为空）。

题目（%s）：
%s
`, qt.Label(), question)
}

// KeyPoints asks for a JSON array of exam-worthy key points of the material.
func KeyPoints(material string, qt domain.QuestionType, difficulty domain.Difficulty, count int) string {
	return fmt.Sprintf(`请根据以下【材料】，针对【%s】【%s】难度、计划出【%d】道题，提炼出适合出题的知识要点。
只返回一个 JSON 数组，不要其他文字。例如：["要点1", "要点2", "要点3"]

材料：
%s`, qt.Label(), difficulty.Label(), count, Truncate(material, MaxMaterialChars))
}

// Tidy ceilings for retrieved context regrouping.
const (
	MaxTidyInputChars  = 12000
	MaxTidyOutputChars = 8000
	MinTidyInputChars  = 50
)

const (
	tidyInputTruncatedMarker  = "\n\n[以上为截断后的内容，后续已省略]"
	TidyOutputTruncatedMarker = "\n\n[内容已截断]"
)

// TidyContext asks the model to regroup and deduplicate retrieved snippets
// without dropping substantive information.
func TidyContext(raw string) string {
	input := Truncate(raw, MaxTidyInputChars)
	if len([]rune(strings.TrimSpace(raw))) > MaxTidyInputChars {
		input += tidyInputTruncatedMarker
	}
	return `你是一个知识整理助手。下面是从知识库检索到的多段内容，可能重复、顺序混乱、话题交错。
请对以下内容进行梳理，要求：
1. 按主题或逻辑分成若干小节，每节可加简短小标题（如「## 主题名」或「【主题】」）。
2. 合并表述重复或高度相似的句子，保留一种说法即可；不同角度的内容都保留。
3. 顺序按逻辑或主题排列，便于阅读。
4. 不要删减实质性信息：概念、定义、公式、数据、结论等尽量全部保留，只做归纳与重组。
5. 直接输出梳理后的正文，不要输出 JSON、不要输出「梳理结果：」等前缀，不要输出 exerciseId。

【待梳理的知识库召回内容】
` + input + "\n"
}
