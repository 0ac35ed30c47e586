// Package prompt builds every prompt the generation pipeline sends to a model.
// All functions are pure.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"exam-agent/internal/domain"
)

// Section ceilings, counted in characters.
const (
	MaxIntentChars   = 2000
	MaxContextChars  = 4000
	MaxMaterialChars = 6000
)

// Intent is what the user declared about the exercise to generate.
type Intent struct {
	Title        string
	QuestionType domain.QuestionType
	Difficulty   domain.Difficulty
	Count        int
	KeyPoints    []string
	Analysis     string
}

// Input is everything the generation prompt is assembled from.
type Input struct {
	Material         string
	QuestionType     domain.QuestionType
	Difficulty       domain.Difficulty
	Count            int
	IntentText       string
	RetrievedContext string
}

// BuildIntent renders the user intent block body.
func BuildIntent(in Intent) string {
	lines := []string{
		"标题：" + strings.TrimSpace(in.Title),
		"题型：" + in.QuestionType.Label(),
		"难度：" + in.Difficulty.Label(),
		"数量：" + strconv.Itoa(in.Count),
	}
	var points []string
	for _, p := range in.KeyPoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	if len(points) > 0 {
		lines = append(lines, "要点："+strings.Join(points, "；"))
	}
	if a := strings.TrimSpace(in.Analysis); a != "" {
		lines = append(lines, "分析："+a)
	}
	return strings.Join(lines, "\n")
}

// Assemble builds the generation prompt: grammar, intent, reference context,
// then material. Each section is trimmed and cut to its ceiling.
func Assemble(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, questionHeader, in.Count, in.QuestionType.Label(), in.Difficulty.Label())
	b.WriteString(questionGrammar)

	if intent := Truncate(in.IntentText, MaxIntentChars); intent != "" {
		b.WriteString("【用户意图】\n")
		b.WriteString(intent)
		b.WriteString("\n\n")
	}
	if ctx := Truncate(in.RetrievedContext, MaxContextChars); ctx != "" {
		b.WriteString("【知识库参考】（仅供参考，与用户意图冲突时以用户意图为准）\n")
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}
	b.WriteString("【用户材料】\n")
	b.WriteString(Truncate(in.Material, MaxMaterialChars))
	return b.String()
}

// Truncate trims s and keeps at most max characters.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

const questionHeader = `你是出题助手。请严格以【用户意图】为主生成题目，知识库仅作参考；若知识库内容与用户意图不一致，请在生成时自行忽略知识库内容。
请根据材料生成 %d 道%s（难度：%s）。只输出题目正文，不要输出任何 JSON，不要输出 exerciseId。
`

const questionGrammar = `
【格式要求】
1. 题目之间用空行分隔（每道题之间至少一个空行）。
2. 题干行必须以题号开头，题号与题干之间必须有空格。例如：1. 题干内容  或  1、题干内容 或  【1】题干内容。
3. 单选题：题干下方每行一个选项，选项标记用大写字母 A、B、C、D，格式为 "A. 选项内容" 或 "A、选项内容"（只使用 A-D），答案填一个字母。
4. 多选题：同单选题格式，答案填多个字母如 "AB" 或 "ACD"，不要加顿号或空格。
5. 判断题：题干下方两行选项，格式为 "A. 正确" 与 "B. 错误"（或 A. 对 B. 错），答案填 A 或 B。
6. 填空题：只有题干行，题干中用下划线 ______ 表示填空处，不要选项行；答案填正确答案文本，多空用分号分隔如 "4；能量守恒"。
7. 简答题：只有题干行，不要选项行；答案填要点或完整短句。
8. 每道题在题干和选项（如有）之后，必须另起一行输出「答案：X」。答案不能为空。
9. 每道题在答案之后，必须另起一行输出「解析：……」，给出该题的简要解析，解析不能为空。
10. 不要输出任何 JSON，不要输出 {"exerciseId"} 等。
11. 数学符号用纯文本表示，不要使用 LaTeX 格式。

【示例：单选题】
1. 以下哪项是 Python 的特点？
A. 解释型语言
B. 编译型语言
C. 汇编语言
D. 机器语言
答案：A
解析：Python 是解释型语言，源代码由解释器逐行执行。

【示例：多选题】
2. 下列属于 Python 基本数据类型的有？（多选）
A. int
B. list
C. tuple
D. dict
答案：ABCD
解析：int、list、tuple、dict 均为 Python 内置基本数据类型。

【示例：判断题】
3. Python 中字符串是不可变类型。
A. 正确
B. 错误
答案：A
解析：字符串在 Python 中是不可变类型，修改会生成新字符串。

【示例：填空题】
4. 请写出 Python 中用于创建空列表的语法：______
答案：[]
解析：方括号 [] 表示空列表，是 Python 的字面量写法。

5. 根据牛顿第二定律 F=ma，质量为 2 kg 的物体受 10 N 力，加速度为 ______ m/s²。
答案：5
解析：a=F/m=10/2=5 m/s²。

【示例：简答题】
6. 请简述 Python 中 list 和 tuple 的区别。
答案：list 可变，tuple 不可变；list 用 []，tuple 用 ()。
解析：list 支持增删改，tuple 创建后不可变，常用于固定结构。

`
