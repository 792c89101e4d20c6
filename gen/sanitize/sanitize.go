// Package sanitize 对 LLM 原始输出做确定性清洗，
// 去掉 Markdown 代码围栏、客套前缀与注释行，保留缩进。
package sanitize

import "strings"

// markers 是按序移除的字面量标记。围栏语言标记必须先于裸围栏处理。
var markers = []string{
	"```python",
	"```",
	"Here's",
	"Here is",
	"the code:",
	"Python code:",
}

// Clean strips fence markers and filler phrases from raw model output,
// drops blank and comment lines, and right-trims the rest. Leading
// whitespace survives so Python indentation stays intact. An input that
// filters down to nothing yields the empty string; callers treat that as
// a failed generation.
func Clean(raw string) string {
	for _, m := range markers {
		raw = strings.ReplaceAll(raw, m, "")
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
