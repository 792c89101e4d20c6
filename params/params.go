// Package params 把脚本文本中的数值赋值提取为可调参数，
// 并支持参数值改动回写到脚本。
//
// 提取基于逐行正则匹配而非语法解析：每行先去除首尾空白再匹配，
// 同名变量只追踪首次赋值。这是刻意保留的已知限制。
package params

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// assignPattern 匹配（去除首尾空白后）行首的 `标识符 = 数字` 赋值。
// RE2 不支持负向前瞻，用尾随捕获组模拟 (?!\w)：
// 组 3 非空说明数字后紧跟单词字符，该行不算赋值。
var assignPattern = regexp.MustCompile(`^(\w+)\s*=\s*([-+]?\d*\.?\d+)(\w?)`)

// Parameter 是脚本中一个可调的数值参数。
// Min/Max 由初始值对称展开（value ± |value|），零值参数的区间宽度为零。
type Parameter struct {
	Name      string
	Value     float64
	Min       float64
	Max       float64
	IsInteger bool

	// text 是参数当前在脚本中的文本形式，作为回写时的定位锚。
	text string
}

// Text 返回参数在脚本中的当前文本形式。
func (p *Parameter) Text() string {
	return p.text
}

// isIntegerLiteral 判断数字字面量是否按整数处理：
// 不含小数点，或以 ".0" 或裸 "." 结尾。
func isIntegerLiteral(lit string) bool {
	if !strings.Contains(lit, ".") {
		return true
	}
	return strings.HasSuffix(lit, ".0") || strings.HasSuffix(lit, ".")
}

// formatValue 以固定（非本地化）格式输出数值。
// 小数始终用定点形式，保证回写后的字面量仍能被 assignPattern 重新提取。
func formatValue(v float64, isInteger bool) string {
	if isInteger {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Bind 从脚本中按出现顺序提取参数。同名只取首次赋值。
func Bind(script string) []*Parameter {
	var out []*Parameter
	seen := make(map[string]bool)
	for _, line := range strings.Split(script, "\n") {
		m := assignPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || m[3] != "" {
			continue
		}
		name, lit := m[1], m[2]
		if seen[name] {
			continue
		}
		seen[name] = true

		value, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			continue
		}
		span := math.Abs(value)
		out = append(out, &Parameter{
			Name:      name,
			Value:     value,
			Min:       value - span,
			Max:       value + span,
			IsInteger: isIntegerLiteral(lit),
			text:      lit,
		})
	}
	return out
}

// Binder 持有脚本工作副本并在其上串联历次参数回写。
// 回写始终作用于最近一次产出的文本，不会回到原始脚本。
type Binder struct {
	mu     sync.Mutex
	script string
	params []*Parameter
	logger *zap.Logger
}

// NewBinder 绑定脚本并构建参数表。
func NewBinder(script string, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{
		script: script,
		params: Bind(script),
		logger: logger,
	}
}

// Parameters 按出现顺序返回参数表。
func (b *Binder) Parameters() []*Parameter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

// Script 返回含全部已回写改动的脚本文本。
func (b *Binder) Script() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.script
}

// SetPosition 按 0.0–1.0 的归一化位置在 [Min, Max] 内线性插值并回写。
// 整数参数四舍五入到整。返回实际生效的值。
func (b *Binder) SetPosition(p *Parameter, pos float64) float64 {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return b.SetValue(p, p.Min+pos*(p.Max-p.Min))
}

// SetValue 将参数设置为给定值（收敛到 [Min, Max]，整数参数取整）
// 并把改动回写到脚本工作副本。
func (b *Binder) SetValue(p *Parameter, v float64) float64 {
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	if p.IsInteger {
		v = math.Round(v)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	newText := formatValue(v, p.IsInteger)
	patched, ok := patchBack(b.script, p.Name, p.text, newText)
	if !ok {
		// 锚点丢失（脚本被外部改动）：静默跳过，脚本保持不变
		b.logger.Warn("parameter patch anchor not found",
			zap.String("name", p.Name),
			zap.String("old", p.text),
		)
		return p.Value
	}
	b.script = patched
	p.Value = v
	p.text = newText
	return v
}

// patchBack 把脚本中首个 "{name} = {oldText}" 替换为 "{name} = {newText}"。
// 只改写首次出现；找不到锚点时返回 ok=false。
func patchBack(script, name, oldText, newText string) (string, bool) {
	anchor := name + " = " + oldText
	i := strings.Index(script, anchor)
	if i < 0 {
		return script, false
	}
	return script[:i] + name + " = " + newText + script[i+len(anchor):], true
}
