package params

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBind(t *testing.T) {
	script := `import rhinoscriptsyntax as rs
width_value = 10
height = 2.5
offset = -3.0
scale = 0.5
width_value = 99
radius10 = 7
`
	ps := Bind(script)
	require.Len(t, ps, 5)

	// 首个参数符合对称区间与整数判定
	assert.Equal(t, "width_value", ps[0].Name)
	assert.Equal(t, 10.0, ps[0].Value)
	assert.Equal(t, 0.0, ps[0].Min)
	assert.Equal(t, 20.0, ps[0].Max)
	assert.True(t, ps[0].IsInteger)

	assert.Equal(t, "height", ps[1].Name)
	assert.False(t, ps[1].IsInteger)

	// ".0" 结尾按整数处理，负值区间落在 [-6, 0]
	assert.Equal(t, "offset", ps[2].Name)
	assert.Equal(t, -3.0, ps[2].Value)
	assert.Equal(t, -6.0, ps[2].Min)
	assert.Equal(t, 0.0, ps[2].Max)
	assert.True(t, ps[2].IsInteger)

	// 同名重复赋值只取首次
	assert.Equal(t, 10.0, ps[0].Value)

	assert.Equal(t, "radius10", ps[4].Name)
}

func TestBindSkips(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"数字后跟单词字符", "speed = 10mm\n"},
		{"非数值赋值", "name = \"box\"\n"},
		{"比较表达式", "if x == 10:\n"},
		{"无赋值", "rs.AddLine(a, b)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Bind(tt.script))
		})
	}
}

func TestBindIndentedAssignment(t *testing.T) {
	// 匹配作用在去空白后的行上，缩进的赋值一样被提取
	ps := Bind("def setup():\n    depth_value = 4\n")
	require.Len(t, ps, 1)
	assert.Equal(t, "depth_value", ps[0].Name)
	assert.Equal(t, 4.0, ps[0].Value)
	assert.True(t, ps[0].IsInteger)
}

func TestIsIntegerLiteral(t *testing.T) {
	assert.True(t, isIntegerLiteral("10"))
	assert.True(t, isIntegerLiteral("-3"))
	assert.True(t, isIntegerLiteral("10.0"))
	assert.True(t, isIntegerLiteral("10."))
	assert.False(t, isIntegerLiteral("10.5"))
	assert.False(t, isIntegerLiteral("0.01"))
}

func TestSetPosition(t *testing.T) {
	b := NewBinder("width = 10\n", nil)
	ps := b.Parameters()
	require.Len(t, ps, 1)

	// 区间 [0, 20]，中点取 10
	assert.Equal(t, 10.0, b.SetPosition(ps[0], 0.5))
	assert.Equal(t, 20.0, b.SetPosition(ps[0], 1.0))
	assert.Equal(t, 0.0, b.SetPosition(ps[0], 0.0))

	// 越界位置收敛
	assert.Equal(t, 20.0, b.SetPosition(ps[0], 1.5))
	assert.Equal(t, 0.0, b.SetPosition(ps[0], -0.2))
}

func TestSetPositionIntegerRounding(t *testing.T) {
	b := NewBinder("count = 10\n", nil)
	p := b.Parameters()[0]

	// 0.33 插值得 6.6，整数参数取整为 7
	assert.Equal(t, 7.0, b.SetPosition(p, 0.33))
	assert.Contains(t, b.Script(), "count = 7")
}

func TestPatchBackThreading(t *testing.T) {
	script := "width = 10\nheight = 4\narea = width * height\n"
	b := NewBinder(script, nil)
	ps := b.Parameters()
	require.Len(t, ps, 2)

	b.SetValue(ps[0], 15)
	b.SetValue(ps[1], 6)
	// 第二次改同一参数必须作用在上一次产出的文本上
	b.SetValue(ps[0], 12)

	assert.Equal(t, "width = 12\nheight = 6\narea = width * height\n", b.Script())
}

func TestPatchBackFirstOccurrenceOnly(t *testing.T) {
	script := "size = 5\nprint(size)\nsize = 5\n"
	b := NewBinder(script, nil)
	p := b.Parameters()[0]

	b.SetValue(p, 8)
	assert.Equal(t, "size = 8\nprint(size)\nsize = 5\n", b.Script())
}

func TestPatchBackNoMatch(t *testing.T) {
	b := NewBinder("width = 10\n", nil)
	p := b.Parameters()[0]

	// 模拟脚本被外部改写导致锚点丢失
	b.script = "completely different\n"
	got := b.SetValue(p, 15)

	assert.Equal(t, 10.0, got)
	assert.Equal(t, 10.0, p.Value)
	assert.Equal(t, "completely different\n", b.Script())
}

func TestZeroValueParameter(t *testing.T) {
	b := NewBinder("offset = 0\n", nil)
	p := b.Parameters()[0]

	// 零值参数区间宽度为零，任何位置都落回 0
	assert.Equal(t, 0.0, p.Min)
	assert.Equal(t, 0.0, p.Max)
	assert.Equal(t, 0.0, b.SetPosition(p, 0.7))
}

func TestPatchRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pos := rapid.Float64Range(0, 1).Draw(t, "pos")

		// 整数与小数字面量都要可往返
		var lit string
		if rapid.Bool().Draw(t, "integer") {
			initial := rapid.IntRange(-1000, 1000).Draw(t, "initial")
			if initial == 0 {
				initial = 1
			}
			lit = fmt.Sprintf("%d", initial)
		} else {
			whole := rapid.IntRange(-999, 999).Draw(t, "whole")
			frac := rapid.IntRange(1, 9).Draw(t, "frac")
			lit = fmt.Sprintf("%d.%d", whole, frac)
		}
		script := fmt.Sprintf("v = %s\nrs.AddSphere(v)\n", lit)

		b := NewBinder(script, nil)
		ps := b.Parameters()
		require.Len(t, ps, 1)

		want := b.SetPosition(ps[0], pos)

		rebound := Bind(b.Script())
		require.Len(t, rebound, 1)
		assert.InDelta(t, want, rebound[0].Value, 1e-9)
	})
}

func TestPatchRoundTripNonInteger(t *testing.T) {
	b := NewBinder("h = 2.5\nrs.AddCylinder(h)\n", nil)
	p := b.Parameters()[0]
	require.False(t, p.IsInteger)

	// 区间 [0, 5]，位置 0.75 插值得 3.75
	got := b.SetPosition(p, 0.75)
	assert.Equal(t, 3.75, got)
	assert.Contains(t, b.Script(), "h = 3.75")

	rebound := Bind(b.Script())
	require.Len(t, rebound, 1)
	assert.InDelta(t, 3.75, rebound[0].Value, 1e-12)
	assert.False(t, rebound[0].IsInteger)
}
