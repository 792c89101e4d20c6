package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "fenced python block",
			raw:  "```python\nimport rhinoscriptsyntax as rs\nrs.AddSphere([0,0,0], 5)\n```",
			want: "import rhinoscriptsyntax as rs\nrs.AddSphere([0,0,0], 5)",
		},
		{
			name: "filler prose stripped",
			raw:  "Here's the code:\n```python\nradius_value = 5\n```",
			want: "radius_value = 5",
		},
		{
			name: "comment lines dropped",
			raw:  "# create a sphere\nradius_value = 5\n// trailing note\nrs.AddSphere([0,0,0], radius_value)",
			want: "radius_value = 5\nrs.AddSphere([0,0,0], radius_value)",
		},
		{
			name: "indentation preserved",
			raw:  "for i in range(3):\n    rs.AddPoint(i, 0, 0)   \n",
			want: "for i in range(3):\n    rs.AddPoint(i, 0, 0)",
		},
		{
			name: "blank lines removed",
			raw:  "a_value = 1\n\n\nb_value = 2",
			want: "a_value = 1\nb_value = 2",
		},
		{
			name: "empty after filtering",
			raw:  "```python\n# nothing but comments\n```",
			want: "",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "here is variant",
			raw:  "Here is Python code:\nbox_value = 10",
			want: "box_value = 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestCleanDeterministic(t *testing.T) {
	raw := "```python\nwidth_value = 10\n# comment\n```"
	assert.Equal(t, Clean(raw), Clean(raw))
}

// Property: a non-comment, non-blank line loses at most trailing whitespace,
// and no fence markers or comment lines survive.
func TestCleanProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "lines")
		var lines []string
		var wantKept []string
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "kind") {
			case 0:
				lines = append(lines, "# "+rapid.StringMatching(`[a-z ]{0,10}`).Draw(t, "comment"))
			case 1:
				lines = append(lines, "```")
			case 2:
				lines = append(lines, "   ")
			default:
				indent := strings.Repeat(" ", rapid.IntRange(0, 8).Draw(t, "indent"))
				body := rapid.StringMatching(`[a-z_]{1,8} = [0-9]{1,4}`).Draw(t, "body")
				trail := strings.Repeat(" ", rapid.IntRange(0, 3).Draw(t, "trail"))
				lines = append(lines, indent+body+trail)
				wantKept = append(wantKept, indent+body)
			}
		}

		got := Clean(strings.Join(lines, "\n"))

		assert.NotContains(t, got, "```")
		for _, line := range strings.Split(got, "\n") {
			if line == "" {
				continue
			}
			assert.False(t, strings.HasPrefix(strings.TrimSpace(line), "#"))
		}
		// Every kept line survives verbatim apart from the outer TrimSpace.
		want := strings.TrimSpace(strings.Join(wantKept, "\n"))
		assert.Equal(t, want, got)
	})
}
