package fsutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "red cube", "red cube"},
		{"slashes", "a/b\\c", "a_b_c"},
		{"windows reserved", `x<y>:"z"`, "x_y___z_"},
		{"control chars", "a\nb", "a_b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestBaseName(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	assert.Equal(t, "20260314_150926_red cube", BaseName("red cube", now))
	assert.Equal(t, "20260314_150926_image", BaseName("", now))
}

func TestNewLayout(t *testing.T) {
	appData := t.TempDir()
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	layout, err := NewLayout(appData, "a/cube", now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(appData, "geomflow", "Models"), layout.ModelsDir)
	assert.DirExists(t, layout.ModelsDir)
	assert.DirExists(t, layout.ThumbnailDir)
	assert.Equal(t, filepath.Join(layout.ModelsDir, "20260314_150926_a_cube.glb"), layout.GLBPath())
	assert.Equal(t, filepath.Join(layout.ThumbnailDir, "20260314_150926_a_cube_thumb.png"), layout.ThumbnailPath())

	texDir, err := layout.EnsureTextureDir()
	require.NoError(t, err)
	assert.DirExists(t, texDir)
	assert.Equal(t, layout.TextureDir(), texDir)
}
