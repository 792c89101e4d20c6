// Package fsutil 管理下载资产的目录布局与文件命名：
// {appData}/geomflow/Models/ 下存放 GLB，thumbnails/ 子目录存缩略图，
// <name>_textures/ 子目录按资产存贴图。
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// invalidFilenameChars 覆盖 Windows 与 POSIX 的非法文件名字符。
const invalidFilenameChars = `<>:"/\|?*`

// Layout 描述一次资产下载的落盘位置。
type Layout struct {
	ModelsDir    string // GLB 所在目录
	ThumbnailDir string // 缩略图目录
	BaseName     string // 不含扩展名的基础文件名
}

// GLBPath 返回 GLB 文件完整路径。
func (l Layout) GLBPath() string {
	return filepath.Join(l.ModelsDir, l.BaseName+".glb")
}

// ThumbnailPath 返回缩略图完整路径。
func (l Layout) ThumbnailPath() string {
	return filepath.Join(l.ThumbnailDir, l.BaseName+"_thumb.png")
}

// TextureDir 返回贴图目录完整路径。
func (l Layout) TextureDir() string {
	return filepath.Join(l.ModelsDir, l.BaseName+"_textures")
}

// SanitizeFilename 将提示词中的非法文件名字符替换为下划线。
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(invalidFilenameChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BaseName 由时间戳与清洗后的提示词构成基础文件名。
// 秒级时间戳保证同一天内的下载不冲突；更细的冲突处理不在约定内。
func BaseName(prompt string, now time.Time) string {
	safe := SanitizeFilename(prompt)
	if safe == "" {
		safe = "image"
	}
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), safe)
}

// NewLayout 在 appData 下创建 Models 与 thumbnails 目录并返回布局。
// 贴图目录按需由 EnsureTextureDir 创建。
func NewLayout(appData, prompt string, now time.Time) (Layout, error) {
	modelsDir := filepath.Join(appData, "geomflow", "Models")
	thumbnailDir := filepath.Join(modelsDir, "thumbnails")
	for _, dir := range []string{modelsDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("failed to create asset directory %s: %w", dir, err)
		}
	}
	return Layout{
		ModelsDir:    modelsDir,
		ThumbnailDir: thumbnailDir,
		BaseName:     BaseName(prompt, now),
	}, nil
}

// EnsureTextureDir 创建并返回贴图目录。
func (l Layout) EnsureTextureDir() (string, error) {
	dir := l.TextureDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create texture directory: %w", err)
	}
	return dir, nil
}

// DefaultAppData 返回宿主的应用数据根目录。
func DefaultAppData() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}
