package mesh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/internal/fsutil"
	"github.com/BaSui01/geomflow/providers"
)

// downloadAssets 把成功任务的产物落盘：GLB 失败即整个任务失败；
// 缩略图与贴图尽力而为，单个失败只记日志并跳过。
func (o *Orchestrator) downloadAssets(ctx context.Context, prompt string, task *taskResponse) (*AssetBundle, error) {
	if task.ModelURLs.GLB == "" {
		return nil, &gen.Error{
			Code:     gen.ErrEmptyResponse,
			Message:  "no model URL in response",
			Provider: providerName,
		}
	}

	layout, err := fsutil.NewLayout(o.cfg.AppDataDir, prompt, o.cfg.Now())
	if err != nil {
		return nil, &gen.Error{
			Code:     gen.ErrFileIO,
			Message:  err.Error(),
			Provider: providerName,
		}
	}

	bundle := &AssetBundle{}

	if err := o.downloadFile(ctx, task.ModelURLs.GLB, layout.GLBPath()); err != nil {
		return nil, err
	}
	bundle.GLBPath = layout.GLBPath()
	o.logger.Info("model downloaded", zap.String("path", bundle.GLBPath))

	if task.ThumbnailURL != "" {
		thumbPath := layout.ThumbnailPath()
		if err := o.downloadFile(ctx, task.ThumbnailURL, thumbPath); err != nil {
			o.logger.Warn("failed to download thumbnail", zap.Error(err))
		} else {
			bundle.ThumbnailPath = thumbPath
		}
	}

	if len(task.TextureURLs) > 0 {
		bundle.TexturePaths = o.downloadTextures(ctx, layout, task.TextureURLs)
	}

	return bundle, nil
}

// downloadTextures 并发下载各贴图通道；单个通道失败不致命。
func (o *Orchestrator) downloadTextures(ctx context.Context, layout fsutil.Layout, textures []textureURLs) []string {
	dir, err := layout.EnsureTextureDir()
	if err != nil {
		o.logger.Warn("failed to create texture directory", zap.Error(err))
		return nil
	}

	type channel struct {
		url  string
		name string
	}
	var channels []channel
	for _, tex := range textures {
		for _, c := range []channel{
			{tex.BaseColor, "base_color.png"},
			{tex.Metallic, "metallic.png"},
			{tex.Normal, "normal.png"},
			{tex.Roughness, "roughness.png"},
		} {
			if c.url != "" {
				channels = append(channels, c)
			}
		}
	}

	paths := make([]string, len(channels))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range channels {
		g.Go(func() error {
			dest := filepath.Join(dir, c.name)
			if err := o.downloadFile(gctx, c.url, dest); err != nil {
				o.logger.Warn("failed to download texture",
					zap.String("texture", c.name),
					zap.Error(err),
				)
				return nil
			}
			paths[i] = dest
			return nil
		})
	}
	_ = g.Wait() // 所有错误已在各自协程内吞掉

	var out []string
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// downloadFile 拉取 url 写入 dest。
func (o *Orchestrator) downloadFile(ctx context.Context, rawURL, dest string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	providers.BearerTokenHeaders(httpReq, o.cfg.APIKey)

	resp, err := o.download.Do(httpReq)
	if err != nil {
		return providers.NetworkError(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return providers.MapHTTPError(resp.StatusCode, assetName(rawURL), providerName)
	}

	f, err := os.Create(dest)
	if err != nil {
		return &gen.Error{Code: gen.ErrFileIO, Message: err.Error(), Provider: providerName}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &gen.Error{Code: gen.ErrFileIO, Message: err.Error(), Provider: providerName}
	}
	return nil
}

// assetName 从下载地址提取文件名用于错误消息。
func assetName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return path.Base(u.Path)
}
