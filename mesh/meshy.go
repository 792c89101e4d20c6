// Package mesh 驱动 Meshy 的远端 3D 生成任务：
// 文本生成走 preview → refine 两阶段（各自创建任务并轮询到终态），
// 图片生成为单阶段；成功后下载 GLB、缩略图与贴图。
//
// 进度约定：preview 阶段上报 remote/2（0–50），refine 阶段上报
// 50+remote/2（50–100），阶段交界恰好落在 50。
package mesh

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/internal/fsutil"
	"github.com/BaSui01/geomflow/internal/tlsutil"
	"github.com/BaSui01/geomflow/providers"
)

const providerName = "meshy"

// ProgressFunc 接收 0–100 的总体进度。回调在轮询协程上同步执行，
// 必须轻量且不可阻塞。
type ProgressFunc func(percent int)

// Config 是编排器配置。
type Config struct {
	APIKey  string
	BaseURL string // 默认 https://api.meshy.ai

	// AppDataDir 是资产落盘根目录；空值取宿主配置目录。
	AppDataDir string

	// PollInterval 是轮询间隔，默认 2 秒。
	PollInterval time.Duration

	// RequestTimeout 是创建/轮询请求超时，默认 30 秒。
	RequestTimeout time.Duration

	// DownloadTimeout 是资产下载超时，默认 10 分钟。
	DownloadTimeout time.Duration

	// Tier 决定 target_polycount 的合法区间，默认免费档。
	Tier Tier

	// TargetPolycount 默认 30000。
	TargetPolycount int

	ArtStyle       string // 默认 "realistic"
	NegativePrompt string // 默认 "low quality, low resolution, low poly, ugly"
	AIModel        string // 默认 "meshy-4"
	Topology       string // 默认 "triangle"

	// Now 仅供测试注入时钟。
	Now func() time.Time
}

// Orchestrator 实现两阶段网格生成的任务编排。
type Orchestrator struct {
	cfg      Config
	client   *http.Client // 创建/轮询
	download *http.Client // 资产下载
	logger   *zap.Logger

	mu        sync.Mutex
	polycount int
}

// New 创建编排器并填充默认配置。
func New(cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.meshy.ai"
	}
	if cfg.AppDataDir == "" {
		cfg.AppDataDir = fsutil.DefaultAppData()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 10 * time.Minute
	}
	if cfg.Tier == "" {
		cfg.Tier = TierFree
	}
	if cfg.TargetPolycount == 0 {
		cfg.TargetPolycount = DefaultTargetPolycount
	}
	if cfg.ArtStyle == "" {
		cfg.ArtStyle = "realistic"
	}
	if cfg.NegativePrompt == "" {
		cfg.NegativePrompt = "low quality, low resolution, low poly, ugly"
	}
	if cfg.AIModel == "" {
		cfg.AIModel = "meshy-4"
	}
	if cfg.Topology == "" {
		cfg.Topology = "triangle"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		client:    tlsutil.SecureHTTPClient(cfg.RequestTimeout),
		download:  tlsutil.SecureHTTPClient(cfg.DownloadTimeout),
		logger:    logger,
		polycount: cfg.Tier.ClampPolycount(cfg.TargetPolycount),
	}
}

// SetTargetPolycount 更新目标面数，按档位吸附并收敛。
func (o *Orchestrator) SetTargetPolycount(v int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polycount = o.cfg.Tier.ClampPolycount(v)
}

// TargetPolycount 返回当前生效的目标面数。
func (o *Orchestrator) TargetPolycount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.polycount
}

func (o *Orchestrator) textTaskURL(suffix string) string {
	return strings.TrimRight(o.cfg.BaseURL, "/") + "/v2/text-to-3d" + suffix
}

func (o *Orchestrator) imageTaskURL(suffix string) string {
	return strings.TrimRight(o.cfg.BaseURL, "/") + "/openapi/v1/image-to-3d" + suffix
}

// GenerateFromPrompt 执行完整的两阶段文本生成并下载资产。
func (o *Orchestrator) GenerateFromPrompt(ctx context.Context, prompt string, progress ProgressFunc) (*AssetBundle, error) {
	polycount := o.TargetPolycount()

	previewReq := textTo3DRequest{
		Mode:            "preview",
		Prompt:          prompt,
		ArtStyle:        o.cfg.ArtStyle,
		NegativePrompt:  o.cfg.NegativePrompt,
		AIModel:         o.cfg.AIModel,
		Topology:        o.cfg.Topology,
		TargetPolycount: polycount,
		EnablePBR:       true,
	}
	previewID, err := o.createTask(ctx, o.textTaskURL(""), previewReq)
	if err != nil {
		return nil, err
	}
	o.logger.Info("preview task created", zap.String("task_id", previewID))

	preview := Task{ID: previewID, Phase: PhasePreview, Status: StatusPending}
	if _, err := o.pollTask(ctx, o.textTaskURL("/"+previewID), &preview, progress, func(p int) int {
		return p / 2
	}); err != nil {
		return nil, err
	}

	refineReq := textTo3DRequest{
		Mode:            "refine",
		ArtStyle:        o.cfg.ArtStyle,
		NegativePrompt:  o.cfg.NegativePrompt,
		AIModel:         o.cfg.AIModel,
		Topology:        o.cfg.Topology,
		TargetPolycount: polycount,
		PreviewTaskID:   previewID,
		EnablePBR:       true,
	}
	refineID, err := o.createTask(ctx, o.textTaskURL(""), refineReq)
	if err != nil {
		return nil, err
	}
	o.logger.Info("refine task created", zap.String("task_id", refineID))

	refine := Task{ID: refineID, Phase: PhaseRefine, Status: StatusPending}
	refineResp, err := o.pollTask(ctx, o.textTaskURL("/"+refineID), &refine, progress, func(p int) int {
		return 50 + p/2
	})
	if err != nil {
		return nil, err
	}

	bundle, err := o.downloadAssets(ctx, prompt, refineResp)
	if err != nil {
		return nil, err
	}
	bundle.Tasks = []Task{preview, refine}
	return bundle, nil
}

// GenerateFromImage 执行单阶段图片生成并下载资产。
// imageData 以 data URI 形式上传；prompt 仅用于文件命名与历史记录。
func (o *Orchestrator) GenerateFromImage(ctx context.Context, imageData []byte, prompt string, progress ProgressFunc) (*AssetBundle, error) {
	if len(imageData) == 0 {
		return nil, &gen.Error{
			Code:     gen.ErrInvalidInput,
			Message:  "image data is empty",
			Provider: providerName,
		}
	}

	body := imageTo3DRequest{
		ImageURL:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData),
		EnablePBR:       true,
		ShouldTexture:   true,
		Topology:        o.cfg.Topology,
		TargetPolycount: o.TargetPolycount(),
	}
	taskID, err := o.createTask(ctx, o.imageTaskURL(""), body)
	if err != nil {
		return nil, err
	}
	o.logger.Info("image task created", zap.String("task_id", taskID))

	task := Task{ID: taskID, Phase: PhaseSingle, Status: StatusPending}
	resp, err := o.pollTask(ctx, o.imageTaskURL("/"+taskID), &task, progress, func(p int) int {
		return p
	})
	if err != nil {
		return nil, err
	}

	bundle, err := o.downloadAssets(ctx, prompt, resp)
	if err != nil {
		return nil, err
	}
	bundle.Tasks = []Task{task}
	return bundle, nil
}

// createTask 发送创建请求并提取任务 ID。
func (o *Orchestrator) createTask(ctx context.Context, endpoint string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	providers.BearerTokenHeaders(httpReq, o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", providers.NetworkError(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return "", providers.MapHTTPError(resp.StatusCode, msg, providerName)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", providers.EmptyResponseError(fmt.Sprintf("failed to decode response: %v", err), providerName)
	}
	if created.Result == "" {
		return "", &gen.Error{
			Code:     gen.ErrNoTaskID,
			Message:  "no task ID in response",
			Provider: providerName,
		}
	}
	return created.Result, nil
}

// pollTask 以固定间隔轮询直到终态，按 mapProgress 上报总体进度。
// 轮询请求失败或远端报告失败都会中止整个任务，不做本地重试。
func (o *Orchestrator) pollTask(ctx context.Context, endpoint string, task *Task, progress ProgressFunc, mapProgress func(int) int) (*taskResponse, error) {
	lastReported := -1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.cfg.PollInterval):
		}

		resp, err := o.getTask(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		status := statusFromRemote(resp.Status)
		task.advance(status, resp.Progress)
		task.AssetURLs = assetURLsOf(resp)

		if status == StatusFailed {
			msg := fmt.Sprintf("%s task failed", task.Phase)
			if resp.TaskError != nil && resp.TaskError.Message != "" {
				msg = resp.TaskError.Message
			}
			task.ErrorMessage = msg
			return nil, &gen.Error{
				Code:     gen.ErrTaskFailed,
				Message:  msg,
				Provider: providerName,
			}
		}

		if progress != nil {
			p := mapProgress(resp.Progress)
			if p < 0 {
				p = 0
			}
			if p > 100 {
				p = 100
			}
			if p >= lastReported {
				progress(p)
				lastReported = p
			}
		}

		if status == StatusSucceeded {
			return resp, nil
		}
	}
}

func (o *Orchestrator) getTask(ctx context.Context, endpoint string) (*taskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	providers.BearerTokenHeaders(httpReq, o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, providers.NetworkError(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, providerName)
	}

	var task taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, providers.EmptyResponseError(fmt.Sprintf("failed to decode task status: %v", err), providerName)
	}
	return &task, nil
}

func assetURLsOf(resp *taskResponse) AssetURLs {
	urls := AssetURLs{
		GLB:       resp.ModelURLs.GLB,
		Thumbnail: resp.ThumbnailURL,
	}
	for _, tex := range resp.TextureURLs {
		for _, u := range []string{tex.BaseColor, tex.Metallic, tex.Normal, tex.Roughness} {
			if u != "" {
				urls.Textures = append(urls.Textures, u)
			}
		}
	}
	return urls
}
