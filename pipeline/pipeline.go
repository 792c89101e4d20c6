// Package pipeline 是会话协调器：持有各文本生成 Provider、网格编排器与
// 历史台账，串起 提示词 → 生成 → 记录 的完整链路。
//
// 同一会话同时只允许一个生成任务，重入直接拒绝（ErrBusy），
// 不做排队。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/exec"
	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/history"
	"github.com/BaSui01/geomflow/mesh"
)

// Failure 是一次失败生成的完整上下文，足以支撑“重试/修复”流程：
// 把它原样交给 RepairCode 即可发起一次修复请求。
type Failure struct {
	Prompt   string
	Provider string
	Message  string

	// LastText 是失败前最后一次产出的脚本文本（网格生成时为空）。
	LastText string

	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("generation failed (provider=%s): %s", f.Provider, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Session 假定单逻辑会话：busy 标记保证任意时刻至多一个生成在途。
type Session struct {
	providers map[string]gen.Provider
	mesher    *mesh.Orchestrator
	ledger    *history.Ledger
	describer exec.SceneDescriber // 可选
	logger    *zap.Logger

	busy chan struct{} // 容量 1 的令牌

	// lastCode 是最近一次成功生成的脚本，供修复流程引用。
	lastCode string
}

// New 创建会话协调器。describer 可为 nil。
func New(mesher *mesh.Orchestrator, ledger *history.Ledger, describer exec.SceneDescriber, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		providers: make(map[string]gen.Provider),
		mesher:    mesher,
		ledger:    ledger,
		describer: describer,
		logger:    logger,
		busy:      make(chan struct{}, 1),
	}
	s.busy <- struct{}{}
	return s
}

// Register 注册一个文本生成 Provider，同名覆盖。
func (s *Session) Register(p gen.Provider) {
	s.providers[p.Name()] = p
}

// Providers 返回已注册的 Provider 名称。
func (s *Session) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

// acquire 获取生成令牌；已有任务在途时返回 ErrBusy。
func (s *Session) acquire() error {
	select {
	case <-s.busy:
		return nil
	default:
		return &gen.Error{
			Code:    gen.ErrBusy,
			Message: "a generation is already in flight",
		}
	}
}

func (s *Session) release() {
	s.busy <- struct{}{}
}

// GenerateCode 执行一次文本生成脚本的完整流程并记录历史。
// 失败返回 *Failure，携带修复请求所需的全部上下文。
func (s *Session) GenerateCode(ctx context.Context, providerID, prompt, units string) (history.CodeEntry, error) {
	if err := s.acquire(); err != nil {
		return history.CodeEntry{}, err
	}
	defer s.release()

	p, ok := s.providers[providerID]
	if !ok {
		return history.CodeEntry{}, fmt.Errorf("unknown provider: %s", providerID)
	}

	resp, err := p.Generate(ctx, &gen.GenerationRequest{
		Prompt:     prompt,
		Capability: gen.TextToCode,
		ProviderID: providerID,
		Units:      units,
	})
	if err != nil {
		return history.CodeEntry{}, &Failure{
			Prompt:   prompt,
			Provider: providerID,
			Message:  err.Error(),
			LastText: s.lastCode,
			Err:      err,
		}
	}

	entry := history.CodeEntry{
		Prompt:              prompt,
		Code:                resp.SanitizedText,
		Provider:            providerID,
		Timestamp:           time.Now(),
		GeometryDescription: s.describeGeometry(ctx),
	}
	entry = s.ledger.AppendCode(entry)
	s.lastCode = resp.SanitizedText
	s.logger.Info("code generated",
		zap.String("provider", providerID),
		zap.Int("length", len(resp.SanitizedText)),
	)
	return entry, nil
}

// RepairCode 基于失败上下文发起修复请求：把出错信息与最后一次脚本
// 拼成新的提示词重新生成。
func (s *Session) RepairCode(ctx context.Context, f *Failure) (history.CodeEntry, error) {
	prompt := fmt.Sprintf(
		"The previous script failed with error: %s\n\nScript:\n%s\n\nOriginal request: %s\nFix the script.",
		f.Message, f.LastText, f.Prompt,
	)
	return s.GenerateCode(ctx, f.Provider, prompt, "")
}

// GenerateMesh 执行文本生成 3D 资产的完整流程并记录历史。
func (s *Session) GenerateMesh(ctx context.Context, prompt string, progress mesh.ProgressFunc) (*mesh.AssetBundle, history.MeshEntry, error) {
	if err := s.acquire(); err != nil {
		return nil, history.MeshEntry{}, err
	}
	defer s.release()

	bundle, err := s.mesher.GenerateFromPrompt(ctx, prompt, progress)
	if err != nil {
		return nil, history.MeshEntry{}, &Failure{
			Prompt:   prompt,
			Provider: "meshy",
			Message:  err.Error(),
			Err:      err,
		}
	}
	entry := s.recordMesh(prompt, bundle)
	return bundle, entry, nil
}

// GenerateMeshFromImage 执行图片生成 3D 资产的完整流程并记录历史。
// name 用于文件命名与历史展示。
func (s *Session) GenerateMeshFromImage(ctx context.Context, imageData []byte, name string, progress mesh.ProgressFunc) (*mesh.AssetBundle, history.MeshEntry, error) {
	if err := s.acquire(); err != nil {
		return nil, history.MeshEntry{}, err
	}
	defer s.release()

	bundle, err := s.mesher.GenerateFromImage(ctx, imageData, name, progress)
	if err != nil {
		return nil, history.MeshEntry{}, &Failure{
			Prompt:   name,
			Provider: "meshy",
			Message:  err.Error(),
			Err:      err,
		}
	}
	entry := s.recordMesh(name, bundle)
	return bundle, entry, nil
}

func (s *Session) recordMesh(prompt string, bundle *mesh.AssetBundle) history.MeshEntry {
	entry := s.ledger.AppendMesh(history.MeshEntry{
		Prompt:        prompt,
		Provider:      "meshy",
		Timestamp:     time.Now(),
		FilePath:      bundle.GLBPath,
		ThumbnailPath: bundle.ThumbnailPath,
	})
	s.logger.Info("mesh generated", zap.String("path", bundle.GLBPath))
	return entry
}

func (s *Session) describeGeometry(ctx context.Context) string {
	if s.describer == nil {
		return ""
	}
	desc, err := s.describer.DescribeGeometry(ctx)
	if err != nil {
		s.logger.Warn("failed to describe geometry", zap.Error(err))
		return ""
	}
	return desc
}
