package providers

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/retry"
)

// retryingProvider 用重试器包装 gen.Provider。
// Network/HTTP 错误按策略重试；EmptyResponse 永不重试。
type retryingProvider struct {
	inner   gen.Provider
	retryer *retry.Retryer
}

// WithRetry 返回带重试能力的 Provider 包装。
// 重试耗尽后上抛最后一次观察到的错误。
func WithRetry(p gen.Provider, policy *retry.Policy, logger *zap.Logger) gen.Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryingProvider{
		inner:   p,
		retryer: retry.New(policy, logger.With(zap.String("provider", p.Name()))),
	}
}

func (r *retryingProvider) Name() string { return r.inner.Name() }

func (r *retryingProvider) Generate(ctx context.Context, req *gen.GenerationRequest) (*gen.ProviderResponse, error) {
	var resp *gen.ProviderResponse
	err := r.retryer.Do(ctx, func() error {
		var genErr error
		resp, genErr = r.inner.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
