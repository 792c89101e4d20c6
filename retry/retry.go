// Package retry 提供面向 Provider 调用的固定间隔重试器。
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/gen"
)

// Policy 定义重试策略配置。
type Policy struct {
	// MaxAttempts 是总尝试次数（含首次），0 按默认值处理。
	MaxAttempts int
	// Delay 是两次尝试之间的固定等待。
	Delay time.Duration
	// OnRetry 在每次重试前被调用。
	OnRetry func(attempt int, err error)
}

// DefaultPolicy 返回默认策略：共 3 次尝试，间隔固定 1 秒。
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		Delay:       1 * time.Second,
	}
}

// Retryer 按策略重试一个操作。
type Retryer struct {
	policy *Policy
	logger *zap.Logger
}

// New 创建重试器；policy 为 nil 时使用默认策略。
func New(policy *Policy, logger *zap.Logger) *Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.Delay <= 0 {
		policy.Delay = 1 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{policy: policy, logger: logger}
}

// Do 执行 fn，失败且错误可重试时按策略重试，返回最后一次观察到的错误。
// 不可重试的错误（如 EmptyResponse）立即返回。
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			r.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.policy.MaxAttempts),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(r.policy.Delay):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return nil
		}

		if !gen.IsRetryable(lastErr) {
			r.logger.Debug("error not retryable", zap.Error(lastErr))
			return lastErr
		}
	}

	r.logger.Warn("retry budget exhausted",
		zap.Int("attempts", r.policy.MaxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}
