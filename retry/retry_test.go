package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geomflow/gen"
)

func retryable(msg string) error {
	return &gen.Error{Code: gen.ErrNetwork, Message: msg, Retryable: true}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	r := New(&Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return retryable("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	r := New(&Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return retryable("still down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, gen.ErrNetwork, gen.CodeOf(err))
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	r := New(&Policy{MaxAttempts: 5, Delay: time.Millisecond}, nil)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return &gen.Error{Code: gen.ErrEmptyResponse, Message: "empty"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoPlainErrorNotRetried(t *testing.T) {
	r := New(&Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("not a gen error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoContextCancelled(t *testing.T) {
	r := New(&Policy{MaxAttempts: 3, Delay: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := r.Do(ctx, func() error {
		calls++
		return retryable("down")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestOnRetryCallback(t *testing.T) {
	var attempts []int
	r := New(&Policy{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnRetry:     func(attempt int, err error) { attempts = append(attempts, attempt) },
	}, nil)

	_ = r.Do(context.Background(), func() error { return retryable("down") })
	assert.Equal(t, []int{2, 3}, attempts)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
}
