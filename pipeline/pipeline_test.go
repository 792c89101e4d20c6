package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/history"
	"github.com/BaSui01/geomflow/settings"
)

// fakeProvider 按预设返回响应或错误，支持阻塞以模拟在途任务。
type fakeProvider struct {
	name    string
	resp    *gen.ProviderResponse
	err     error
	block   chan struct{} // 非 nil 时 Generate 阻塞直到关闭
	entered chan struct{} // 非 nil 时首次进入 Generate 即关闭
	once    sync.Once
	prompts []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req *gen.GenerationRequest) (*gen.ProviderResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.entered != nil {
		f.once.Do(func() { close(f.entered) })
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newSession(t *testing.T) (*Session, *history.Ledger) {
	t.Helper()
	store := settings.Open(filepath.Join(t.TempDir(), "settings.json"), nil)
	ledger := history.Open(store, nil)
	return New(nil, ledger, nil, nil), ledger
}

func TestGenerateCodeRecordsHistory(t *testing.T) {
	s, ledger := newSession(t)
	s.Register(&fakeProvider{
		name: "claude",
		resp: &gen.ProviderResponse{RawText: "```python\nrs.AddBox()\n```", SanitizedText: "rs.AddBox()"},
	})

	entry, err := s.GenerateCode(context.Background(), "claude", "a cube", "millimeters")
	require.NoError(t, err)
	assert.Equal(t, "rs.AddBox()", entry.Code)
	assert.Equal(t, "claude", entry.Provider)
	assert.NotEmpty(t, entry.ID)

	all := ledger.Filter(history.Filter{Kind: history.KindCode})
	require.Len(t, all, 1)
	assert.Equal(t, "a cube", all[0].RecordPrompt())
}

func TestGenerateCodeUnknownProvider(t *testing.T) {
	s, ledger := newSession(t)
	_, err := s.GenerateCode(context.Background(), "nope", "a cube", "")
	require.Error(t, err)
	assert.Empty(t, ledger.All())
}

func TestGenerateCodeFailureBundle(t *testing.T) {
	s, ledger := newSession(t)
	genErr := &gen.Error{Code: gen.ErrHTTP, Message: "status=500: boom", Provider: "claude"}
	s.Register(&fakeProvider{name: "claude", err: genErr})

	_, err := s.GenerateCode(context.Background(), "claude", "a cube", "")
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "a cube", f.Prompt)
	assert.Equal(t, "claude", f.Provider)
	assert.Contains(t, f.Message, "boom")

	// 原始错误可继续解包
	var ge *gen.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, gen.ErrHTTP, ge.Code)

	// 失败不写历史
	assert.Empty(t, ledger.All())
}

func TestFailureCarriesLastText(t *testing.T) {
	s, _ := newSession(t)
	ok := &fakeProvider{name: "claude", resp: &gen.ProviderResponse{SanitizedText: "rs.AddBox()"}}
	s.Register(ok)

	_, err := s.GenerateCode(context.Background(), "claude", "a cube", "")
	require.NoError(t, err)

	ok.err = &gen.Error{Code: gen.ErrNetwork, Message: "connection reset"}
	ok.resp = nil
	_, err = s.GenerateCode(context.Background(), "claude", "a bigger cube", "")

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "rs.AddBox()", f.LastText)
}

func TestRepairCodePrompt(t *testing.T) {
	s, _ := newSession(t)
	p := &fakeProvider{name: "claude", resp: &gen.ProviderResponse{SanitizedText: "rs.AddSphere()"}}
	s.Register(p)

	f := &Failure{
		Prompt:   "a sphere",
		Provider: "claude",
		Message:  "NameError: rs is not defined",
		LastText: "AddSphere()",
	}
	entry, err := s.RepairCode(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "rs.AddSphere()", entry.Code)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "NameError: rs is not defined")
	assert.Contains(t, p.prompts[0], "AddSphere()")
	assert.Contains(t, p.prompts[0], "a sphere")
}

func TestConcurrentGenerationRejected(t *testing.T) {
	s, _ := newSession(t)
	block := make(chan struct{})
	entered := make(chan struct{})
	fp := &fakeProvider{
		name:    "claude",
		resp:    &gen.ProviderResponse{SanitizedText: "rs.AddBox()"},
		block:   block,
		entered: entered,
	}
	s.Register(fp)

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateCode(context.Background(), "claude", "slow", "")
		done <- err
	}()

	// 等第一个请求拿到令牌并进入 Generate
	<-entered
	_, err := s.GenerateCode(context.Background(), "claude", "second", "")
	assert.Equal(t, gen.ErrBusy, gen.CodeOf(err))

	close(block)
	require.NoError(t, <-done)

	// 任务结束后令牌释放
	_, err = s.GenerateCode(context.Background(), "claude", "third", "")
	require.NoError(t, err)
}
