// Package history 是生成历史台账：代码与网格两类记录各自独立封顶持久化，
// 枚举时按时间戳降序合并。
package history

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/settings"
)

// MaxEntriesPerKind 是每类记录的容量上限，超出后从尾部（最旧）淘汰。
const MaxEntriesPerKind = 1000

// Kind 区分记录变体。
type Kind string

const (
	KindCode Kind = "code"
	KindMesh Kind = "mesh"
)

// Record 是台账记录的统一视图。
type Record interface {
	RecordID() string
	RecordKind() Kind
	RecordPrompt() string
	RecordProvider() string
	RecordTime() time.Time
}

// CodeEntry 是一次成功的脚本生成。
type CodeEntry struct {
	ID                  string    `json:"id"`
	Prompt              string    `json:"prompt"`
	Code                string    `json:"code"`
	Provider            string    `json:"provider"`
	Timestamp           time.Time `json:"timestamp"`
	GeometryDescription string    `json:"geometry_description,omitempty"`
}

func (e CodeEntry) RecordID() string { return e.ID }
func (e CodeEntry) RecordKind() Kind { return KindCode }
func (e CodeEntry) RecordPrompt() string { return e.Prompt }
func (e CodeEntry) RecordProvider() string { return e.Provider }
func (e CodeEntry) RecordTime() time.Time { return e.Timestamp }

// MeshEntry 是一次成功的 3D 资产生成。
type MeshEntry struct {
	ID            string    `json:"id"`
	Prompt        string    `json:"prompt"`
	Provider      string    `json:"provider"`
	Timestamp     time.Time `json:"timestamp"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
}

func (e MeshEntry) RecordID() string { return e.ID }
func (e MeshEntry) RecordKind() Kind { return KindMesh }
func (e MeshEntry) RecordPrompt() string { return e.Prompt }
func (e MeshEntry) RecordProvider() string { return e.Provider }
func (e MeshEntry) RecordTime() time.Time { return e.Timestamp }

// Saver 是台账所需的最小持久化接口，由 settings.Store 满足。
type Saver interface {
	GetRaw(key string) json.RawMessage
	SetRaw(key string, value json.RawMessage) error
}

// Ledger 持有两类记录的内存镜像，头部为最新。
type Ledger struct {
	mu     sync.Mutex
	store  Saver
	code   []CodeEntry
	mesh   []MeshEntry
	logger *zap.Logger
}

// Open 从存储加载台账。任一类记录的持久化数据损坏时该类退化为空。
func Open(store Saver, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{store: store, logger: logger}

	if raw := store.GetRaw(settings.KeyCodeHistory); raw != nil {
		if err := json.Unmarshal(raw, &l.code); err != nil {
			logger.Warn("malformed code history, starting empty", zap.Error(err))
			l.code = nil
		}
	}
	if raw := store.GetRaw(settings.KeyMeshHistory); raw != nil {
		if err := json.Unmarshal(raw, &l.mesh); err != nil {
			logger.Warn("malformed mesh history, starting empty", zap.Error(err))
			l.mesh = nil
		}
	}
	return l
}

// AppendCode 头插一条代码记录并持久化；ID 与时间戳为空时自动补全。
func (l *Ledger) AppendCode(e CodeEntry) CodeEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = append([]CodeEntry{e}, l.code...)
	if len(l.code) > MaxEntriesPerKind {
		l.code = l.code[:MaxEntriesPerKind]
	}
	l.persistLocked(settings.KeyCodeHistory, l.code)
	return e
}

// AppendMesh 头插一条网格记录并持久化。
func (l *Ledger) AppendMesh(e MeshEntry) MeshEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.mesh = append([]MeshEntry{e}, l.mesh...)
	if len(l.mesh) > MaxEntriesPerKind {
		l.mesh = l.mesh[:MaxEntriesPerKind]
	}
	l.persistLocked(settings.KeyMeshHistory, l.mesh)
	return e
}

// All 按时间戳降序合并两类记录。
func (l *Ledger) All() []Record {
	return l.Filter(Filter{})
}

// Filter 是记录筛选条件，零值字段不参与过滤。
type Filter struct {
	Provider string
	Kind     Kind
	// Search 对提示词（代码记录还包括代码正文）做不区分大小写的子串匹配。
	Search string
}

func (f Filter) matches(r Record) bool {
	if f.Provider != "" && r.RecordProvider() != f.Provider {
		return false
	}
	if f.Kind != "" && r.RecordKind() != f.Kind {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if strings.Contains(strings.ToLower(r.RecordPrompt()), needle) {
			return true
		}
		if c, ok := r.(CodeEntry); ok && strings.Contains(strings.ToLower(c.Code), needle) {
			return true
		}
		return false
	}
	return true
}

// Filter 返回满足条件的记录，时间戳降序。
func (l *Ledger) Filter(f Filter) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(l.code)+len(l.mesh))
	for _, e := range l.code {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	for _, e := range l.mesh {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordTime().After(out[j].RecordTime())
	})
	return out
}

// Remove 按 ID 删除记录并持久化。网格记录同时删除其资产文件与缩略图；
// 文件删除失败只记日志，不向上传播。返回是否找到记录。
func (l *Ledger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.code {
		if e.ID == id {
			l.code = append(l.code[:i], l.code[i+1:]...)
			l.persistLocked(settings.KeyCodeHistory, l.code)
			return true
		}
	}
	for i, e := range l.mesh {
		if e.ID == id {
			l.mesh = append(l.mesh[:i], l.mesh[i+1:]...)
			l.deleteAsset(e.FilePath)
			l.deleteAsset(e.ThumbnailPath)
			l.persistLocked(settings.KeyMeshHistory, l.mesh)
			return true
		}
	}
	return false
}

func (l *Ledger) deleteAsset(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		l.logger.Warn("failed to delete asset file", zap.String("path", path), zap.Error(err))
	}
}

// persistLocked 序列化并写回存储。调用方必须持有 l.mu。
func (l *Ledger) persistLocked(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		l.logger.Error("failed to encode history", zap.String("key", key), zap.Error(err))
		return
	}
	if err := l.store.SetRaw(key, raw); err != nil {
		l.logger.Error("failed to persist history", zap.String("key", key), zap.Error(err))
	}
}
