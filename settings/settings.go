// Package settings 是文件后端的键值配置存储。
// 所有值以 JSON 形式持久化在单个文件中，写入走单写者纪律（互斥锁 + 整体重写）。
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Store 持有配置文件的内存镜像。
// 每次 Set 都同步落盘；加载失败（文件缺失或损坏）退化为空存储。
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
	logger *zap.Logger
}

// Open 加载或初始化配置文件。
func Open(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:   path,
		values: make(map[string]json.RawMessage),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read settings file", zap.String("path", path), zap.Error(err))
		}
		return s
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// 损坏的配置不阻塞启动
		logger.Warn("malformed settings file, starting empty", zap.String("path", path), zap.Error(err))
		s.values = make(map[string]json.RawMessage)
	}
	return s
}

// GetRaw 返回键对应的原始 JSON，键不存在时返回 nil。
func (s *Store) GetRaw(key string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// SetRaw 写入原始 JSON 并落盘。
func (s *Store) SetRaw(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Get 将键的值反序列化到 out；键不存在时返回 false。
func (s *Store) Get(key string, out any) bool {
	raw := s.GetRaw(key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("failed to decode setting", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set 序列化值并写入键。
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return s.SetRaw(key, raw)
}

// GetString 读取字符串值，键缺失或类型不符返回 fallback。
func (s *Store) GetString(key, fallback string) string {
	var v string
	if s.Get(key, &v) {
		return v
	}
	return fallback
}

// GetFloat 读取浮点值，键缺失或类型不符返回 fallback。
func (s *Store) GetFloat(key string, fallback float64) float64 {
	var v float64
	if s.Get(key, &v) {
		return v
	}
	return fallback
}

// GetInt 读取整数值，键缺失或类型不符返回 fallback。
func (s *Store) GetInt(key string, fallback int) int {
	var v int
	if s.Get(key, &v) {
		return v
	}
	return fallback
}

// flushLocked 将全部键值重写到磁盘。调用方必须持有 s.mu。
// 先写同目录临时文件再 rename，避免写到一半崩溃留下半截文件。
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// DefaultPath 返回默认配置文件位置 {appData}/geomflow/settings.json。
func DefaultPath(appData string) string {
	return filepath.Join(appData, "geomflow", "settings.json")
}
