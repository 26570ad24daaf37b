package frontend

import (
	"errors"
	"sync"
)

// ErrPreferenceNotFound はキーに値が保存されていない場合に返却されます。
var ErrPreferenceNotFound = errors.New("frontend: preference not found")

// Preferences はクライアント設定の永続化先です。
type Preferences interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// MemoryPreferences はプロセス内だけで保持する Preferences です。
type MemoryPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryPreferences は空の MemoryPreferences を生成します。
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

func (p *MemoryPreferences) Get(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	if !ok {
		return "", ErrPreferenceNotFound
	}
	return v, nil
}

func (p *MemoryPreferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}
