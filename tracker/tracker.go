package tracker

import (
	"sync"
)

// Key 唯一标识一次状态探测：操作类别 + 实例 ID。
type Key struct {
	Kind       string
	InstanceID int64
}

// Manager 记录仍在进行中的状态探测，避免慢请求在下一轮被重复发起。
type Manager struct {
	mu      sync.Mutex
	running map[Key]string
}

// NewManager 构造。
func NewManager() *Manager { return &Manager{running: map[Key]string{}} }

// Start 登记探测；同一 Key 已在进行中时返回 false。
// jobID 仅用于观察（List）。
func (m *Manager) Start(k Key, jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.running[k]; busy {
		return false
	}
	m.running[k] = jobID
	return true
}

// Done 结束探测。
func (m *Manager) Done(k Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.running, k)
}

// List 返回当前进行中的探测（Key -> jobID）。
func (m *Manager) List() map[Key]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Key]string, len(m.running))
	for k, v := range m.running {
		out[k] = v
	}
	return out
}
