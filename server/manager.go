package server

import "sync"

// ArenaManager 管理多个独立世界的生命周期：
// 按名字取用，首次访问时创建，最后一个连接断开后回收
type ArenaManager struct {
	mu     sync.RWMutex
	arenas map[string]*Hub
}

var (
	defaultManager *ArenaManager
	once           sync.Once
)

// GetArenaManager 单例世界管理器
func GetArenaManager() *ArenaManager {
	once.Do(func() {
		defaultManager = &ArenaManager{arenas: make(map[string]*Hub)}
	})
	return defaultManager
}

// GetOrCreate 获取或创建世界，并确保事件循环已启动
func (m *ArenaManager) GetOrCreate(name string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.arenas[name]
	if !ok {
		h = NewHub(name)
		h.OnEmpty = m.remove
		m.arenas[name] = h
		go h.Run()
	}
	return h
}

func (m *ArenaManager) remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.arenas[name]; ok {
		h.Stop()
		delete(m.arenas, name)
		Log.Infof("arena=%s empty, recycled", name)
	}
}
