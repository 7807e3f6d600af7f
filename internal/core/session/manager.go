// Package session 管理每個瀏覽器會話的工作區與目錄副本
package session

import (
	"sync"
	"time"

	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/core/kitchen"
	"virtual-kitchen/internal/infrastructure/config"
	"virtual-kitchen/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 會話管理器
type Manager struct {
	base        *catalog.Store
	opts        []kitchen.Option
	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
	stats    stats

	stop      chan struct{}
	closeOnce sync.Once
}

// entry 會話條目；mu 確保同一會話的操作依序執行
type entry struct {
	mu         sync.Mutex
	id         string
	workspace  *kitchen.Workspace
	createdAt  time.Time
	lastAccess time.Time
	operations int
}

type stats struct {
	created int64
	expired int64
	evicted int64
}

// Stats 會話統計
type Stats struct {
	Active      int   `json:"active"`
	MaxSessions int   `json:"max_sessions"`
	Created     int64 `json:"created"`
	Expired     int64 `json:"expired"`
	Evicted     int64 `json:"evicted"`
}

// NewManager 創建會話管理器；CleanupInterval > 0 時啟動背景清理
func NewManager(cfg config.SessionConfig, base *catalog.Store, opts ...kitchen.Option) *Manager {
	m := &Manager{
		base:        base,
		opts:        opts,
		maxSessions: cfg.MaxSessions,
		idleTTL:     cfg.IdleTTL,
		now:         time.Now,
		sessions:    make(map[string]*entry),
		stop:        make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go m.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("會話管理員已初始化",
		zap.Int("max_sessions", cfg.MaxSessions),
		zap.Duration("idle_ttl", cfg.IdleTTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return m
}

// Create 建立新會話：空白工作區加上獨立的目錄副本
func (m *Manager) Create() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions <= 0 {
		return "", common.ErrSessionLimit
	}

	if len(m.sessions) >= m.maxSessions {
		// 先清理閒置會話，仍然超過時淘汰最久未使用者
		if n := m.sweep(); n > 0 {
			common.LogInfo("會話清理執行", zap.Int("清理數量", n))
		}
		if len(m.sessions) >= m.maxSessions {
			m.evictLRU()
		}
	}

	id := common.GenerateUUID()
	opts := append([]kitchen.Option{kitchen.WithNotifier(eventLogger(id))}, m.opts...)
	now := m.now()
	m.sessions[id] = &entry{
		id:         id,
		workspace:  kitchen.New(m.base.Clone(), opts...),
		createdAt:  now,
		lastAccess: now,
	}
	m.stats.created++

	common.LogDebug("會話已建立", zap.String("session_id", id))
	return id, nil
}

// With 在會話鎖內執行 fn；會話不存在或已閒置過期時回傳 ErrSessionNotFound
func (m *Manager) With(id string, fn func(ws *kitchen.Workspace) error) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok && m.expired(e) {
		delete(m.sessions, id)
		m.stats.expired++
		ok = false
	}
	if ok {
		e.lastAccess = m.now()
		e.operations++
	}
	m.mu.Unlock()

	if !ok {
		return common.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.workspace)
}

// Delete 刪除會話
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	common.LogDebug("會話已刪除", zap.String("session_id", id))
	return true
}

// Stats 取得統計信息
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Active:      len(m.sessions),
		MaxSessions: m.maxSessions,
		Created:     m.stats.created,
		Expired:     m.stats.expired,
		Evicted:     m.stats.evicted,
	}
}

// Close 停止背景清理並清空所有會話
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	active := len(m.sessions)
	m.sessions = make(map[string]*entry)
	common.LogInfo("會話管理員已關閉",
		zap.Int("active", active),
		zap.Int64("created", m.stats.created),
		zap.Int64("expired", m.stats.expired),
		zap.Int64("evicted", m.stats.evicted),
	)
	return nil
}

// startCleanup 定期清理閒置會話
func (m *Manager) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			n := m.sweep()
			m.mu.Unlock()
			if n > 0 {
				common.LogInfo("Cleaned up idle sessions", zap.Int("count", n))
			}
		case <-m.stop:
			return
		}
	}
}

// sweep 移除閒置過期的會話（呼叫端需持有寫鎖）
func (m *Manager) sweep() int {
	count := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			count++
			m.stats.expired++
		}
	}
	return count
}

func (m *Manager) expired(e *entry) bool {
	return m.idleTTL > 0 && m.now().Sub(e.lastAccess) > m.idleTTL
}

// evictLRU 淘汰最久未使用的會話（呼叫端需持有寫鎖）
func (m *Manager) evictLRU() {
	var oldest *entry
	for _, e := range m.sessions {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldest = e
		}
	}

	if oldest != nil {
		delete(m.sessions, oldest.id)
		m.stats.evicted++
		common.LogInfo("會話已淘汰(LRU)",
			zap.String("session_id", oldest.id),
			zap.Int("operations", oldest.operations),
		)
	}
}

// eventLogger 將工作區事件寫入除錯日誌
func eventLogger(sessionID string) kitchen.Notifier {
	return kitchen.NotifierFunc(func(e kitchen.Event) {
		fields := []zap.Field{
			zap.String("session_id", sessionID),
			zap.String("kind", string(e.Kind)),
			zap.String("instance_id", e.InstanceID),
		}
		if e.Action != "" {
			fields = append(fields, zap.String("action", e.Action))
		}
		if e.Ingredient != nil {
			fields = append(fields, zap.String("ingredient", e.Ingredient.Name))
		}
		common.LogDebug("工作區事件", fields...)
	})
}
