// Package device models device resources that outlive a single request,
// currently the wake-lock that keeps the device awake during long imports.
package device

import (
	"log/slog"
	"sync"
)

// WakeLock is a held wake-lock. Release is idempotent.
type WakeLock interface {
	Topic() string
	Release()
}

// WakeLocker hands out wake-locks.
type WakeLocker interface {
	Acquire(topic string) WakeLock
}

// WakeLockManager counts held locks per topic. The device may only suspend
// when every topic's count is zero.
type WakeLockManager struct {
	mu     sync.Mutex
	held   map[string]int
	logger *slog.Logger
}

// NewWakeLockManager creates a manager with no locks held.
func NewWakeLockManager(logger *slog.Logger) *WakeLockManager {
	return &WakeLockManager{
		held:   make(map[string]int),
		logger: logger.With("component", "wakelock"),
	}
}

// Acquire takes a lock on topic.
func (m *WakeLockManager) Acquire(topic string) WakeLock {
	m.mu.Lock()
	m.held[topic]++
	count := m.held[topic]
	m.mu.Unlock()

	m.logger.Debug("wake lock acquired", "topic", topic, "held", count)
	return &wakeLock{topic: topic, manager: m}
}

// Held returns the number of unreleased locks on topic.
func (m *WakeLockManager) Held(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[topic]
}

func (m *WakeLockManager) release(topic string) {
	m.mu.Lock()
	m.held[topic]--
	count := m.held[topic]
	if count == 0 {
		delete(m.held, topic)
	}
	m.mu.Unlock()

	m.logger.Debug("wake lock released", "topic", topic, "held", count)
}

type wakeLock struct {
	topic    string
	manager  *WakeLockManager
	once     sync.Once
}

func (l *wakeLock) Topic() string { return l.topic }

func (l *wakeLock) Release() {
	first := false
	l.once.Do(func() {
		first = true
		l.manager.release(l.topic)
	})
	if !first {
		l.manager.logger.Warn("wake lock released twice", "topic", l.topic)
	}
}
