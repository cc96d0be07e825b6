package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count  int64
	start  time.Time
	window time.Duration
}

// Memory is a thread-safe in-process Store. Counters are created lazily and
// swept periodically once their window is long past.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

var _ Store = (*Memory)(nil)

// NewMemory returns a Memory store. When sweepInterval > 0 a background
// janitor removes stale entries until Close is called.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.janitor(sweepInterval)
	}
	return m
}

func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || now.Sub(e.start) >= window {
		e = &memoryEntry{start: now, window: window}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.start, nil
}

// Close stops the janitor. Safe to call more than once.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep drops entries whose window ended more than one window ago; they can
// no longer affect any decision.
func (m *Memory) sweep() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.Sub(e.start) >= 2*e.window {
			delete(m.entries, key)
		}
	}
}
