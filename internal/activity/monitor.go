// Package activity implements the session inactivity monitor: after a period
// without user activity the session is warned and then expired.
package activity

import (
	"sync"
	"time"
)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// Config tunes one monitor.
type Config struct {
	// Timeout is the inactivity span after which OnTimeout fires.
	Timeout time.Duration
	// Warning is how long before the timeout OnWarning fires.
	Warning time.Duration
	// Interval is how often the monitor re-evaluates. Zero means one minute.
	Interval time.Duration
	Clock    Clock

	OnWarning func(remaining time.Duration)
	OnTimeout func()
}

// Monitor watches for inactivity. All methods are safe for concurrent use.
type Monitor struct {
	mu           sync.Mutex
	cfg          Config
	lastActivity time.Time
	warned       bool
	expired      bool
	stop         chan struct{}
	stopOnce     sync.Once
}

// New builds a monitor. Call Start to begin ticking; tests can drive Evaluate
// directly instead.
func New(cfg Config) *Monitor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.Warning <= 0 {
		cfg.Warning = 5 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Monitor{
		cfg:          cfg,
		lastActivity: cfg.Clock(),
		stop:         make(chan struct{}),
	}
}

// Start launches the periodic evaluation loop.
func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Evaluate()
			case <-m.stop:
				return
			}
		}
	}()
}

// Touch records user activity and clears any pending warning.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired {
		return
	}
	m.lastActivity = m.cfg.Clock()
	m.warned = false
}

// Evaluate runs one inactivity check. Exposed so tests can step time without
// a real ticker.
func (m *Monitor) Evaluate() {
	m.mu.Lock()
	if m.expired {
		m.mu.Unlock()
		return
	}

	idle := m.cfg.Clock().Sub(m.lastActivity)
	var warning func(time.Duration)
	var timeout func()
	var remaining time.Duration

	switch {
	case idle >= m.cfg.Timeout:
		m.expired = true
		timeout = m.cfg.OnTimeout
	case idle >= m.cfg.Timeout-m.cfg.Warning && !m.warned:
		m.warned = true
		warning = m.cfg.OnWarning
		remaining = m.cfg.Timeout - idle
	}
	m.mu.Unlock()

	// Callbacks run outside the lock so they can call Touch.
	if warning != nil {
		warning(remaining)
	}
	if timeout != nil {
		timeout()
	}
}

// Expired reports whether the session timed out.
func (m *Monitor) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// Stop ends the evaluation loop.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
