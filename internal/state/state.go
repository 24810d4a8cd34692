// Package state keeps the planned nights and years of a running server.
package state

import (
	"sync"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/plan"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventNightPlanned EventType = "NIGHT_PLANNED"
	EventYearPlanned  EventType = "YEAR_PLANNED"
	EventPlanFailed   EventType = "PLAN_FAILED"
	EventEvicted      EventType = "EVICTED"
)

// Event records a planning run.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Key       string        `json:"key"`
	Duration  time.Duration `json:"duration_ns,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Night is a cached night plan.
type Night struct {
	Result    *plan.Result
	Ranking   plan.Ranking
	PlannedAt time.Time
}

// Year is a cached year plan.
type Year struct {
	Plan      *plan.YearPlan
	PlannedAt time.Time
}

// Manager caches plans with thread-safe access. Entries older than the TTL
// are reported as stale so callers can plan again.
type Manager struct {
	mu sync.RWMutex

	nights map[string]Night
	years  map[string]Year
	order  []string // night keys, oldest first

	maxNights int
	ttl       time.Duration
	lastError error
	lastRun   time.Time

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	now func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxNights int
	MaxEvents int
	TTL       time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		MaxNights: 31,
		MaxEvents: 50,
		TTL:       6 * time.Hour,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxNights := cfg.MaxNights
	if maxNights <= 0 {
		maxNights = 31
	}
	return &Manager{
		nights:    make(map[string]Night),
		years:     make(map[string]Year),
		maxNights: maxNights,
		ttl:       cfg.TTL,
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		now:       time.Now,
	}
}

// PutNight stores a night under key, evicting the oldest night once
// MaxNights is reached.
func (m *Manager) PutNight(key string, res *plan.Result, r plan.Ranking) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, ok := m.nights[key]; !ok {
		m.order = append(m.order, key)
	}
	m.nights[key] = Night{Result: res, Ranking: r, PlannedAt: now}
	m.lastRun = now
	m.lastError = nil

	for len(m.order) > m.maxNights {
		old := m.order[0]
		m.order = m.order[1:]
		delete(m.nights, old)
		m.addEvent(Event{Type: EventEvicted, Timestamp: now, Key: old})
	}

	var d time.Duration
	if res != nil {
		d = res.Duration
	}
	m.addEvent(Event{Type: EventNightPlanned, Timestamp: now, Key: key, Duration: d})
}

// Night returns the cached night and whether it is still fresh.
func (m *Manager) Night(key string) (Night, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nights[key]
	if !ok {
		return Night{}, false
	}
	return n, !m.stale(n.PlannedAt)
}

// PutYear stores a year plan under key.
func (m *Manager) PutYear(key string, y *plan.YearPlan, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.years[key] = Year{Plan: y, PlannedAt: now}
	m.lastRun = now
	m.lastError = nil
	m.addEvent(Event{Type: EventYearPlanned, Timestamp: now, Key: key, Duration: d})
}

// Year returns the cached year plan and whether it is still fresh.
func (m *Manager) Year(key string) (Year, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	y, ok := m.years[key]
	if !ok {
		return Year{}, false
	}
	return y, !m.stale(y.PlannedAt)
}

// RecordFailure logs a failed planning run.
func (m *Manager) RecordFailure(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.lastRun = now
	m.lastError = err
	m.addEvent(Event{Type: EventPlanFailed, Timestamp: now, Key: key, Error: err.Error()})
}

func (m *Manager) stale(at time.Time) bool {
	return m.ttl > 0 && m.now().Sub(at) > m.ttl
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Nights    []string // cached night keys, oldest first
	Years     int
	LastRun   time.Time
	LastError error
	Events    []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, len(m.order))
	copy(keys, m.order)

	return Snapshot{
		Nights:    keys,
		Years:     len(m.years),
		LastRun:   m.lastRun,
		LastError: m.lastError,
		Events:    m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasData reports whether any plan has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nights) > 0 || len(m.years) > 0
}
