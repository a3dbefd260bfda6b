package keycache

import (
	"fmt"
	"time"
)

// Manager owns the session and system tracks and routes a lookup to the
// right one based on whether a trace id is present (§4.4 step 1).
type Manager struct {
	Session *Cache
	System  *Cache

	systemIntervalMs int64
}

// NewManager combines the two tracks. systemIntervalMinutes governs the
// system-track rotation window (§4.5's "system id change interval").
func NewManager(session, system *Cache, systemIntervalMinutes int) *Manager {
	if systemIntervalMinutes <= 0 {
		systemIntervalMinutes = 15
	}
	return &Manager{
		Session:          session,
		System:           system,
		systemIntervalMs: int64(systemIntervalMinutes) * 60000,
	}
}

// KeyFor returns the KeyInfo for a record: the session track keyed by
// traceID if non-empty, otherwise the system track keyed by the current
// time-window identifier.
func (m *Manager) KeyFor(traceID string) (*KeyInfo, error) {
	if traceID != "" {
		return m.Session.GetOrCreate(traceID)
	}
	return m.System.GetOrCreate(m.systemID(time.Now()))
}

// systemID computes system_{floor(now_ms / interval_ms)} (§4.5).
func (m *Manager) systemID(now time.Time) string {
	window := now.UnixMilli() / m.systemIntervalMs
	return fmt.Sprintf("system_%d", window)
}
