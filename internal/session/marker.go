// Package session manages small expiring markers, the local analogue of
// short-lived cookies: a value under a fixed name that silently disappears
// once its expiration horizon passes.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ActivityMarker records the last-activity timestamp (ISO-8601 value).
	ActivityMarker = "expense-tracker-session"
	// AuthMarker records the authenticated session as JSON {"userId":…}.
	AuthMarker = "expense-tracker-auth"

	ActivityTTLDays = 30
	AuthTTLDays     = 7
)

// Store is the persistence the markers sit on; the fallback kv store
// satisfies it.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Delete(key string) error
}

type Markers struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Markers {
	return &Markers{store: store, now: time.Now}
}

type record struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Set stores value under name, expiring ttlDays from now.
func (m *Markers) Set(name, value string, ttlDays int) error {
	rec := record{
		Value:     value,
		ExpiresAt: m.now().UTC().AddDate(0, 0, ttlDays),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode marker: %w", err)
	}
	if err := m.store.Set(name, string(b)); err != nil {
		return fmt.Errorf("store marker: %w", err)
	}
	return nil
}

// Get returns the marker value while it is unexpired. Expired or unreadable
// markers read as absent and are removed on the way out.
func (m *Markers) Get(name string) (string, bool) {
	raw, ok, err := m.store.Get(name)
	if err != nil || !ok {
		return "", false
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.store.Delete(name)
		return "", false
	}
	if !m.now().UTC().Before(rec.ExpiresAt) {
		m.store.Delete(name)
		return "", false
	}
	return rec.Value, true
}

// Clear expires the marker immediately by overwriting it with an
// already-expired record.
func (m *Markers) Clear(name string) error {
	rec := record{ExpiresAt: time.Unix(0, 0).UTC()}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode marker: %w", err)
	}
	if err := m.store.Set(name, string(b)); err != nil {
		return fmt.Errorf("store marker: %w", err)
	}
	return nil
}

// Touch refreshes the activity marker with the current timestamp.
func (m *Markers) Touch() error {
	return m.Set(ActivityMarker, m.now().UTC().Format(time.RFC3339), ActivityTTLDays)
}
