package services

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memKV is an in-process KeyValueStore for tests. TTLs are recorded but only
// expire when a test advances now.
type memKV struct {
	mu      sync.Mutex
	now     time.Time
	values  map[string]string
	expires map[string]time.Time
}

func newMemKV() *memKV {
	return &memKV{
		now:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		values:  map[string]string{},
		expires: map[string]time.Time{},
	}
}

func (m *memKV) advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *memKV) expireLocked(key string) {
	if exp, ok := m.expires[key]; ok && !m.now.Before(exp) {
		delete(m.values, key)
		delete(m.expires, key)
	}
}

func (m *memKV) setLocked(key, value string, ttl time.Duration) {
	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = m.now.Add(ttl)
	} else {
		delete(m.expires, key)
	}
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(key)
	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value, ttl)
	return nil
}

func (m *memKV) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(key)
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.setLocked(key, value, ttl)
	return true, nil
}

func (m *memKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.expires, k)
	}
	return nil
}

func (m *memKV) DelIfEqual(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] == value {
		delete(m.values, key)
		delete(m.expires, key)
	}
	return nil
}

func (m *memKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(key)
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	if _, hasTTL := m.expires[key]; hasTTL {
		m.values[key] = strconv.FormatInt(n, 10)
	} else {
		m.setLocked(key, strconv.FormatInt(n, 10), ttl)
	}
	return n, nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(key)
	_, ok := m.values[key]
	return ok
}
