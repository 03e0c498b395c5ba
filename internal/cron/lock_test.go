package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) AcquireLock(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = owner
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) ReleaseLock(_ context.Context, key, owner string) (bool, error) {
	if m.values[key] != owner {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestLocalLock(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()
	if ok, err := lock.Acquire(ctx); !ok || err != nil {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("second acquire should fail while held")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire after release should succeed")
	}
	_ = lock.Release(ctx)
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("double release: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewLocalLock().Acquire(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestRedisLockOwnership(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	first, err := NewRedisLock(store, "yp:lock:live_refresh", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "yp:lock:live_refresh", time.Second)

	if ok, err := first.Acquire(ctx); !ok || err != nil {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if store.ttls["yp:lock:live_refresh"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttls["yp:lock:live_refresh"])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second instance must not acquire a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-owner release: %v", err)
	}
	if _, ok := store.values["yp:lock:live_refresh"]; !ok {
		t.Fatal("non-owner release removed the key")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if _, ok := store.values["yp:lock:live_refresh"]; ok {
		t.Fatal("owner release kept the key")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("repeat release: %v", err)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisLock(newMemoryStore(), "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
}
