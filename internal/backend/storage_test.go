package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

type mockRedisKV struct {
	values map[string]string

	lastSetKey string
	lastSetTTL time.Duration
	lastDel    []string

	getErr error
	setErr error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{values: map[string]string{}}
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	for _, k := range keys {
		delete(m.values, k)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestMemoryStorageBasics(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	got, err := s.Load(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for missing key; got %+v,%v", got, err)
	}

	if err := s.Save(ctx, "sid", domain.Session{AccessToken: "at"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = s.Load(ctx, "sid")
	if err != nil || got == nil || got.AccessToken != "at" {
		t.Fatalf("expected stored session, got %+v,%v", got, err)
	}

	got.AccessToken = "mutated"
	again, _ := s.Load(ctx, "sid")
	if again.AccessToken != "at" {
		t.Fatalf("expected stored copy to be isolated from callers")
	}

	if err := s.Delete(ctx, "sid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.Load(ctx, "sid"); got != nil {
		t.Fatalf("expected session deleted")
	}
}

func TestNewRedisStorageNilClient(t *testing.T) {
	if s := NewRedisStorage(nil, time.Hour); s != nil {
		t.Fatalf("expected nil storage for nil client")
	}
}

func TestRedisStorageRoundTrip(t *testing.T) {
	mock := newMockRedisKV()
	s := &redisStorage{client: mock, prefix: "mycoaching:session:", ttl: time.Hour}
	ctx := context.Background()

	session := domain.Session{AccessToken: "at", RefreshToken: "rt", User: &domain.Identity{ID: "u1"}}
	if err := s.Save(ctx, " sid-1 ", session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mock.lastSetKey != "mycoaching:session:sid-1" {
		t.Fatalf("unexpected key %q", mock.lastSetKey)
	}
	if mock.lastSetTTL != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", mock.lastSetTTL)
	}

	got, err := s.Load(ctx, "sid-1")
	if err != nil || got == nil || got.RefreshToken != "rt" || got.User.ID != "u1" {
		t.Fatalf("unexpected loaded session %+v,%v", got, err)
	}

	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "mycoaching:session:sid-1" {
		t.Fatalf("unexpected delete keys %v", mock.lastDel)
	}
	if got, err := s.Load(ctx, "sid-1"); err != nil || got != nil {
		t.Fatalf("expected nil,nil after delete; got %+v,%v", got, err)
	}
}

func TestRedisStorageErrors(t *testing.T) {
	t.Run("load error surfaces", func(t *testing.T) {
		mock := newMockRedisKV()
		mock.getErr = errors.New("redis down")
		s := &redisStorage{client: mock, prefix: "p:", ttl: time.Hour}
		if _, err := s.Load(context.Background(), "sid"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("save error surfaces", func(t *testing.T) {
		mock := newMockRedisKV()
		mock.setErr = errors.New("redis down")
		s := &redisStorage{client: mock, prefix: "p:", ttl: time.Hour}
		if err := s.Save(context.Background(), "sid", domain.Session{}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("blank key is ignored", func(t *testing.T) {
		mock := newMockRedisKV()
		s := &redisStorage{client: mock, prefix: "p:", ttl: time.Hour}
		if err := s.Save(context.Background(), "  ", domain.Session{}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if mock.lastSetKey != "" {
			t.Fatalf("expected no redis call for blank key")
		}
	})
}
