package backend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

// SessionStorage persiste los tokens de sesión por clave de contenedor.
// Load devuelve nil, nil cuando no hay nada guardado.
type SessionStorage interface {
	Load(ctx context.Context, key string) (*domain.Session, error)
	Save(ctx context.Context, key string, session domain.Session) error
	Delete(ctx context.Context, key string) error
}

type memoryStorage struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

// NewMemoryStorage guarda las sesiones en memoria del proceso.
func NewMemoryStorage() SessionStorage {
	return &memoryStorage{items: make(map[string]domain.Session)}
}

func (s *memoryStorage) Load(_ context.Context, key string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *memoryStorage) Save(_ context.Context, key string, session domain.Session) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = session
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStorage struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

// NewRedisStorage guarda las sesiones en redis con expiración ttl.
func NewRedisStorage(client *redis.Client, ttl time.Duration) SessionStorage {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &redisStorage{
		client: client,
		prefix: "mycoaching:session:",
		ttl:    ttl,
	}
}

func (s *redisStorage) Load(ctx context.Context, key string) (*domain.Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisStorage) Save(ctx context.Context, key string, session domain.Session) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

func (s *redisStorage) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}
