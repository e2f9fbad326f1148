package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingTokenStore recuerda los tokens pendientes de 2FA emitidos y no canjeados.
// Consume es atomico: de varias llamadas concurrentes con el mismo jti solo una obtiene ok=true.
type PendingTokenStore interface {
	Store(jti, userID string, ttl time.Duration) error
	Consume(jti string) (userID string, ok bool, err error)
}

type pendingLogin struct {
	userID    string
	expiresAt time.Time
}

type memoryPendingTokenStore struct {
	mu      sync.Mutex
	pending map[string]pendingLogin
	now     func() time.Time
}

func NewMemoryPendingTokenStore() PendingTokenStore {
	return &memoryPendingTokenStore{
		pending: make(map[string]pendingLogin),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryPendingTokenStore) Store(jti, userID string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// Se aprovecha la escritura para purgar logins abandonados.
	for k, p := range s.pending {
		if now.After(p.expiresAt) {
			delete(s.pending, k)
		}
	}
	s.pending[jti] = pendingLogin{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *memoryPendingTokenStore) Consume(jti string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[jti]
	if !ok {
		return "", false, nil
	}
	delete(s.pending, jti)
	if s.now().After(p.expiresAt) {
		return "", false, nil
	}
	return p.userID, true, nil
}

type redisPendingTokenStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisPendingTokenStore guarda cada jti como clave con TTL; el valor es el id del usuario.
func NewRedisPendingTokenStore(client redis.Cmdable) PendingTokenStore {
	if client == nil {
		return nil
	}
	return &redisPendingTokenStore{
		client: client,
		prefix: "auth:2fa-pending:",
	}
}

func (s *redisPendingTokenStore) Store(jti, userID string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, userID, ttl).Err()
}

// Consume usa GETDEL: lectura y borrado en un solo comando del servidor.
func (s *redisPendingTokenStore) Consume(jti string) (string, bool, error) {
	if strings.TrimSpace(jti) == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	userID, err := s.client.GetDel(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}
