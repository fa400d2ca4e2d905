package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// HashIndex acelera la resolución identity hash -> email para el resume
// de sesión. Es solo una cache: el store sigue siendo la autoridad.
type HashIndex interface {
	Remember(hash, email string) error
	Lookup(hash string) (string, bool)
}

type memoryHashIndex struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryHashEntry
}

type memoryHashEntry struct {
	email     string
	expiresAt time.Time
}

// NewMemoryHashIndex crea un índice en memoria con TTL por entrada.
func NewMemoryHashIndex(ttl time.Duration) HashIndex {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryHashIndex{
		ttl:   ttl,
		items: make(map[string]memoryHashEntry),
	}
}

func (i *memoryHashIndex) Remember(hash, email string) error {
	if strings.TrimSpace(hash) == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items[hash] = memoryHashEntry{
		email:     email,
		expiresAt: time.Now().UTC().Add(i.ttl),
	}
	return nil
}

func (i *memoryHashIndex) Lookup(hash string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	entry, ok := i.items[hash]
	if !ok {
		return "", false
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(i.items, hash)
		return "", false
	}
	return entry.email, true
}

type redisHashIndex struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisHashIndex crea un índice respaldado en Redis.
func NewRedisHashIndex(client *redis.Client, ttl time.Duration) HashIndex {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisHashIndex{
		client: client,
		ttl:    ttl,
		prefix: "auth:hash:",
	}
}

func (i *redisHashIndex) Remember(hash, email string) error {
	if strings.TrimSpace(hash) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return i.client.Set(ctx, i.prefix+hash, email, i.ttl).Err()
}

func (i *redisHashIndex) Lookup(hash string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	email, err := i.client.Get(ctx, i.prefix+hash).Result()
	if err != nil {
		// redis.Nil o error de red: ambos caen al lookup del store.
		return "", false
	}
	return email, true
}
