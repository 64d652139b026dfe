package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound = errors.New("cache: key not found")
)

// Store keeps expiring integer counters shared by every API instance.
type Store interface {
	// Get returns the current value of key or ErrNotFound.
	Get(ctx context.Context, key string) (int64, error)
	// Incr adds one to key and (re)arms its expiry to ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// IncrBelow adds one to key only while its value is below limit. It
	// reports the resulting value and whether the increment happened. The
	// check and the increment are a single atomic step.
	IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error)
	Close() error
}

// incrBelowScript returns {value, incremented}.
var incrBelowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return {current, 0}
end
current = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return {current, 1}
`)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (r *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (r *RedisStore) IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	res, err := incrBelowScript.Run(ctx, r.client, []string{key}, limit, seconds).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("incr below %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("incr below %s: unexpected reply %v", key, res)
	}
	return res[0], res[1] == 1, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// sweepInterval is how often a MemoryStore drops expired counters.
const sweepInterval = time.Minute

// MemoryStore is a process-local Store for single-instance deployments
// and tests. A background sweep removes expired counters until Close.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]counter
	now  func() time.Time

	sweepTick *time.Ticker
	stopSweep chan struct{}
	closeOnce sync.Once
}

type counter struct {
	value     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		data:      make(map[string]counter),
		now:       time.Now,
		sweepTick: time.NewTicker(sweepInterval),
		stopSweep: make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *MemoryStore) sweepLoop() {
	for {
		select {
		case <-m.sweepTick.C:
			m.sweep()
		case <-m.stopSweep:
			return
		}
	}
}

// sweep deletes every expired counter and reports how many remain.
func (m *MemoryStore) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, c := range m.data {
		if !now.Before(c.expiresAt) {
			delete(m.data, key)
		}
	}
	return len(m.data)
}

// live returns the unexpired counter for key. Callers hold mu.
func (m *MemoryStore) live(key string) (counter, bool) {
	c, exists := m.data[key]
	if !exists {
		return counter{}, false
	}
	if !m.now().Before(c.expiresAt) {
		delete(m.data, key)
		return counter{}, false
	}
	return c, true
}

func (m *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.live(key)
	if !ok {
		return 0, ErrNotFound
	}
	return c.value, nil
}

func (m *MemoryStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, _ := m.live(key)
	c.value++
	c.expiresAt = m.now().Add(ttl)
	m.data[key] = c
	return c.value, nil
}

func (m *MemoryStore) IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, _ := m.live(key)
	if c.value >= limit {
		return c.value, false, nil
	}
	c.value++
	c.expiresAt = m.now().Add(ttl)
	m.data[key] = c
	return c.value, true, nil
}

func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		m.sweepTick.Stop()
		close(m.stopSweep)
	})
	return nil
}

// Key joins parts into a namespaced counter key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
