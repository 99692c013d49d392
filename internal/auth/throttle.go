package auth

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts failed logins per key inside a decay window.
type AttemptCounter interface {
	// Attempts returns the current count and how long until the window resets.
	Attempts(ctx context.Context, key string) (int, time.Duration, error)
	Hit(ctx context.Context, key string, decay time.Duration) error
	Clear(ctx context.Context, key string) error
}

// LoginThrottle locks out an email/ip pair after too many failed attempts.
type LoginThrottle struct {
	counter     AttemptCounter
	maxAttempts int
	decay       time.Duration
}

// NewLoginThrottle builds a throttle; maxAttempts <= 0 disables it.
func NewLoginThrottle(counter AttemptCounter, maxAttempts int, decay time.Duration) *LoginThrottle {
	return &LoginThrottle{counter: counter, maxAttempts: maxAttempts, decay: decay}
}

// ThrottleKey normalises the email and joins it with the client ip.
func ThrottleKey(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Locked reports whether key is locked out and for how many seconds.
func (t *LoginThrottle) Locked(ctx context.Context, key string) (bool, int, error) {
	if t == nil || t.maxAttempts <= 0 {
		return false, 0, nil
	}
	attempts, ttl, err := t.counter.Attempts(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if attempts < t.maxAttempts {
		return false, 0, nil
	}
	seconds := int(math.Ceil(ttl.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return true, seconds, nil
}

// Failed records a failed attempt.
func (t *LoginThrottle) Failed(ctx context.Context, key string) error {
	if t == nil || t.maxAttempts <= 0 {
		return nil
	}
	return t.counter.Hit(ctx, key, t.decay)
}

// Succeeded clears the counter.
func (t *LoginThrottle) Succeeded(ctx context.Context, key string) error {
	if t == nil || t.maxAttempts <= 0 {
		return nil
	}
	return t.counter.Clear(ctx, key)
}

const throttleKeyPrefix = "login_attempts:"

// RedisAttemptCounter uses INCR with an EXPIRE set on the first hit.
type RedisAttemptCounter struct {
	client *redis.Client
}

// NewRedisAttemptCounter wraps client.
func NewRedisAttemptCounter(client *redis.Client) *RedisAttemptCounter {
	return &RedisAttemptCounter{client: client}
}

func (c *RedisAttemptCounter) Attempts(ctx context.Context, key string) (int, time.Duration, error) {
	pipe := c.client.Pipeline()
	getCmd := pipe.Get(ctx, throttleKeyPrefix+key)
	ttlCmd := pipe.TTL(ctx, throttleKeyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, err
	}
	attempts, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return attempts, ttlCmd.Val(), nil
}

func (c *RedisAttemptCounter) Hit(ctx context.Context, key string, decay time.Duration) error {
	count, err := c.client.Incr(ctx, throttleKeyPrefix+key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return c.client.Expire(ctx, throttleKeyPrefix+key, decay).Err()
	}
	return nil
}

func (c *RedisAttemptCounter) Clear(ctx context.Context, key string) error {
	return c.client.Del(ctx, throttleKeyPrefix+key).Err()
}

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// MemoryAttemptCounter is the in-process AttemptCounter used without Redis.
type MemoryAttemptCounter struct {
	mu      sync.Mutex
	windows map[string]attemptWindow
	now     func() time.Time
}

// NewMemoryAttemptCounter builds an empty counter.
func NewMemoryAttemptCounter() *MemoryAttemptCounter {
	return &MemoryAttemptCounter{windows: make(map[string]attemptWindow), now: time.Now}
}

func (c *MemoryAttemptCounter) Attempts(_ context.Context, key string) (int, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	window, ok := c.windows[key]
	now := c.now()
	if !ok || !now.Before(window.expiresAt) {
		delete(c.windows, key)
		return 0, 0, nil
	}
	return window.count, window.expiresAt.Sub(now), nil
}

func (c *MemoryAttemptCounter) Hit(_ context.Context, key string, decay time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	window, ok := c.windows[key]
	if !ok || !now.Before(window.expiresAt) {
		window = attemptWindow{expiresAt: now.Add(decay)}
	}
	window.count++
	c.windows[key] = window
	return nil
}

func (c *MemoryAttemptCounter) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.windows, key)
	return nil
}
