package smtp

import (
	"sync"
	"time"
)

// ConnectionLimiter SMTP 连接限流器。
// 同时限制并发连接数与每秒新建连接速率。
type ConnectionLimiter struct {
	maxConns    int
	current     int
	mu          sync.Mutex
	rateLimiter *rateLimiter
}

// NewConnectionLimiter 创建连接限流器。
// maxConns 为最大并发连接数，maxRate 为每秒最大新建连接数。
func NewConnectionLimiter(maxConns, maxRate int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxConns:    maxConns,
		rateLimiter: newRateLimiter(maxRate),
	}
}

// Acquire 获取连接许可，超限返回 false。
func (l *ConnectionLimiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current >= l.maxConns {
		return false
	}
	if !l.rateLimiter.allow() {
		return false
	}

	l.current++
	return true
}

// Release 释放连接。
func (l *ConnectionLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current > 0 {
		l.current--
	}
}

// Current 当前连接数。
func (l *ConnectionLimiter) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// rateLimiter 令牌桶速率限制器。
type rateLimiter struct {
	rate       int
	tokens     int
	maxTokens  int
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(rate int) *rateLimiter {
	return &rateLimiter{
		rate:       rate,
		tokens:     rate,
		maxTokens:  rate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	newTokens := int(elapsed * float64(r.rate))
	if newTokens > 0 {
		r.tokens = min(r.maxTokens, r.tokens+newTokens)
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}
