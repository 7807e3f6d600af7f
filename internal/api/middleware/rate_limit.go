package middleware

import (
	"fmt"
	"sync"
	"time"

	"virtual-kitchen/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
	now      func() time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
		now:      time.Now,
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	// 依經過時間補充令牌
	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// clientLimiters 每個客戶端 IP 一個限流器
type clientLimiters struct {
	mu        sync.Mutex
	requests  int
	window    time.Duration
	limiters  map[string]*RateLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(requests int, window time.Duration) *clientLimiters {
	return &clientLimiters{
		requests:  requests,
		window:    window,
		limiters:  make(map[string]*RateLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *clientLimiters) get(ip string) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	rl, ok := l.limiters[ip]
	if !ok {
		rl = NewRateLimiter(l.requests, l.window)
		rl.lastTime = now
		rl.now = l.now
		l.limiters[ip] = rl
	}
	return rl
}

// sweep 移除閒置超過一個時間窗的限流器（令牌已補滿，與新建無異）
func (l *clientLimiters) sweep(now time.Time) {
	for ip, rl := range l.limiters {
		rl.mu.Lock()
		idle := now.Sub(rl.lastTime)
		rl.mu.Unlock()
		if idle >= l.window {
			delete(l.limiters, ip)
		}
	}
	l.lastSweep = now
}

// size 目前追蹤的客戶端數量
func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit 限流中間件（依客戶端 IP 計算）
// 客戶端 IP 取自 gin 的 ClientIP，只有受信任代理的 X-Forwarded-For 會被採用
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return newClientLimiters(requests, window).middleware()
}

func (l *clientLimiters) middleware() gin.HandlerFunc {
	window := l.window
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			common.WriteError(c, common.ErrTooManyRequests, false)
			return
		}

		c.Next()
	}
}
