package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"virtual-kitchen/internal/pkg/common"
)

// Deduplicator 在時間窗內拒絕相同的 POST 請求（例如連點建立會話）
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string]time.Time
}

// NewDeduplicator 創建去重器，window <= 0 時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:   window,
		now:      time.Now,
		requests: make(map[string]time.Time),
	}
}

// Middleware 請求去重中間件
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if !d.record(fingerprint) {
			common.LogInfo("Duplicate request rejected",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			common.WriteError(c, common.ErrTooManyRequests, false)
			return
		}

		c.Next()
	}
}

// record 記錄指紋；時間窗內重複時回傳 false
func (d *Deduplicator) record(fingerprint string) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return false
	}
	d.requests[fingerprint] = now

	// 順便清理過舊的指紋
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
	return true
}
