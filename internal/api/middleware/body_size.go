package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"virtual-kitchen/internal/pkg/common"
)

// BodySizeLimit 限制請求體大小的中間件，debug 時回應附帶詳細信息
func BodySizeLimit(maxSize int64, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 檢查 Content-Length
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			common.WriteError(c, common.ErrPayloadTooLarge.Wrap(
				fmt.Errorf("body of %d bytes exceeds %d", c.Request.ContentLength, maxSize),
			), debug)
			return
		}

		// 未帶 Content-Length 時由 MaxBytesReader 把關
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}
