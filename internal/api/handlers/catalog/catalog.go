// Package catalog 提供基礎食材目錄的讀取路由
package catalog

import (
	"net/http"
	"strings"

	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 目錄處理程序
type Handler struct {
	store *catalog.Store
}

// NewHandler 創建目錄處理程序
func NewHandler(store *catalog.Store) *Handler {
	return &Handler{store: store}
}

// ListIngredients 列出食材；支援 ?q= 名稱關鍵字與 ?tag= 標籤（可重複或以逗號分隔）
func (h *Handler) ListIngredients(c *gin.Context) {
	query := c.Query("q")
	tags := ParseTags(c.QueryArray("tag"))

	if query == "" && len(tags) == 0 {
		c.JSON(http.StatusOK, h.store.Ingredients())
		return
	}

	results := h.store.Search(query, tags)
	common.LogDebug("食材搜尋",
		zap.String("query", query),
		zap.Strings("tags", tags),
		zap.Int("results", len(results)),
	)
	c.JSON(http.StatusOK, results)
}

// ListCookware 列出廚具
func (h *Handler) ListCookware(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Cookware())
}

// ListUtensils 列出器具
func (h *Handler) ListUtensils(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Utensils())
}

// ParseTags 合併重複參數與逗號分隔的標籤
func ParseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
