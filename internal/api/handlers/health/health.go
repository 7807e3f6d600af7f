package health

import (
	"net/http"
	"runtime"
	"time"

	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/core/session"
	"virtual-kitchen/internal/infrastructure/config"
	"virtual-kitchen/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Catalog   *CatalogStatus         `json:"catalog,omitempty"`
	Sessions  *session.Stats         `json:"sessions,omitempty"`
}

// CatalogStatus 目錄狀態
type CatalogStatus struct {
	Ingredients int `json:"ingredients"`
	Cookware    int `json:"cookware"`
	Utensils    int `json:"utensils"`
}

// Handler 健康檢查處理器
type Handler struct {
	config   *config.Config
	catalog  *catalog.Store
	sessions *session.Manager
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, store *catalog.Store, sessions *session.Manager) *Handler {
	return &Handler{
		config:   cfg,
		catalog:  store,
		sessions: sessions,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.catalog != nil {
		ing, cw, ut := h.catalog.Counts()
		response.Catalog = &CatalogStatus{Ingredients: ing, Cookware: cw, Utensils: ut}
	}
	if h.sessions != nil {
		stats := h.sessions.Stats()
		response.Sessions = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 目錄已載入才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.catalog == nil || h.sessions == nil {
		common.WriteError(c, common.ErrCatalogUnavailable, false)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
