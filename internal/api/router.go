package api

import (
	"context"
	"time"

	catalogHandler "virtual-kitchen/internal/api/handlers/catalog"
	"virtual-kitchen/internal/api/handlers/health"
	workspaceHandler "virtual-kitchen/internal/api/handlers/workspace"
	"virtual-kitchen/internal/api/middleware"
	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/core/session"
	"virtual-kitchen/internal/infrastructure/config"
	"virtual-kitchen/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 預設請求體大小限制 (1MB)
	defaultMaxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, store *catalog.Store, sessions *session.Manager) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 只信任設定中的代理，其他請求以連線位址作為客戶端 IP
	var proxies []string
	if len(cfg.Server.TrustedProxies) > 0 {
		proxies = cfg.Server.TrustedProxies
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		common.LogError("Invalid trusted proxies, trusting none",
			zap.Strings("trusted_proxies", proxies),
			zap.Error(err),
		)
		_ = router.SetTrustedProxies(nil)
	}

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBody, cfg.App.Debug))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, store, sessions)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// 靜態資產
	if cfg.Static.ImagesDir != "" {
		router.Static("/images", cfg.Static.ImagesDir)
	}
	if cfg.Static.SoundsDir != "" {
		router.Static("/sounds", cfg.Static.SoundsDir)
	}

	// API 路由組
	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 基礎目錄（與目錄伺服器相同的路由）
	catalogH := catalogHandler.NewHandler(store)
	api.GET("/ingredients", catalogH.ListIngredients)
	api.GET("/cookware", catalogH.ListCookware)
	api.GET("/utensils", catalogH.ListUtensils)

	// 工作區會話
	workspaceH := workspaceHandler.NewHandler(sessions, cfg.App.Debug)
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	v1 := api.Group("/v1")
	{
		v1.POST("/sessions", dedup.Middleware(), workspaceH.CreateSession)

		sessionGroup := v1.Group("/sessions/:id")
		{
			sessionGroup.GET("", workspaceH.GetSession)
			sessionGroup.DELETE("", workspaceH.DeleteSession)
			sessionGroup.GET("/ingredients", workspaceH.ListIngredients)

			// 拖放（滑鼠與觸控共用）
			sessionGroup.POST("/drop", workspaceH.Drop)

			sessionGroup.PUT("/cookware", workspaceH.SelectCookware)
			sessionGroup.DELETE("/cookware", workspaceH.ClearCookware)
			sessionGroup.PUT("/utensil", workspaceH.SelectUtensil)

			sessionGroup.POST("/ingredients/:instance/apply", workspaceH.ApplyUtensil)
			sessionGroup.PATCH("/ingredients/:instance", workspaceH.MoveIngredient)
			sessionGroup.DELETE("/ingredients/:instance", workspaceH.RemoveIngredient)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.WriteError(c, common.ErrNotFound, false)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBody),
		zap.Strings("trusted_proxies", proxies),
		zap.String("images_dir", cfg.Static.ImagesDir),
	)

	return router
}
