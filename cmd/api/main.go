package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"virtual-kitchen/internal/api"
	"virtual-kitchen/internal/core/catalog"
	"virtual-kitchen/internal/core/kitchen"
	"virtual-kitchen/internal/core/session"
	"virtual-kitchen/internal/infrastructure/config"
	"virtual-kitchen/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("max_sessions", cfg.Session.MaxSessions),
	)

	// 建立目錄來源
	src, redisClient := buildSource(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 載入目錄；失敗時整個服務無法使用
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Catalog.Timeout+5*time.Second)
	store, err := catalog.Load(loadCtx, src, catalog.LoadOptions{AssetPrefix: cfg.Catalog.AssetPrefix})
	cancelLoad()
	if err != nil {
		common.LogFatal("Failed to load catalog", zap.Error(err))
	}

	// 初始化會話管理
	sessions := session.NewManager(cfg.Session, store,
		kitchen.WithScene(cfg.Scene.Width, cfg.Scene.Height),
		kitchen.WithBaseSize(cfg.Scene.BaseSize),
		kitchen.WithAssetPrefix(cfg.Catalog.AssetPrefix),
	)
	defer sessions.Close()

	// 設置路由
	router := api.SetupRouter(cfg, store, sessions)

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// buildSource 依設定建立目錄來源，啟用快取時包上一層 Redis
func buildSource(cfg *config.Config) (catalog.Source, *redis.Client) {
	var src catalog.Source
	switch cfg.Catalog.Source {
	case "http":
		src = catalog.NewHTTPSource(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	default:
		src = catalog.NewFileSource(cfg.Catalog.DataDir)
	}

	if !cfg.Cache.Enabled {
		return src, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cached, client, err := catalog.NewCachedSource(ctx, cfg.Cache, src)
	if err != nil {
		// 快取不可用時直接讀取來源
		common.LogWarn("Redis unavailable, loading catalog without cache",
			zap.String("redis_addr", cfg.Cache.RedisAddr),
			zap.Error(err),
		)
		return src, nil
	}
	return cached, client
}
